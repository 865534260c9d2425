// Package summary derives the figures a dashboard shows next to the aligned
// tables: colour-scale bounds, cross-country means, world aggregates and
// continent rankings. Every function is pure and reads only its arguments.
package summary

import (
	"cmp"
	"demography/pkg/domain"
	"demography/pkg/serrors"
	"fmt"
	"math"
	"slices"
)

// Bounds is the closed value range of a table.
type Bounds struct {
	Min float64
	Max float64
}

// Ranked is one continent in a ranking.
type Ranked struct {
	Label string
	Value float64
}

// IndicatorDigest summarizes one indicator for a single year.
type IndicatorDigest struct {
	Indicator   domain.Indicator
	Title       string
	Aggregation domain.Aggregation
	Year        int
	// Log is set when every figure below is a natural logarithm.
	Log bool
	// Countries is the number of universe countries contributing to World.
	Countries int
	// World is the sum or median of the country values of Year.
	World float64
	// Mean is the cross-country mean of Year.
	Mean float64
	// Extent spans every country and year of the table.
	Extent Bounds
	// Histogram bins the country values of Year.
	Histogram  Histogram
	Continents []Ranked
}

// Extent returns the minimum and maximum over every row and year of t.
func Extent(t *domain.Table) (Bounds, error) {
	if t.Len() == 0 {
		return Bounds{}, serrors.With(serrors.ErrBadRequest, "%s table is empty", t.Indicator())
	}

	b := Bounds{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, year := range t.Years().Years() {
		col, _ := t.Column(year)
		b.Min = min(b.Min, slices.Min(col))
		b.Max = max(b.Max, slices.Max(col))
	}

	return b, nil
}

// YearValues returns the values of indicator in year, one per universe
// country in snapshot order.
func YearValues(s *domain.Snapshot, indicator domain.Indicator, year int) ([]float64, error) {
	t, err := s.Table(indicator)
	if err != nil {
		return nil, err
	}
	if !t.Years().Contains(year) {
		return nil, yearOutOfRange(indicator, t.Years(), year)
	}

	out := make([]float64, len(s.Codes))
	for i, id := range s.Codes {
		v, ok := t.Value(string(id), year)
		if !ok {
			return nil, serrors.With(serrors.ErrInternal, "%s table has no row for %q", indicator, id)
		}
		out[i] = v
	}

	return out, nil
}

// MeanByYear returns the cross-country mean of every year of t.
func MeanByYear(t *domain.Table) ([]float64, error) {
	if t.Len() == 0 {
		return nil, serrors.With(serrors.ErrBadRequest, "%s table is empty", t.Indicator())
	}

	years := t.Years().Years()
	out := make([]float64, len(years))
	for i, year := range years {
		col, _ := t.Column(year)
		out[i] = mean(col)
	}

	return out, nil
}

// World aggregates country values into one world figure: the total for
// count indicators, the median for rates.
func World(indicator domain.Indicator, values []float64) (float64, error) {
	d, ok := indicator.Describe()
	if !ok {
		return 0, serrors.With(serrors.ErrBadRequest, "unknown indicator %q", indicator)
	}
	if len(values) == 0 {
		return 0, serrors.With(serrors.ErrBadRequest, "no %s values to aggregate", indicator)
	}

	if d.Aggregation == domain.AggregationSum {
		var total float64
		for _, v := range values {
			total += v
		}

		return total, nil
	}

	return median(values), nil
}

// RankContinents orders the continents of t by their value in year. Count
// indicators rank largest first, rates smallest first. Ties keep label order.
func RankContinents(indicator domain.Indicator, t *domain.ContinentTable, year int) ([]Ranked, error) {
	d, ok := indicator.Describe()
	if !ok {
		return nil, serrors.With(serrors.ErrBadRequest, "unknown indicator %q", indicator)
	}
	col, ok := t.Column(year)
	if !ok {
		return nil, yearOutOfRange(indicator, t.Years(), year)
	}

	out := make([]Ranked, len(col))
	for i, label := range t.Keys() {
		out[i] = Ranked{Label: label, Value: col[i]}
	}

	desc := d.Aggregation == domain.AggregationSum
	slices.SortStableFunc(out, func(a, b Ranked) int {
		if desc {
			return cmp.Compare(b.Value, a.Value)
		}

		return cmp.Compare(a.Value, b.Value)
	})

	return out, nil
}

// Log returns the natural logarithm of every value. Values must be positive.
func Log(values []float64) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		if v <= 0 {
			return nil, serrors.With(serrors.ErrBadRequest, "cannot take log of %g at index %d", v, i)
		}
		out[i] = math.Log(v)
	}

	return out, nil
}

// DigestOptions tune Digest.
type DigestOptions struct {
	// Log puts every figure on a natural-log scale. Country and continent
	// values are transformed before they are aggregated, ranked or binned.
	Log bool
}

// Digest summarizes every indicator of s for year, in pipeline order.
func Digest(s *domain.Snapshot, year int, opts DigestOptions) ([]IndicatorDigest, error) {
	out := make([]IndicatorDigest, 0, len(s.Tables))
	for _, d := range domain.Descriptors() {
		digest, err := digestOne(s, d, year, opts)
		if err != nil {
			return nil, fmt.Errorf("could not summarize %s: %w", d.Indicator, err)
		}
		out = append(out, digest)
	}

	return out, nil
}

func digestOne(s *domain.Snapshot, d domain.Descriptor, year int, opts DigestOptions) (IndicatorDigest, error) {
	t, err := s.Table(d.Indicator)
	if err != nil {
		return IndicatorDigest{}, err
	}
	values, err := YearValues(s, d.Indicator, year)
	if err != nil {
		return IndicatorDigest{}, err
	}
	extent, err := Extent(t.Table)
	if err != nil {
		return IndicatorDigest{}, err
	}

	var continents []Ranked
	if c, ok := s.Continents[d.Indicator]; ok && c != nil {
		continents, err = RankContinents(d.Indicator, c, year)
		if err != nil {
			return IndicatorDigest{}, err
		}
	}

	if opts.Log {
		if values, err = Log(values); err != nil {
			return IndicatorDigest{}, err
		}
		bounds, err := Log([]float64{extent.Min, extent.Max})
		if err != nil {
			return IndicatorDigest{}, err
		}
		extent = Bounds{Min: bounds[0], Max: bounds[1]}
		for i := range continents {
			logged, err := Log([]float64{continents[i].Value})
			if err != nil {
				return IndicatorDigest{}, fmt.Errorf("continent %s: %w", continents[i].Label, err)
			}
			continents[i].Value = logged[0]
		}
	}

	world, err := World(d.Indicator, values)
	if err != nil {
		return IndicatorDigest{}, err
	}
	histogram, err := Doane(values)
	if err != nil {
		return IndicatorDigest{}, err
	}

	return IndicatorDigest{
		Indicator:   d.Indicator,
		Title:       d.Title,
		Aggregation: d.Aggregation,
		Year:        year,
		Log:         opts.Log,
		Countries:   len(values),
		World:       world,
		Mean:        mean(values),
		Extent:      extent,
		Histogram:   histogram,
		Continents:  continents,
	}, nil
}

func mean(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}

	return total / float64(len(values))
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func yearOutOfRange(indicator domain.Indicator, years domain.YearRange, year int) error {
	return serrors.With(serrors.ErrBadRequest, "%s covers %d-%d, not %d", indicator, years.First, years.Last, year)
}
