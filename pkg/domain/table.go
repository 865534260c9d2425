package domain

import (
	"demography/pkg/serrors"
	"slices"
)

// YearRange is an inclusive range of contiguous years.
type YearRange struct {
	First int
	Last  int
}

// Len returns the number of years in the range, or 0 for an inverted range.
func (r YearRange) Len() int {
	if r.Last < r.First {
		return 0
	}

	return r.Last - r.First + 1
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.First && year <= r.Last
}

// Years lists every year of the range in ascending order.
func (r YearRange) Years() []int {
	out := make([]int, 0, r.Len())
	for y := r.First; y <= r.Last; y++ {
		out = append(out, y)
	}

	return out
}

// Table maps a row key to one value per year of its range. Every row spans the
// full range; tables are never modified after construction.
type Table struct {
	indicator Indicator
	years     YearRange
	keys      []string
	rows      map[string][]float64
}

// NewTable builds a table from rows. Each row must hold exactly years.Len()
// values. The rows are copied.
func NewTable(indicator Indicator, years YearRange, rows map[string][]float64) (*Table, error) {
	if years.Len() == 0 {
		return nil, serrors.With(serrors.ErrBadRequest, "empty year range %d-%d", years.First, years.Last)
	}

	t := &Table{
		indicator: indicator,
		years:     years,
		keys:      make([]string, 0, len(rows)),
		rows:      make(map[string][]float64, len(rows)),
	}
	for k, row := range rows {
		if len(row) != years.Len() {
			return nil, serrors.With(serrors.ErrBadRequest,
				"row %q has %d values, want %d", k, len(row), years.Len())
		}
		t.keys = append(t.keys, k)
		t.rows[k] = slices.Clone(row)
	}
	slices.Sort(t.keys)

	return t, nil
}

func (t *Table) Indicator() Indicator { return t.indicator }

func (t *Table) Years() YearRange { return t.years }

func (t *Table) Len() int { return len(t.keys) }

// Keys returns the row keys in ascending order.
func (t *Table) Keys() []string { return slices.Clone(t.keys) }

func (t *Table) Has(key string) bool {
	_, ok := t.rows[key]

	return ok
}

// Row returns a copy of the values of key, one per year.
func (t *Table) Row(key string) ([]float64, bool) {
	row, ok := t.rows[key]
	if !ok {
		return nil, false
	}

	return slices.Clone(row), true
}

// Value returns the value of key in year.
func (t *Table) Value(key string, year int) (float64, bool) {
	row, ok := t.rows[key]
	if !ok || !t.years.Contains(year) {
		return 0, false
	}

	return row[year-t.years.First], true
}

// Column returns the values of year for every row, in Keys order.
func (t *Table) Column(year int) ([]float64, bool) {
	if !t.years.Contains(year) {
		return nil, false
	}

	out := make([]float64, len(t.keys))
	for i, k := range t.keys {
		out[i] = t.rows[k][year-t.years.First]
	}

	return out, true
}

// Restrict returns a new table holding only keys. Every key must exist.
func (t *Table) Restrict(keys []string) (*Table, error) {
	out := &Table{
		indicator: t.indicator,
		years:     t.years,
		keys:      make([]string, 0, len(keys)),
		rows:      make(map[string][]float64, len(keys)),
	}
	for _, k := range keys {
		row, ok := t.rows[k]
		if !ok {
			return nil, serrors.With(serrors.ErrNotFound, "%s table has no row %q", t.indicator, k)
		}
		if _, dup := out.rows[k]; dup {
			continue
		}
		out.keys = append(out.keys, k)
		// rows are never mutated, so sharing the backing slice is safe
		out.rows[k] = row
	}
	slices.Sort(out.keys)

	return out, nil
}

// CountryID is a canonical country identifier: an ISO alpha-3 code or a
// canonical country name, depending on the resolution mode.
type CountryID string

// IndicatorTable is a Table keyed by CountryID.
type IndicatorTable struct {
	*Table
}

// NewIndicatorTable builds an IndicatorTable from rows keyed by country.
func NewIndicatorTable(indicator Indicator, years YearRange, rows map[CountryID][]float64) (*IndicatorTable, error) {
	raw := make(map[string][]float64, len(rows))
	for id, row := range rows {
		raw[string(id)] = row
	}

	t, err := NewTable(indicator, years, raw)
	if err != nil {
		return nil, err
	}

	return &IndicatorTable{Table: t}, nil
}

// IDs returns the country identifiers in ascending order.
func (t *IndicatorTable) IDs() []CountryID {
	out := make([]CountryID, len(t.keys))
	for i, k := range t.keys {
		out[i] = CountryID(k)
	}

	return out
}

// Restrict returns a new IndicatorTable holding only ids.
func (t *IndicatorTable) Restrict(ids []CountryID) (*IndicatorTable, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}

	r, err := t.Table.Restrict(keys)
	if err != nil {
		return nil, err
	}

	return &IndicatorTable{Table: r}, nil
}

// ContinentTable is a Table keyed by a macro-region label. It is never
// intersected with the country universe.
type ContinentTable struct {
	*Table
}

// NewContinentTable builds a ContinentTable from rows keyed by region label.
func NewContinentTable(indicator Indicator, years YearRange, rows map[string][]float64) (*ContinentTable, error) {
	t, err := NewTable(indicator, years, rows)
	if err != nil {
		return nil, err
	}

	return &ContinentTable{Table: t}, nil
}
