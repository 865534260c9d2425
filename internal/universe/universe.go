// Package universe computes the set of countries every indicator reports and
// aligns the indicator tables to it.
package universe

import (
	"demography/pkg/domain"
	"demography/pkg/serrors"
	"fmt"
	"slices"
)

// Intersect returns the identifiers present in every table, in ascending
// order. An empty result is a configuration error: the inputs share no
// country and nothing downstream can work with zero rows.
func Intersect(tables ...*domain.IndicatorTable) ([]domain.CountryID, error) {
	if len(tables) == 0 {
		return nil, serrors.With(serrors.ErrConfiguration, "no indicator tables to intersect")
	}

	// IDs are sorted, so the smallest table bounds the result
	smallest := slices.MinFunc(tables, func(a, b *domain.IndicatorTable) int {
		return a.Len() - b.Len()
	})

	out := make([]domain.CountryID, 0, smallest.Len())
	for _, id := range smallest.IDs() {
		if inAll(tables, id) {
			out = append(out, id)
		}
	}

	if len(out) == 0 {
		return nil, serrors.With(serrors.ErrConfiguration,
			"no country is present in all %d indicator tables", len(tables))
	}

	return out, nil
}

func inAll(tables []*domain.IndicatorTable, id domain.CountryID) bool {
	for _, t := range tables {
		if !t.Has(string(id)) {
			return false
		}
	}

	return true
}

// Restrict returns each table restricted to exactly universe. The input map is
// not modified.
func Restrict(tables map[domain.Indicator]*domain.IndicatorTable,
	universe []domain.CountryID) (map[domain.Indicator]*domain.IndicatorTable, error) {
	out := make(map[domain.Indicator]*domain.IndicatorTable, len(tables))
	for indicator, t := range tables {
		r, err := t.Restrict(universe)
		if err != nil {
			return nil, fmt.Errorf("could not restrict %s table: %w", indicator, err)
		}
		out[indicator] = r
	}

	return out, nil
}

// Check verifies that every table holds exactly universe.
func Check(tables map[domain.Indicator]*domain.IndicatorTable, universe []domain.CountryID) error {
	for indicator, t := range tables {
		if !slices.Equal(t.IDs(), universe) {
			return serrors.With(serrors.ErrInternal,
				"%s table holds %d countries, universe has %d", indicator, t.Len(), len(universe))
		}
	}

	return nil
}
