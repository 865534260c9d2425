package domain

import (
	"demography/pkg/serrors"
	"time"
)

// ResolutionMode selects how raw rows are mapped to a CountryID.
type ResolutionMode string

const (
	// ModeCode keys countries by ISO alpha-3 code validated against a registry.
	ModeCode ResolutionMode = "code"
	// ModeName keys countries by canonical name after deny-list and renames.
	ModeName ResolutionMode = "name"
)

// Valid reports whether m is a known mode.
func (m ResolutionMode) Valid() bool {
	return m == ModeCode || m == ModeName
}

// Snapshot is the immutable result of one pipeline run.
//
// Codes is the universe: the identifiers present in every indicator table, in
// ascending order. Names is parallel to Codes.
type Snapshot struct {
	RunID    string
	Mode     ResolutionMode
	LoadedAt time.Time

	Tables     map[Indicator]*IndicatorTable
	Continents map[Indicator]*ContinentTable
	Codes      []CountryID
	Names      []string
}

// Table returns the unified country table of indicator.
func (s *Snapshot) Table(indicator Indicator) (*IndicatorTable, error) {
	t, ok := s.Tables[indicator]
	if !ok {
		return nil, serrors.With(serrors.ErrNotFound, "no table for indicator %q", indicator)
	}

	return t, nil
}

// Continent returns the continent table of indicator.
func (s *Snapshot) Continent(indicator Indicator) (*ContinentTable, error) {
	t, ok := s.Continents[indicator]
	if !ok {
		return nil, serrors.With(serrors.ErrNotFound, "no continent table for indicator %q", indicator)
	}

	return t, nil
}

// DisplayName returns the display name of id.
func (s *Snapshot) DisplayName(id CountryID) (string, bool) {
	for i, c := range s.Codes {
		if c == id {
			return s.Names[i], true
		}
	}

	return "", false
}
