// Package resolver maps raw country labels of the World Bank exports to
// canonical country identifiers.
package resolver

import (
	"demography/pkg/domain"
	"demography/pkg/registry"
	"demography/pkg/serrors"
	"strings"
)

// Resolver is a pure function of its input and mode; it holds no mutable state
// and may be shared freely.
type Resolver struct {
	mode     domain.ResolutionMode
	tables   *Tables
	registry registry.Registry
}

// New builds a Resolver. The registry is required in code mode and used for
// display names; tables default to DefaultTables when nil.
func New(mode domain.ResolutionMode, tables *Tables, reg registry.Registry) (*Resolver, error) {
	if !mode.Valid() {
		return nil, serrors.With(serrors.ErrBadRequest, "unknown resolution mode %q", mode)
	}
	if mode == domain.ModeCode && reg == nil {
		return nil, serrors.With(serrors.ErrBadRequest, "code resolution requires a country registry")
	}
	if tables == nil {
		tables = DefaultTables()
	}

	return &Resolver{mode: mode, tables: tables, registry: reg}, nil
}

func (r *Resolver) Mode() domain.ResolutionMode { return r.mode }

func (r *Resolver) Tables() *Tables { return r.tables }

// Resolve maps a raw label to a CountryID. In code mode raw is an alpha-3
// code; in name mode it is a free-text country name. Deny-listed aggregates
// are rejected in both modes.
func (r *Resolver) Resolve(raw string) (domain.CountryID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || r.tables.Denied(raw) {
		return "", false
	}

	switch r.mode {
	case domain.ModeCode:
		c, ok := r.registry.Lookup(raw)
		if !ok {
			return "", false
		}

		return domain.CountryID(c.Alpha3), true
	case domain.ModeName:
		return domain.CountryID(r.tables.Rename(raw)), true
	}

	return "", false
}

// ResolveRecord resolves a source row given its name and code columns. The
// name is always checked against the deny-list; the column matching the mode
// is then resolved.
func (r *Resolver) ResolveRecord(name, code string) (domain.CountryID, bool) {
	if r.tables.Denied(name) {
		return "", false
	}
	if r.mode == domain.ModeCode {
		return r.Resolve(code)
	}

	return r.Resolve(name)
}

// DisplayName returns the human-readable name of id. In name mode the
// identifier is already the display name.
func (r *Resolver) DisplayName(id domain.CountryID) (string, bool) {
	if r.mode == domain.ModeName {
		return string(id), id != ""
	}
	if r.registry == nil {
		return "", false
	}

	c, ok := r.registry.Lookup(string(id))
	if !ok {
		return "", false
	}

	return c.Name, true
}
