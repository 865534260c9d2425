// Package registry looks up canonical country records by ISO 3166-1 alpha-3
// code. It is read-only: registries are built once and shared.
//
//go:generate mockgen -package mockregistry -source=registry.go -destination=mock/mockregistry.go *
package registry

import (
	"strings"

	"github.com/biter777/countries"
)

// Country is the canonical record of a country.
type Country struct {
	// Alpha3 is the ISO 3166-1 alpha-3 code, upper case.
	Alpha3 string
	// Name is the English short name.
	Name string
}

// Registry resolves alpha-3 codes to country records.
type Registry interface {
	// Lookup returns the country with the given alpha-3 code. The second value
	// is false when the code is unknown.
	Lookup(alpha3 string) (Country, bool)
}

type iso struct{}

// ISO returns the ISO 3166-1 registry. It also knows the user-assigned XKX
// (Kosovo), which the World Bank exports use.
func ISO() Registry { return iso{} }

func (iso) Lookup(alpha3 string) (Country, bool) {
	if len(alpha3) != 3 {
		return Country{}, false
	}

	code := strings.ToUpper(alpha3)
	// ByName also accepts alpha-2 codes and names; only an exact alpha-3
	// match counts here.
	c := countries.ByName(code)
	if c == countries.Unknown || c.Alpha3() != code {
		return Country{}, false
	}

	return Country{Alpha3: code, Name: c.String()}, true
}

// Map is a static registry keyed by alpha-3 code.
type Map map[string]string

// Lookup implements Registry.
func (m Map) Lookup(alpha3 string) (Country, bool) {
	code := strings.ToUpper(alpha3)
	name, ok := m[code]
	if !ok {
		return Country{}, false
	}

	return Country{Alpha3: code, Name: name}, true
}

type chain []Registry

// Chain consults registries in order and returns the first match.
func Chain(registries ...Registry) Registry {
	return chain(registries)
}

func (c chain) Lookup(alpha3 string) (Country, bool) {
	for _, r := range c {
		if country, ok := r.Lookup(alpha3); ok {
			return country, true
		}
	}

	return Country{}, false
}
