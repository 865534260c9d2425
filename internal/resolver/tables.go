package resolver

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// defaultContinents are the macro-region labels extracted into continent
// tables. None of them is a country.
var defaultContinents = []string{ //nolint: gochecknoglobals
	"North America",
	"Latin America & Caribbean",
	"Sub-Saharan Africa",
	"Middle East & North Africa",
	"Europe & Central Asia",
	"Central Europe and the Baltics",
	"East Asia & Pacific",
	"South Asia",
}

// defaultDenied are World Bank aggregate rows that sit next to real countries
// in every export.
var defaultDenied = []string{ //nolint: gochecknoglobals
	"World",
	"Arab World",
	"Euro area",
	"European Union",
	"OECD members",
	"High income",
	"Low income",
	"Lower middle income",
	"Upper middle income",
	"Middle income",
	"Low & middle income",
	"IBRD only",
	"IDA only",
	"IDA blend",
	"IDA total",
	"IDA & IBRD total",
	"Fragile and conflict affected situations",
	"Heavily indebted poor countries (HIPC)",
	"Least developed countries: UN classification",
	"Small states",
	"Other small states",
	"Caribbean small states",
	"Pacific island small states",
	"Early-demographic dividend",
	"Late-demographic dividend",
	"Pre-demographic dividend",
	"Post-demographic dividend",
	"Africa Eastern and Southern",
	"Africa Western and Central",
	"East Asia & Pacific (excluding high income)",
	"East Asia & Pacific (IDA & IBRD countries)",
	"Europe & Central Asia (excluding high income)",
	"Europe & Central Asia (IDA & IBRD countries)",
	"Latin America & Caribbean (excluding high income)",
	"Latin America & the Caribbean (IDA & IBRD countries)",
	"Middle East & North Africa (excluding high income)",
	"Middle East & North Africa (IDA & IBRD countries)",
	"South Asia (IDA & IBRD)",
	"Sub-Saharan Africa (excluding high income)",
	"Sub-Saharan Africa (IDA & IBRD countries)",
	"Not classified",
}

// defaultRenames maps World Bank spellings to canonical country names.
var defaultRenames = map[string]string{ //nolint: gochecknoglobals
	"Bahamas, The":                   "The Bahamas",
	"Gambia, The":                    "The Gambia",
	"Egypt, Arab Rep.":               "Egypt",
	"Iran, Islamic Rep.":             "Iran",
	"Korea, Rep.":                    "South Korea",
	"Korea, Dem. People's Rep.":      "North Korea",
	"Venezuela, RB":                  "Venezuela",
	"Yemen, Rep.":                    "Yemen",
	"Congo, Dem. Rep.":               "Democratic Republic of the Congo",
	"Congo, Rep.":                    "Republic of the Congo",
	"Hong Kong SAR, China":           "Hong Kong",
	"Macao SAR, China":               "Macao",
	"Micronesia, Fed. Sts.":          "Micronesia",
	"Lao PDR":                        "Laos",
	"Kyrgyz Republic":                "Kyrgyzstan",
	"Slovak Republic":                "Slovakia",
	"Russian Federation":             "Russia",
	"Syrian Arab Republic":           "Syria",
	"Brunei Darussalam":              "Brunei",
	"Cabo Verde":                     "Cape Verde",
	"Czechia":                        "Czech Republic",
	"St. Lucia":                      "Saint Lucia",
	"St. Kitts and Nevis":            "Saint Kitts and Nevis",
	"St. Vincent and the Grenadines": "Saint Vincent and the Grenadines",
	"St. Martin (French part)":       "Saint Martin",
	"Virgin Islands (U.S.)":          "United States Virgin Islands",
	"Turkiye":                        "Turkey",
	"West Bank and Gaza":             "Palestine",
}

// Tables holds the immutable lookup tables of the resolver: the deny-list of
// aggregate labels, the rename table and the continent allow-list. Lookups
// compare normalized keys (see normalizeKey).
type Tables struct {
	denied     map[string]struct{}
	renames    map[string]string
	continents []string
	continentK map[string]string
}

// NewTables builds Tables from the given entries. Continent labels are
// denied as countries as well.
func NewTables(denied []string, renames map[string]string, continents []string) *Tables {
	t := &Tables{
		denied:     make(map[string]struct{}, len(denied)+len(continents)),
		renames:    make(map[string]string, len(renames)),
		continents: slices.Clone(continents),
		continentK: make(map[string]string, len(continents)),
	}
	for _, d := range denied {
		t.denied[normalizeKey(d)] = struct{}{}
	}
	for _, c := range continents {
		k := normalizeKey(c)
		t.denied[k] = struct{}{}
		t.continentK[k] = c
	}
	for from, to := range renames {
		t.renames[normalizeKey(from)] = to
	}

	return t
}

// DefaultTables returns the built-in World Bank tables.
func DefaultTables() *Tables {
	return NewTables(defaultDenied, defaultRenames, defaultContinents)
}

// With returns a copy of t extended with extra denied labels and renames.
// Extra renames override built-in ones.
func (t *Tables) With(denied []string, renames map[string]string) *Tables {
	out := &Tables{
		denied:     maps.Clone(t.denied),
		renames:    maps.Clone(t.renames),
		continents: t.continents,
		continentK: t.continentK,
	}
	for _, d := range denied {
		out.denied[normalizeKey(d)] = struct{}{}
	}
	for from, to := range renames {
		out.renames[normalizeKey(from)] = to
	}

	return out
}

// Denied reports whether label is a non-country aggregate.
func (t *Tables) Denied(label string) bool {
	_, ok := t.denied[normalizeKey(label)]

	return ok
}

// Rename returns the canonical spelling of name, or name itself when the
// rename table has no entry.
func (t *Tables) Rename(name string) string {
	if to, ok := t.renames[normalizeKey(name)]; ok {
		return to
	}

	return strings.TrimSpace(name)
}

// Continent returns the allow-listed spelling of label.
func (t *Tables) Continent(label string) (string, bool) {
	c, ok := t.continentK[normalizeKey(label)]

	return c, ok
}

// Continents returns the continent allow-list in its fixed order.
func (t *Tables) Continents() []string {
	return slices.Clone(t.continents)
}

// normalizeKey folds the spelling variations seen across exports: Unicode
// composition, typographic apostrophes, letter case and runs of whitespace.
func normalizeKey(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '’' || r == '‘' {
			return '\''
		}

		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	return cases.Fold().String(s)
}
