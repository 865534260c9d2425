package domain

import (
	"fmt"
	"strings"
)

// Indicator names one of the five demographic measures tracked.
type Indicator string

const (
	IndicatorFertility  Indicator = "fertility"
	IndicatorLife       Indicator = "life"
	IndicatorPopulation Indicator = "population"
	IndicatorBirth      Indicator = "birth"
	IndicatorDeath      Indicator = "death"
)

// Aggregation is how per-country values of an indicator combine into a single
// world figure.
type Aggregation string

const (
	// AggregationSum adds country values (counts such as population).
	AggregationSum Aggregation = "sum"
	// AggregationMedian takes the median of country values (rates).
	AggregationMedian Aggregation = "median"
)

// Descriptor holds the static metadata of an indicator.
type Descriptor struct {
	Indicator Indicator
	// Title is the human-readable label, e.g. "Fertility Rate".
	Title string
	// Description explains what the indicator measures.
	Description string
	// Dir and File locate the World Bank export relative to the data directory.
	Dir  string
	File string
	// Aggregation is used for world-level figures.
	Aggregation Aggregation
}

// descriptors is in pipeline order.
var descriptors = [...]Descriptor{ //nolint: gochecknoglobals
	{
		Indicator: IndicatorFertility,
		Title:     "Fertility Rate",
		Description: "Fertility Rate is the number of children that would be born to a woman if she were to " +
			"live to the end of her childbearing years and bear children in accordance with age-specific " +
			"fertility rates of the specified year.",
		Dir:         "fertility-rate",
		File:        "API_SP.DYN.TFRT.IN_DS2_en_csv_v2_10474146.csv",
		Aggregation: AggregationMedian,
	},
	{
		Indicator: IndicatorLife,
		Title:     "Life Expectancy",
		Description: "Life Expectancy is the number of years a newborn infant would live if prevailing " +
			"patterns of mortality at the time of its birth were to stay the same throughout its life.",
		Dir:         "life-expectancy-at-birth",
		File:        "API_SP.DYN.LE00.IN_DS2_en_csv_v2_10473758.csv",
		Aggregation: AggregationMedian,
	},
	{
		Indicator: IndicatorPopulation,
		Title:     "Population",
		Description: "Population counts all residents regardless of legal status or citizenship. " +
			"The values are midyear estimates.",
		Dir:         "population",
		File:        "API_SP.POP.TOTL_DS2_en_csv_v2_10473719.csv",
		Aggregation: AggregationSum,
	},
	{
		Indicator: IndicatorBirth,
		Title:     "Birth Rate",
		Description: "Birth Rate is the number of live births occurring during the year, " +
			"per 1,000 population estimated at midyear.",
		Dir:         "birth-rate-crude",
		File:        "API_SP.DYN.CBRT.IN_DS2_en_csv_v2_10475710.csv",
		Aggregation: AggregationMedian,
	},
	{
		Indicator: IndicatorDeath,
		Title:     "Death Rate",
		Description: "Death Rate is the number of deaths occurring during the year, " +
			"per 1,000 population estimated at midyear.",
		Dir:         "death-rate-crude",
		File:        "API_SP.DYN.CDRT.IN_DS2_en_csv_v2_10474583.csv",
		Aggregation: AggregationMedian,
	},
}

// Indicators returns every indicator in the fixed pipeline order.
func Indicators() []Indicator {
	out := make([]Indicator, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.Indicator
	}

	return out
}

// Descriptors returns a copy of every descriptor in pipeline order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors[:])

	return out
}

// Describe returns the descriptor of i.
func (i Indicator) Describe() (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Indicator == i {
			return d, true
		}
	}

	return Descriptor{}, false
}

// Valid reports whether i is one of the five known indicators.
func (i Indicator) Valid() bool {
	_, ok := i.Describe()

	return ok
}

func (i Indicator) String() string { return string(i) }

// ParseIndicator accepts an indicator name in any letter case.
func ParseIndicator(s string) (Indicator, error) {
	i := Indicator(strings.ToLower(strings.TrimSpace(s)))
	if !i.Valid() {
		return "", fmt.Errorf("unknown indicator %q", s)
	}

	return i, nil
}
