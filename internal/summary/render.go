package summary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

const numberFormat = "#,###.##"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1) //nolint: gochecknoglobals
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)            //nolint: gochecknoglobals
)

// Render formats digests as two terminal tables: one row per indicator with
// its world figures, then the continent ranking of each indicator.
func Render(digests []IndicatorDigest) string {
	if len(digests) == 0 {
		return ""
	}

	world := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(style).
		Headers("Indicator", "Year", "Countries", "World", "Mean", "Min", "Max", "Histogram")
	for _, d := range digests {
		world.Row(
			title(d),
			fmt.Sprint(d.Year),
			fmt.Sprint(d.Countries),
			fmt.Sprintf("%s (%s)", Number(d.World), d.Aggregation),
			Number(d.Mean),
			Number(d.Extent.Min),
			Number(d.Extent.Max),
			counts(d.Histogram.Counts),
		)
	}

	var b strings.Builder
	b.WriteString(world.String())
	b.WriteString("\n")

	for _, d := range digests {
		if len(d.Continents) == 0 {
			continue
		}
		ranking := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(style).
			Headers("#", title(d), "Value")
		for i, c := range d.Continents {
			ranking.Row(fmt.Sprint(i+1), c.Label, Number(c.Value))
		}
		b.WriteString(ranking.String())
		b.WriteString("\n")
	}

	return b.String()
}

// Number formats v with thousands separators and at most two decimals.
func Number(v float64) string {
	return humanize.FormatFloat(numberFormat, v)
}

func title(d IndicatorDigest) string {
	if d.Log {
		return d.Title + " (log)"
	}

	return d.Title
}

func counts(c []int) string {
	parts := make([]string, len(c))
	for i, n := range c {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, " ")
}

func style(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}

	return cellStyle
}
