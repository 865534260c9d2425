package export_test

import (
	"bytes"
	"demography/pkg/domain"
	"demography/pkg/export"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/require"
)

type document struct {
	RunID     string `json:"runId"`
	Mode      string `json:"mode"`
	LoadedAt  string `json:"loadedAt"`
	Countries []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"countries"`
	Indicators []struct {
		Indicator   string `json:"indicator"`
		Title       string `json:"title"`
		Aggregation string `json:"aggregation"`
		Years       struct {
			First int `json:"first"`
			Last  int `json:"last"`
		} `json:"years"`
		Rows       [][]*float64 `json:"rows"`
		Mean       []*float64   `json:"mean"`
		Continents []struct {
			Label  string     `json:"label"`
			Values []*float64 `json:"values"`
		} `json:"continents"`
	} `json:"indicators"`
}

func snapshot(t *testing.T) *domain.Snapshot {
	t.Helper()

	years := domain.YearRange{First: 1960, Last: 1961}
	s := &domain.Snapshot{
		RunID:      "run-1",
		Mode:       domain.ModeCode,
		LoadedAt:   time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Tables:     map[domain.Indicator]*domain.IndicatorTable{},
		Continents: map[domain.Indicator]*domain.ContinentTable{},
		Codes:      []domain.CountryID{"AFG", "USA"},
		Names:      []string{"Afghanistan", "United States"},
	}
	for _, indicator := range domain.Indicators() {
		table, err := domain.NewIndicatorTable(indicator, years, map[domain.CountryID][]float64{
			"USA": {3.5, 3.25},
			"AFG": {7.5, math.NaN()},
		})
		require.NoError(t, err)
		s.Tables[indicator] = table

		continents, err := domain.NewContinentTable(indicator, years, map[string][]float64{
			"South Asia":    {6, 6.5},
			"North America": {3, 3},
		})
		require.NoError(t, err)
		s.Continents[indicator] = continents
	}

	return s
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Encode(&buf, snapshot(t)))
	require.NoError(t, jx.DecodeBytes(buf.Bytes()).Validate())

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	require.Equal(t, "run-1", doc.RunID)
	require.Equal(t, "code", doc.Mode)
	require.Equal(t, "2026-10-18T12:00:00Z", doc.LoadedAt)
	require.Len(t, doc.Countries, 2)
	require.Equal(t, "AFG", doc.Countries[0].ID)
	require.Equal(t, "United States", doc.Countries[1].Name)

	require.Len(t, doc.Indicators, 5)
	for i, indicator := range domain.Indicators() {
		require.Equal(t, indicator.String(), doc.Indicators[i].Indicator)
	}

	population := doc.Indicators[2]
	require.Equal(t, "sum", population.Aggregation)
	require.Equal(t, 1960, population.Years.First)
	require.Equal(t, 1961, population.Years.Last)
	require.Len(t, population.Rows, 2)
	require.InDelta(t, 7.5, *population.Rows[0][0], 1e-9)
	require.Nil(t, population.Rows[0][1])
	require.InDelta(t, 3.25, *population.Rows[1][1], 1e-9)

	// 1961 holds a NaN, so its mean is not finite either
	require.Len(t, population.Mean, 2)
	require.InDelta(t, 5.5, *population.Mean[0], 1e-9)
	require.Nil(t, population.Mean[1])

	require.Len(t, population.Continents, 2)
	require.Equal(t, "North America", population.Continents[0].Label)
	require.InDelta(t, 6.5, *population.Continents[1].Values[1], 1e-9)
}

func TestEncode_Deterministic(t *testing.T) {
	s := snapshot(t)

	var first, second bytes.Buffer
	require.NoError(t, export.Encode(&first, s))
	require.NoError(t, export.Encode(&second, s))
	require.Equal(t, first.String(), second.String())
}

func TestEncode_Invalid(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, export.Encode(&buf, nil))

	s := snapshot(t)
	s.Names = s.Names[:1]
	require.Error(t, export.Encode(&buf, s))

	s = snapshot(t)
	s.Codes = append(s.Codes, "FRA")
	s.Names = append(s.Names, "France")
	require.Error(t, export.Encode(&buf, s))
	require.Zero(t, buf.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncode_WriteError(t *testing.T) {
	err := export.Encode(failingWriter{}, snapshot(t))
	require.ErrorContains(t, err, "disk full")
}
