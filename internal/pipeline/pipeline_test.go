package pipeline_test

import (
	"context"
	"demography/internal/config"
	"demography/internal/loader"
	"demography/internal/pipeline"
	"demography/internal/resolver"
	"demography/pkg/domain"
	"demography/pkg/metrics"
	"demography/pkg/registry"
	"demography/pkg/serrors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testRegistry = registry.Map{ //nolint: gochecknoglobals
	"AFG": "Afghanistan",
	"BHS": "Bahamas",
	"FRA": "France",
	"USA": "United States",
	"ZWE": "Zimbabwe",
}

type row struct {
	name, code string
	values     []string
}

// base rows are present in every export; each indicator then drops or adds
// a few to model independent reporting gaps.
var base = []row{ //nolint: gochecknoglobals
	{"Afghanistan", "AFG", []string{"7.4", "7.5", "7.6"}},
	{"Bahamas, The", "BHS", []string{"4.5", "4.4", "4.3"}},
	{"France", "FRA", []string{"2.8", "2.8", "2.7"}},
	{"United States", "USA", []string{"3.6", "3.5", "3.4"}},
	{"World", "WLD", []string{"5.0", "5.0", "4.9"}},
	{"South Asia", "SAS", []string{"6.0", "6.1", "6.2"}},
	{"Europe & Central Asia", "ECS", []string{"2.6", "2.6", "2.5"}},
}

func render(rows []row) string {
	var b strings.Builder
	b.WriteString("\"Data Source\",\"World Development Indicators\",\n\n")
	b.WriteString("\"Last Updated Date\",\"2018-11-14\",\n\n")
	b.WriteString(`"Country Name","Country Code","Indicator Name","Indicator Code","1960","1961","1962","1963","1964",` + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%q,%q,\"Indicator\",\"CODE\"", r.name, r.code)
		for _, v := range r.values {
			fmt.Fprintf(&b, ",%q", v)
		}
		b.WriteString(`,"","",` + "\n")
	}

	return b.String()
}

// writeExports writes one export per indicator under dir using the default
// layout and returns dir. mutate may alter the rows of an indicator.
func writeExports(t *testing.T, mutate func(domain.Indicator, []row) []row) string {
	t.Helper()

	dir := t.TempDir()
	for _, d := range domain.Descriptors() {
		rows := append([]row(nil), base...)
		if mutate != nil {
			rows = mutate(d.Indicator, rows)
		}
		path := filepath.Join(dir, d.Dir, d.File)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(render(rows)), 0o600))
	}

	return dir
}

// gaps removes France from life expectancy and adds Zimbabwe to population
// only, so neither ends up in the universe.
func gaps(indicator domain.Indicator, rows []row) []row {
	switch indicator {
	case domain.IndicatorLife:
		out := rows[:0]
		for _, r := range rows {
			if r.code != "FRA" {
				out = append(out, r)
			}
		}

		return out
	case domain.IndicatorPopulation:
		return append(rows, row{"Zimbabwe", "ZWE", []string{"3.7", "3.8", "3.9"}})
	default:
		return rows
	}
}

func newPipeline(t *testing.T, mode domain.ResolutionMode, dir string) *pipeline.Pipeline {
	t.Helper()

	res, err := resolver.New(mode, nil, testRegistry)
	require.NoError(t, err)

	return pipeline.New(res, metrics.Nop(), pipeline.Options{Dir: dir, Loader: loader.DefaultOptions()})
}

func TestRun_ByCode(t *testing.T) {
	dir := writeExports(t, gaps)

	snap, err := newPipeline(t, domain.ModeCode, dir).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, domain.ModeCode, snap.Mode)
	require.NotEmpty(t, snap.RunID)
	require.Equal(t, []domain.CountryID{"AFG", "BHS", "USA"}, snap.Codes)
	require.Equal(t, []string{"Afghanistan", "Bahamas", "United States"}, snap.Names)

	require.Len(t, snap.Tables, 5)
	for _, indicator := range domain.Indicators() {
		table, err := snap.Table(indicator)
		require.NoError(t, err)
		require.Equal(t, snap.Codes, table.IDs(), indicator)
		require.Equal(t, domain.YearRange{First: 1960, Last: 1962}, table.Years())
	}

	name, ok := snap.DisplayName("BHS")
	require.True(t, ok)
	require.Equal(t, "Bahamas", name)
}

func TestRun_ByName(t *testing.T) {
	dir := writeExports(t, gaps)

	snap, err := newPipeline(t, domain.ModeName, dir).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []domain.CountryID{"Afghanistan", "The Bahamas", "United States"}, snap.Codes)
	require.Equal(t, []string{"Afghanistan", "The Bahamas", "United States"}, snap.Names)
}

func TestRun_Continents(t *testing.T) {
	dir := writeExports(t, gaps)

	snap, err := newPipeline(t, domain.ModeName, dir).Run(context.Background())
	require.NoError(t, err)

	allowed := resolver.DefaultTables()
	require.Len(t, snap.Continents, 5)
	for indicator, table := range snap.Continents {
		require.Equal(t, []string{"Europe & Central Asia", "South Asia"}, table.Keys(), indicator)
		for _, label := range table.Keys() {
			_, ok := allowed.Continent(label)
			require.True(t, ok)
			for _, id := range snap.Codes {
				require.NotEqual(t, string(id), label)
			}
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	dir := writeExports(t, gaps)
	p := newPipeline(t, domain.ModeCode, dir)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff(first.Codes, second.Codes); diff != "" {
		t.Errorf("codes differ between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Names, second.Names); diff != "" {
		t.Errorf("names differ between runs (-first +second):\n%s", diff)
	}
	require.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_NoCaching(t *testing.T) {
	dir := writeExports(t, nil)
	p := newPipeline(t, domain.ModeCode, dir)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Codes, 4)

	// rewrite one export without the United States
	d, _ := domain.IndicatorDeath.Describe()
	rows := append([]row(nil), base[:3]...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, d.Dir, d.File), []byte(render(rows)), 0o600))

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.CountryID{"AFG", "BHS", "FRA"}, second.Codes)
}

func TestRun_EmptyUniverse(t *testing.T) {
	dir := writeExports(t, func(indicator domain.Indicator, rows []row) []row {
		if indicator == domain.IndicatorBirth {
			return []row{{"World", "WLD", []string{"1", "2", "3"}}}
		}

		return rows
	})

	snap, err := newPipeline(t, domain.ModeCode, dir).Run(context.Background())
	require.Nil(t, snap)
	require.ErrorIs(t, err, serrors.ErrConfiguration)
}

func TestRun_MissingSource(t *testing.T) {
	dir := writeExports(t, nil)
	d, _ := domain.IndicatorPopulation.Describe()
	require.NoError(t, os.Remove(filepath.Join(dir, d.Dir, d.File)))

	_, err := newPipeline(t, domain.ModeCode, dir).Run(context.Background())
	require.ErrorIs(t, err, serrors.ErrNotFound)
}

func TestRun_MalformedSource(t *testing.T) {
	dir := writeExports(t, nil)
	d, _ := domain.IndicatorFertility.Describe()
	require.NoError(t, os.WriteFile(filepath.Join(dir, d.Dir, d.File), []byte("not,an\nexport\n"), 0o600))

	_, err := newPipeline(t, domain.ModeCode, dir).Run(context.Background())
	require.ErrorIs(t, err, serrors.ErrMalformed)
}

func TestRun_RecordsMetrics(t *testing.T) {
	dir := writeExports(t, gaps)
	res, err := resolver.New(domain.ModeCode, nil, testRegistry)
	require.NoError(t, err)
	rec, err := metrics.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Shutdown(context.Background()) })

	_, err = pipeline.New(res, rec, pipeline.Options{Dir: dir, Loader: loader.DefaultOptions()}).
		Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "demography.prom")
	require.NoError(t, rec.WriteTextfile(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), `outcome="unresolved"`)
	require.Contains(t, string(content), "demography_universe_countries")
}

func TestSource(t *testing.T) {
	res, err := resolver.New(domain.ModeCode, nil, testRegistry)
	require.NoError(t, err)
	p := pipeline.New(res, nil, pipeline.Options{
		Dir: "/data",
		Sources: map[domain.Indicator]string{
			domain.IndicatorPopulation: "pop.csv",
			domain.IndicatorBirth:      "/abs/birth.csv",
		},
	})

	d, _ := domain.IndicatorLife.Describe()
	require.Equal(t, filepath.Join("/data", d.Dir, d.File), p.Source(domain.IndicatorLife))
	require.Equal(t, filepath.Join("/data", "pop.csv"), p.Source(domain.IndicatorPopulation))
	require.Equal(t, "/abs/birth.csv", p.Source(domain.IndicatorBirth))
}

func TestNewOptions(t *testing.T) {
	var cfg config.Config
	cfg.Data.Dir = "data"
	cfg.Data.PreambleRows = 2
	cfg.Data.TrailingColumns = 3
	cfg.Data.FirstYear = 1960
	cfg.Data.Sources = map[string]string{"Population": "pop.csv"}

	opts, err := pipeline.NewOptions(&cfg)
	require.NoError(t, err)
	require.Equal(t, "pop.csv", opts.Sources[domain.IndicatorPopulation])
	require.Equal(t, loader.DefaultOptions(), opts.Loader)

	cfg.Data.Sources = map[string]string{"gdp": "gdp.csv"}
	_, err = pipeline.NewOptions(&cfg)
	require.ErrorIs(t, err, serrors.ErrBadRequest)

	cfg.Data.Sources = nil
	cfg.Data.TrailingColumns = -1
	_, err = pipeline.NewOptions(&cfg)
	require.ErrorIs(t, err, serrors.ErrBadRequest)

	cfg.Data.TrailingColumns = 3
	cfg.Data.PreambleRows = -1
	_, err = pipeline.NewOptions(&cfg)
	require.ErrorIs(t, err, serrors.ErrBadRequest)
}

func TestNewResolver(t *testing.T) {
	var cfg config.Config
	cfg.Resolver.Mode = "name"
	cfg.Resolver.ExtraRenames = map[string]string{"Peru": "Republic of Peru"}

	res, err := pipeline.NewResolver(&cfg)
	require.NoError(t, err)
	require.Equal(t, domain.ModeName, res.Mode())
	id, ok := res.Resolve("Peru")
	require.True(t, ok)
	require.Equal(t, domain.CountryID("Republic of Peru"), id)

	cfg.Resolver.Mode = "code"
	cfg.Resolver.ExtraCountries = map[string]string{"CHI": "Channel Islands"}
	res, err = pipeline.NewResolver(&cfg)
	require.NoError(t, err)
	id, ok = res.Resolve("CHI")
	require.True(t, ok)
	require.Equal(t, domain.CountryID("CHI"), id)

	cfg.Resolver.Mode = "iso2"
	_, err = pipeline.NewResolver(&cfg)
	require.ErrorIs(t, err, serrors.ErrBadRequest)
}
