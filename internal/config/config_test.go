package config_test

import (
	"demography/internal/config"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "data", cfg.Data.Dir)
	require.Equal(t, 2, cfg.Data.PreambleRows)
	require.Equal(t, 3, cfg.Data.TrailingColumns)
	require.Equal(t, 1960, cfg.Data.FirstYear)
	require.Equal(t, "code", cfg.Resolver.Mode)
	require.Empty(t, cfg.Metrics.TextfilePath)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
data:
  dir: /srv/worldbank
  sources:
    population: pop.csv
resolver:
  mode: name
  extraCountries:
    CHI: Channel Islands
  extraDenied:
    - Channel Islands
  extraRenames:
    "Cote d'Ivoire": "Ivory Coast"
metrics:
  textfilePath: /var/lib/node_exporter/demography.prom
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, "/srv/worldbank", cfg.Data.Dir)
	require.Equal(t, map[string]string{"population": "pop.csv"}, cfg.Data.Sources)
	require.Equal(t, 1960, cfg.Data.FirstYear, "defaults fill unset fields")
	require.Equal(t, "name", cfg.Resolver.Mode)
	require.Equal(t, map[string]string{"CHI": "Channel Islands"}, cfg.Resolver.ExtraCountries)
	require.Equal(t, []string{"Channel Islands"}, cfg.Resolver.ExtraDenied)
	require.Equal(t, "Ivory Coast", cfg.Resolver.ExtraRenames["Cote d'Ivoire"])
	require.Equal(t, "/var/lib/node_exporter/demography.prom", cfg.Metrics.TextfilePath)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("RESOLVER_MODE", "name")
	t.Setenv("DATA_FIRST_YEAR", "1970")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "name", cfg.Resolver.Mode)
	require.Equal(t, 1970, cfg.Data.FirstYear)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}
