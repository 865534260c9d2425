package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, the indicator sources, country
// resolution and metrics output.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// Data locates and describes the World Bank exports
	Data struct {
		// Dir is the root directory of the exports
		Dir string `env:"DATA_DIR" env-default:"data" yaml:"dir"`
		// Sources overrides the path of individual indicators, keyed by indicator name
		// (fertility, life, population, birth, death). Relative paths are resolved against Dir.
		Sources map[string]string `env:"DATA_SOURCES" yaml:"sources"`
		// PreambleRows is the number of records preceding the header
		PreambleRows int `env:"DATA_PREAMBLE_ROWS" env-default:"2" yaml:"preambleRows"`
		// TrailingColumns is the number of rightmost columns to drop
		TrailingColumns int `env:"DATA_TRAILING_COLUMNS" env-default:"3" yaml:"trailingColumns"`
		// FirstYear is the first year column kept
		FirstYear int `env:"DATA_FIRST_YEAR" env-default:"1960" yaml:"firstYear"`
	} `yaml:"data"`

	// Resolver controls how raw rows map to country identifiers
	Resolver struct {
		// Mode is either "code" (ISO alpha-3) or "name" (canonical country name)
		Mode string `env:"RESOLVER_MODE" env-default:"code" yaml:"mode"`
		// ExtraCountries adds codes the ISO registry does not know (e.g. CHI: Channel Islands)
		ExtraCountries map[string]string `env:"RESOLVER_EXTRA_COUNTRIES" yaml:"extraCountries"`
		// ExtraDenied adds aggregate labels that must never resolve to a country
		ExtraDenied []string `env:"RESOLVER_EXTRA_DENIED" yaml:"extraDenied"`
		// ExtraRenames adds or overrides spellings used in name mode
		ExtraRenames map[string]string `env:"RESOLVER_EXTRA_RENAMES" yaml:"extraRenames"`
	} `yaml:"resolver"`

	// Metrics controls where run metrics are written
	Metrics struct {
		// TextfilePath is the Prometheus textfile written after each run; empty disables it
		TextfilePath string `env:"METRICS_TEXTFILE_PATH" yaml:"textfilePath"`
	} `yaml:"metrics"`
}

// Load receives the path for yaml config file and returns a filled Config struct.
// An empty path reads the environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read config from env: %w", err)
		}

		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}
