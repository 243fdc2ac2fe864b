// Package config loads the run configuration from YAML with sane defaults
// and environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Default values used when the config file omits a field or no file is
// given at all.
const (
	DefaultRiskFreeRate = 0.045 // fallback when the provider cannot supply a rate
	DefaultOutputDir    = "iv_surface_output"
	DefaultGridSize     = 50
	DefaultMinIV        = 0.05 // post-solve outlier band (decimals)
	DefaultMaxIV        = 3.0
	DefaultFilter       = "volume > 0 && open_interest > 0 && moneyness >= 0.7 && moneyness <= 1.3"
)

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Verbosity int `yaml:"verbosity"` // 0=error 1=info 2=debug 3=trace
}

// Config is the full run configuration.
type Config struct {
	// Tickers to process, in order.
	Tickers []string `yaml:"tickers"`

	// Provider selects the market data source: "massive", "synthetic",
	// or "csv". Empty means auto: massive when POLYGON_API_KEY is set,
	// synthetic otherwise.
	Provider string `yaml:"provider"`

	// ChainFile is the chain CSV path for the "csv" provider.
	ChainFile string `yaml:"chain_file"`

	// RiskFreeRate is the fallback annual rate (decimal) used when the
	// provider cannot supply one.
	RiskFreeRate float64 `yaml:"risk_free_rate"`

	// OutputDir is where per-ticker report directories are created.
	OutputDir string `yaml:"output_dir"`

	// FilterExpression is evaluated per chain row before solving;
	// rows evaluating false are dropped. Empty keeps everything.
	FilterExpression string `yaml:"filter_expression"`

	// MinIV/MaxIV bound the post-solve outlier filter (decimals).
	MinIV float64 `yaml:"min_iv"`
	MaxIV float64 `yaml:"max_iv"`

	// GridSize is the surface grid resolution per axis.
	GridSize int `yaml:"grid_size"`

	// MoneynessLevels are the K/S levels of the term structure plot.
	MoneynessLevels []float64 `yaml:"moneyness_levels"`

	// APIKey for the massive provider. The POLYGON_API_KEY environment
	// variable overrides this.
	APIKey string `yaml:"api_key"`

	Logging LoggingConfig `yaml:"logging"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Tickers:          []string{"NVDA", "GOOGL", "COIN", "TSLA"},
		RiskFreeRate:     DefaultRiskFreeRate,
		OutputDir:        DefaultOutputDir,
		FilterExpression: DefaultFilter,
		MinIV:            DefaultMinIV,
		MaxIV:            DefaultMaxIV,
		GridSize:         DefaultGridSize,
		MoneynessLevels:  []float64{0.9, 0.95, 1.0, 1.05, 1.1},
		Logging:          LoggingConfig{Verbosity: 1},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns defaults (with environment overrides) directly.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	// Environment overrides.
	if key := os.Getenv("POLYGON_API_KEY"); key != "" {
		cfg.APIKey = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if len(cfg.Tickers) == 0 {
		return fmt.Errorf("config: no tickers")
	}
	if cfg.RiskFreeRate < 0 || cfg.RiskFreeRate > 1 {
		return fmt.Errorf("config: risk_free_rate %.4f must be a decimal in [0,1]", cfg.RiskFreeRate)
	}
	if cfg.MinIV >= cfg.MaxIV {
		return fmt.Errorf("config: min_iv %.2f must be below max_iv %.2f", cfg.MinIV, cfg.MaxIV)
	}
	if cfg.GridSize < 2 {
		return fmt.Errorf("config: grid_size %d must be at least 2", cfg.GridSize)
	}
	if cfg.Provider == "csv" && cfg.ChainFile == "" {
		return fmt.Errorf("config: csv provider requires chain_file")
	}
	return nil
}
