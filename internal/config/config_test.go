package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Tickers) == 0 {
		t.Fatalf("defaults must name tickers")
	}
	if cfg.RiskFreeRate != DefaultRiskFreeRate {
		t.Fatalf("expected default rate %f, got %f", DefaultRiskFreeRate, cfg.RiskFreeRate)
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Fatalf("expected default output dir %q, got %q", DefaultOutputDir, cfg.OutputDir)
	}
	if cfg.GridSize != DefaultGridSize {
		t.Fatalf("expected default grid size %d, got %d", DefaultGridSize, cfg.GridSize)
	}
	if cfg.MinIV != DefaultMinIV || cfg.MaxIV != DefaultMaxIV {
		t.Fatalf("expected default IV band [%f, %f], got [%f, %f]",
			DefaultMinIV, DefaultMaxIV, cfg.MinIV, cfg.MaxIV)
	}
	if cfg.FilterExpression != DefaultFilter {
		t.Fatalf("unexpected default filter: %q", cfg.FilterExpression)
	}
	if len(cfg.MoneynessLevels) != 5 {
		t.Fatalf("unexpected default moneyness levels: %v", cfg.MoneynessLevels)
	}
	if cfg.APIKey != "" {
		t.Fatalf("expected empty API key, got %q", cfg.APIKey)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")

	path := writeConfig(t, strings.TrimSpace(`
tickers:
  - AAPL
risk_free_rate: 0.03
output_dir: out
grid_size: 25
min_iv: 0.02
max_iv: 2.0
provider: synthetic
logging:
  verbosity: 2
`))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Tickers) != 1 || cfg.Tickers[0] != "AAPL" {
		t.Fatalf("unexpected tickers: %v", cfg.Tickers)
	}
	if cfg.RiskFreeRate != 0.03 || cfg.OutputDir != "out" || cfg.GridSize != 25 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.MinIV != 0.02 || cfg.MaxIV != 2.0 {
		t.Fatalf("IV band not applied: [%f, %f]", cfg.MinIV, cfg.MaxIV)
	}
	if cfg.Provider != "synthetic" {
		t.Fatalf("provider not applied: %q", cfg.Provider)
	}
	if cfg.Logging.Verbosity != 2 {
		t.Fatalf("verbosity not applied: %d", cfg.Logging.Verbosity)
	}
	// Untouched fields keep their defaults.
	if cfg.FilterExpression != DefaultFilter {
		t.Fatalf("filter default lost: %q", cfg.FilterExpression)
	}
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "env-key")

	path := writeConfig(t, "api_key: file-key\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Fatalf("expected environment to win, got %q", cfg.APIKey)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")

	cases := []struct {
		name     string
		contents string
	}{
		{"no tickers", "tickers: []\n"},
		{"bad rate", "risk_free_rate: 1.5\n"},
		{"inverted band", "min_iv: 3.0\nmax_iv: 0.05\n"},
		{"tiny grid", "grid_size: 1\n"},
		{"csv without file", "provider: csv\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, c.contents)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for a missing config file")
	}
}
