// Command iv-surface fetches an underlying's option chain, computes
// Black-Scholes implied volatilities, and writes a volatility surface
// report (3D surface, smile, term structure) per ticker.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/contactkeval/iv-surface/internal/config"
	"github.com/contactkeval/iv-surface/internal/data"
	"github.com/contactkeval/iv-surface/internal/logger"
	"github.com/contactkeval/iv-surface/internal/pricing"
	"github.com/contactkeval/iv-surface/internal/report"
	"github.com/contactkeval/iv-surface/internal/surface"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	tickers := flag.String("tickers", "", "comma-separated tickers (overrides config)")
	rate := flag.Float64("rate", -1, "risk-free rate override (decimal, e.g. 0.045)")
	output := flag.String("output", "", "output directory (overrides config)")
	verbosity := flag.Int("v", -1, "log verbosity: 0=error 1=info 2=debug 3=trace")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *tickers != "" {
		cfg.Tickers = splitTickers(*tickers)
	}
	if *rate >= 0 {
		cfg.RiskFreeRate = *rate
	}
	if *output != "" {
		cfg.OutputDir = *output
	}
	if *verbosity >= 0 {
		cfg.Logging.Verbosity = *verbosity
	}
	logger.SetVerbosity(cfg.Logging.Verbosity)

	prov := chooseProvider(cfg)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatalf("creating output dir %s: %v", cfg.OutputDir, err)
	}

	// Risk-free rate: one fetch per batch, config fallback on failure.
	riskFreeRate, err := prov.GetRiskFreeRate()
	if err != nil {
		logger.Infof("risk-free rate unavailable (%v), using %.2f%%", err, cfg.RiskFreeRate*100)
		riskFreeRate = cfg.RiskFreeRate
	}
	logger.Infof("risk-free rate: %.2f%%", riskFreeRate*100)

	start := time.Now()
	var allSummaries []surface.Summary

	for _, ticker := range cfg.Tickers {
		summaries, err := processTicker(ticker, prov, riskFreeRate, cfg)
		if err != nil {
			logger.Errorf("processing %s failed: %v", ticker, err)
			continue
		}
		allSummaries = append(allSummaries, summaries...)
	}

	if len(allSummaries) == 0 {
		log.Fatalf("no ticker produced a surface")
	}

	summaryPath := filepath.Join(cfg.OutputDir, "iv_surface_summary.csv")
	if err := report.WriteSummaryCSV(allSummaries, summaryPath); err != nil {
		logger.Errorf("writing summary csv: %v", err)
	}

	printSummary(allSummaries)
	logger.Infof("finished in %v, reports under %s", time.Since(start), cfg.OutputDir)
}

// processTicker runs the full pipeline for one underlying: spot, chain,
// filter, solve, surface, report. Returns the per-type summaries.
func processTicker(
	ticker string,
	prov data.Provider,
	riskFreeRate float64,
	cfg *config.Config,
) ([]surface.Summary, error) {

	logger.Infof("processing %s", ticker)

	spot, err := prov.GetSpotPrice(ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch spot price: %w", err)
	}
	logger.Infof("%s spot price: $%.2f", ticker, spot)

	chain, err := prov.GetOptionChain(ticker, spot)
	if err != nil {
		return nil, fmt.Errorf("fetch option chain: %w", err)
	}
	logger.Infof("%s chain: %d contracts, %d expirations", ticker, len(chain), len(data.Expiries(chain)))

	filtered, err := surface.FilterQuotes(chain, cfg.FilterExpression)
	if err != nil {
		return nil, fmt.Errorf("filter chain: %w", err)
	}

	solved := surface.SolveChain(filtered, riskFreeRate)
	logger.Infof("%s: solved IV for %d of %d contracts", ticker, len(solved), len(filtered))

	solved = surface.FilterIVBand(solved, cfg.MinIV, cfg.MaxIV)
	if len(solved) == 0 {
		return nil, fmt.Errorf("no contracts survived solving and outlier filtering")
	}

	reportDir, err := report.MakeReportDir(cfg.OutputDir, ticker, time.Now())
	if err != nil {
		return nil, err
	}

	if err := report.WriteChainCSV(solved, reportDir); err != nil {
		return nil, fmt.Errorf("write chain csv: %w", err)
	}

	var summaries []surface.Summary
	for _, optType := range []pricing.OptionType{pricing.Call, pricing.Put} {
		typed := surface.ByType(solved, optType)
		if len(typed) == 0 {
			continue
		}

		if g, err := surface.BuildGrid(typed, cfg.GridSize); err != nil {
			logger.Debugf("%s %ss: no surface grid: %v", ticker, optType, err)
		} else {
			htmlPath := filepath.Join(reportDir, fmt.Sprintf("%s_surface_interactive.html", optType))
			if err := report.WriteSurfaceHTML(g, ticker, optType, htmlPath); err != nil {
				logger.Errorf("%s %ss surface chart: %v", ticker, optType, err)
			}
		}

		smiles := surface.Smiles(solved, optType, 4)
		smilePath := filepath.Join(reportDir, fmt.Sprintf("volatility_smile_%s.png", optType))
		if err := report.WriteSmilePNG(smiles, ticker, optType, smilePath); err != nil {
			logger.Errorf("%s %ss smile plot: %v", ticker, optType, err)
		}

		terms := surface.TermStructure(solved, optType, cfg.MoneynessLevels)
		termPath := filepath.Join(reportDir, fmt.Sprintf("term_structure_%s.png", optType))
		if err := report.WriteTermStructurePNG(terms, ticker, optType, termPath); err != nil {
			logger.Errorf("%s %ss term structure plot: %v", ticker, optType, err)
		}

		if s, ok := surface.Summarize(solved, optType); ok {
			summaries = append(summaries, s)
		}
	}

	if err := report.WriteSummaryJSON(summaries, reportDir); err != nil {
		logger.Errorf("write summary json: %v", err)
	}

	logger.Infof("%s report written to %s", ticker, reportDir)
	return summaries, nil
}

// chooseProvider picks the market data source: explicit config first, then
// massive when an API key is present, synthetic otherwise.
func chooseProvider(cfg *config.Config) data.Provider {
	switch cfg.Provider {
	case "massive":
		return data.NewMassiveDataProvider(cfg.APIKey)
	case "synthetic":
		return data.NewSyntheticProvider()
	case "csv":
		return data.NewLocalCSVProvider(cfg.ChainFile, data.NewSyntheticProvider())
	}

	if cfg.APIKey != "" {
		logger.Infof("massive provider enabled")
		return data.NewMassiveDataProvider(cfg.APIKey)
	}
	logger.Infof("synthetic provider enabled (no API key)")
	return data.NewSyntheticProvider()
}

// printSummary renders the cross-ticker summary table to stdout.
func printSummary(summaries []surface.Summary) {
	header := color.New(color.FgCyan, color.Bold)
	header.Printf("\n%-8s %-6s %7s %10s %10s %10s %10s %10s\n",
		"Ticker", "Type", "Count", "Mean IV%", "Min IV%", "Max IV%", "Std IV%", "ATM IV%")

	green := color.New(color.FgGreen)
	for _, s := range summaries {
		atm := "N/A"
		if s.HasATM {
			atm = fmt.Sprintf("%.2f", s.ATMIV*100)
		}
		green.Printf("%-8s %-6s %7d %10.2f %10.2f %10.2f %10.2f %10s\n",
			s.Ticker, s.Type, s.Count,
			s.MeanIV*100, s.MinIV*100, s.MaxIV*100, s.StdIV*100, atm)
	}
}

func splitTickers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(strings.ToUpper(p)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
