// Package report writes the per-ticker IV surface report: the augmented
// chain CSV, summary statistics, interactive HTML surfaces, and static
// smile / term structure plots.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/contactkeval/iv-surface/internal/data"
	"github.com/contactkeval/iv-surface/internal/surface"
)

// MakeReportDir creates and returns the report directory for a ticker,
// named {ticker}_iv_report_{timestamp} under outputDir.
func MakeReportDir(outputDir, ticker string, now time.Time) (string, error) {
	dir := filepath.Join(outputDir, fmt.Sprintf("%s_iv_report_%s", ticker, now.Format("20060102_150405")))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	return dir, nil
}

// WriteChainCSV writes the solved chain to options_data_with_iv.csv.
func WriteChainCSV(quotes []data.OptionQuote, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "options_data_with_iv.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{
		"ticker", "optionType", "strike", "expirationDate", "daysToExpiration",
		"timeToExpiration", "spotPrice", "bid", "ask", "midPrice",
		"volume", "openInterest", "moneyness", "impliedVolatility",
	}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, q := range quotes {
		row := []string{
			q.Ticker,
			string(q.Type),
			fmt.Sprintf("%.2f", q.Strike),
			q.Expiration,
			fmt.Sprintf("%d", q.DaysToExpiration),
			fmt.Sprintf("%.6f", q.TimeToExpiration),
			fmt.Sprintf("%.2f", q.SpotPrice),
			fmt.Sprintf("%.2f", q.Bid),
			fmt.Sprintf("%.2f", q.Ask),
			fmt.Sprintf("%.2f", q.MidPrice),
			fmt.Sprintf("%.0f", q.Volume),
			fmt.Sprintf("%.0f", q.OpenInterest),
			fmt.Sprintf("%.4f", q.Moneyness),
			fmt.Sprintf("%.6f", q.ImpliedVol),
		}
		_ = w.Write(row)
	}
	return nil
}

// WriteSummaryJSON writes summary statistics to summary.json.
func WriteSummaryJSON(summaries []surface.Summary, outdir string) error {
	b, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "summary.json"), b, 0644)
}

// WriteSummaryCSV writes the cross-ticker summary table to path
// (iv_surface_summary.csv in the original layout). IV figures are
// rendered in percent to match the report contract.
func WriteSummaryCSV(summaries []surface.Summary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{"Ticker", "Type", "Count", "Mean IV (%)", "Min IV (%)", "Max IV (%)", "Std IV (%)", "ATM IV (%)"}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, s := range summaries {
		atm := "N/A"
		if s.HasATM {
			atm = fmt.Sprintf("%.2f", s.ATMIV*100)
		}
		row := []string{
			s.Ticker,
			string(s.Type),
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%.2f", s.MeanIV*100),
			fmt.Sprintf("%.2f", s.MinIV*100),
			fmt.Sprintf("%.2f", s.MaxIV*100),
			fmt.Sprintf("%.2f", s.StdIV*100),
			atm,
		}
		_ = w.Write(row)
	}
	return nil
}
