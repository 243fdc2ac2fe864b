package report

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/contactkeval/iv-surface/internal/data"
	"github.com/contactkeval/iv-surface/internal/pricing"
	"github.com/contactkeval/iv-surface/internal/surface"
)

func sampleQuotes() []data.OptionQuote {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	var out []data.OptionQuote
	for _, strike := range []float64{95, 100, 105} {
		for _, days := range []int{30, 60} {
			q := data.NewQuote("NVDA", pricing.Call, strike, now.AddDate(0, 0, days),
				100, 4.9, 5.1, 120, 800, now)
			q.ImpliedVol = 0.25
			out = append(out, q)
		}
	}
	return out
}

func TestMakeReportDir(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)
	base := t.TempDir()

	dir, err := MakeReportDir(base, "NVDA", now)
	if err != nil {
		t.Fatalf("MakeReportDir failed: %v", err)
	}

	want := filepath.Join(base, "NVDA_iv_report_20260830_150405")
	if dir != want {
		t.Fatalf("expected %s, got %s", want, dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("report dir not created: %v", err)
	}
}

func TestWriteChainCSV(t *testing.T) {
	dir := t.TempDir()
	quotes := sampleQuotes()

	if err := WriteChainCSV(quotes, dir); err != nil {
		t.Fatalf("WriteChainCSV failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "options_data_with_iv.csv"))
	if err != nil {
		t.Fatalf("missing chain CSV: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("unreadable chain CSV: %v", err)
	}
	if len(records) != len(quotes)+1 {
		t.Fatalf("expected %d rows, got %d", len(quotes)+1, len(records))
	}
	if len(records[0]) != 14 || records[0][0] != "ticker" || records[0][13] != "impliedVolatility" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "NVDA" || records[1][13] != "0.250000" {
		t.Fatalf("unexpected first data row: %v", records[1])
	}
}

func TestWriteSummaryJSON(t *testing.T) {
	dir := t.TempDir()
	summaries := []surface.Summary{
		{Ticker: "NVDA", Type: pricing.Call, Count: 6, MeanIV: 0.25, MinIV: 0.2, MaxIV: 0.3, StdIV: 0.03, ATMIV: 0.24, HasATM: true},
		{Ticker: "NVDA", Type: pricing.Put, Count: 4, MeanIV: 0.28, MinIV: 0.22, MaxIV: 0.35, StdIV: 0.04},
	}

	if err := WriteSummaryJSON(summaries, dir); err != nil {
		t.Fatalf("WriteSummaryJSON failed: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	if err != nil {
		t.Fatalf("missing summary.json: %v", err)
	}

	var decoded []surface.Summary
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("invalid summary.json: %v", err)
	}
	if len(decoded) != 2 || decoded[0].MeanIV != 0.25 || !decoded[0].HasATM || decoded[1].HasATM {
		t.Fatalf("summary round trip mismatch: %+v", decoded)
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iv_surface_summary.csv")
	summaries := []surface.Summary{
		{Ticker: "NVDA", Type: pricing.Call, Count: 6, MeanIV: 0.25, MinIV: 0.2, MaxIV: 0.3, StdIV: 0.03, ATMIV: 0.241, HasATM: true},
		{Ticker: "TSLA", Type: pricing.Put, Count: 4, MeanIV: 0.5, MinIV: 0.4, MaxIV: 0.6, StdIV: 0.05},
	}

	if err := WriteSummaryCSV(summaries, path); err != nil {
		t.Fatalf("WriteSummaryCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("missing summary CSV: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("unreadable summary CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	// Percent rendering and the N/A ATM marker.
	if records[1][3] != "25.00" || records[1][7] != "24.10" {
		t.Fatalf("unexpected call row: %v", records[1])
	}
	if records[2][7] != "N/A" {
		t.Fatalf("expected N/A ATM for the put row, got %v", records[2])
	}
}

func TestWriteSurfaceHTML(t *testing.T) {
	quotes := sampleQuotes()
	g, err := surface.BuildGrid(quotes, 10)
	if err != nil {
		t.Fatalf("BuildGrid failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "iv_surface_3d_calls.html")
	if err := WriteSurfaceHTML(g, "NVDA", pricing.Call, path); err != nil {
		t.Fatalf("WriteSurfaceHTML failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("missing surface HTML: %v", err)
	}
	html := string(b)
	if !strings.Contains(html, "NVDA Implied Volatility Surface") {
		t.Fatalf("surface HTML missing title")
	}
	if !strings.Contains(html, "echarts") {
		t.Fatalf("surface HTML missing chart runtime")
	}
}

func TestWriteSurfaceHTMLRejectsEmptyGrid(t *testing.T) {
	g := &surface.Grid{
		Strikes: []float64{100},
		Days:    []float64{30},
		IV:      [][]float64{{math.NaN()}},
	}
	path := filepath.Join(t.TempDir(), "empty.html")
	if err := WriteSurfaceHTML(g, "NVDA", pricing.Call, path); err == nil {
		t.Fatalf("expected error for a grid with no supported cells")
	}
}

func TestWriteSmilePNG(t *testing.T) {
	curves := surface.Smiles(sampleQuotes(), pricing.Call, 4)
	if len(curves) == 0 {
		t.Fatalf("no curves to plot")
	}

	path := filepath.Join(t.TempDir(), "volatility_smile_calls.png")
	if err := WriteSmilePNG(curves, "NVDA", pricing.Call, path); err != nil {
		t.Fatalf("WriteSmilePNG failed: %v", err)
	}
	assertNonEmptyFile(t, path)

	if err := WriteSmilePNG(nil, "NVDA", pricing.Call, path); err == nil {
		t.Fatalf("expected error for empty curve set")
	}
}

func TestWriteTermStructurePNG(t *testing.T) {
	curves := surface.TermStructure(sampleQuotes(), pricing.Call, []float64{0.95, 1.0, 1.05})
	path := filepath.Join(t.TempDir(), "term_structure_calls.png")

	if err := WriteTermStructurePNG(curves, "NVDA", pricing.Call, path); err != nil {
		t.Fatalf("WriteTermStructurePNG failed: %v", err)
	}
	assertNonEmptyFile(t, path)

	if err := WriteTermStructurePNG(nil, "NVDA", pricing.Call, path); err == nil {
		t.Fatalf("expected error for empty curve set")
	}
}

func assertNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("missing file %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Fatalf("file %s is empty", path)
	}
}
