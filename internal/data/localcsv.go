package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/contactkeval/iv-surface/internal/logger"
	"github.com/contactkeval/iv-surface/internal/pricing"
)

// localCSVProvider implements Provider from a local chain CSV file,
// useful for replaying a previously captured chain without API access.
//
// Expected header:
//
//	ticker,optionType,strike,expirationDate,spotPrice,bid,ask,volume,openInterest
type localCSVProvider struct {
	path      string
	secondary Provider
}

// NewLocalCSVProvider convenience constructor.
func NewLocalCSVProvider(path string, secondary Provider) *localCSVProvider {
	return &localCSVProvider{path: path, secondary: secondary}
}

func (localCSVProv *localCSVProvider) Secondary() Provider {
	return localCSVProv.secondary
}

// GetSpotPrice reads the spotPrice column of the first row matching the
// ticker; all rows of a capture carry the same spot.
func (localCSVProv *localCSVProvider) GetSpotPrice(ticker string) (float64, error) {
	rows, err := localCSVProv.readRows(ticker)
	if err != nil || len(rows) == 0 {
		if localCSVProv.secondary != nil {
			return localCSVProv.secondary.GetSpotPrice(ticker)
		}
		if err == nil {
			err = fmt.Errorf("no rows for %s in %s", ticker, localCSVProv.path)
		}
		return 0, err
	}
	return rows[0].SpotPrice, nil
}

func (localCSVProv *localCSVProvider) GetOptionChain(ticker string, spot float64) ([]OptionQuote, error) {
	rows, err := localCSVProv.readRows(ticker)
	if err != nil || len(rows) == 0 {
		if localCSVProv.secondary != nil {
			return localCSVProv.secondary.GetOptionChain(ticker, spot)
		}
		if err == nil {
			err = fmt.Errorf("no rows for %s in %s", ticker, localCSVProv.path)
		}
		return nil, err
	}
	return rows, nil
}

func (localCSVProv *localCSVProvider) GetRiskFreeRate() (float64, error) {
	if localCSVProv.secondary != nil {
		return localCSVProv.secondary.GetRiskFreeRate()
	}
	return 0, fmt.Errorf("GetRiskFreeRate not implemented for localCSVProvider")
}

// readRows parses the chain file and returns the quotes for one ticker.
func (localCSVProv *localCSVProvider) readRows(ticker string) ([]OptionQuote, error) {
	f, err := os.Open(localCSVProv.path)
	if err != nil {
		return nil, fmt.Errorf("open chain file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read chain file: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("chain file %s has no data rows", localCSVProv.path)
	}

	// Map header names to column indexes so column order is free.
	col := map[string]int{}
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{
		"ticker", "optionType", "strike", "expirationDate",
		"spotPrice", "bid", "ask", "volume", "openInterest",
	} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("chain file missing column %q", required)
		}
	}

	now := time.Now().UTC()
	out := []OptionQuote{}

	for i, rec := range records[1:] {
		if rec[col["ticker"]] != ticker {
			continue
		}

		expiry, err := time.Parse("2006-01-02", rec[col["expirationDate"]])
		if err != nil {
			logger.Debugf("skipping row %d: bad expiration %q", i+2, rec[col["expirationDate"]])
			continue
		}

		num := func(name string) float64 {
			v, _ := strconv.ParseFloat(strings.TrimSpace(rec[col[name]]), 64)
			return v
		}

		optType := pricing.Call
		if strings.EqualFold(rec[col["optionType"]], string(pricing.Put)) {
			optType = pricing.Put
		}

		out = append(out, NewQuote(
			ticker,
			optType,
			num("strike"),
			expiry,
			num("spotPrice"),
			num("bid"),
			num("ask"),
			num("volume"),
			num("openInterest"),
			now,
		))
	}

	return out, nil
}
