// Package surface turns a raw option chain into implied volatility data:
// it drives the solver row-wise over the chain, filters quotes, and
// extracts the structures the visualization layer consumes (surface grid,
// smile curves, term structure, summary statistics).
//
// Design notes:
//   - Rows are independent; the batch solve has no cross-row state
//   - A row that fails both solver methods is dropped, not reported
//   - Deterministic given inputs and the floating-point environment
package surface

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/contactkeval/iv-surface/internal/data"
	"github.com/contactkeval/iv-surface/internal/logger"
	"github.com/contactkeval/iv-surface/internal/pricing"
)

//
// ==========================
// Batch solve
// ==========================
//

// SolveChain computes the implied volatility for every quote in the chain.
//
// Each row is attempted with Newton-Raphson first; on failure it is retried
// with the bracketed method. Rows for which both methods fail are excluded
// from the output. Surviving rows keep their input order, each returned as
// a copy with ImpliedVol set.
//
// Parameters:
//   - quotes: option chain rows (mid price, spot, strike, expiry, kind)
//   - riskFreeRate: annual risk-free rate as a decimal (e.g. 0.045)
//
// Returns:
//   - []data.OptionQuote: rows with a valid implied volatility
//
// Callers wanting failure visibility compare row counts before and after.
func SolveChain(quotes []data.OptionQuote, riskFreeRate float64) []data.OptionQuote {
	out := make([]data.OptionQuote, 0, len(quotes))

	for _, q := range quotes {
		iv, ok := pricing.Solve(
			q.MidPrice, q.SpotPrice, q.Strike, q.TimeToExpiration,
			riskFreeRate, q.Type, pricing.Newton,
		)
		if !ok {
			iv, ok = pricing.Solve(
				q.MidPrice, q.SpotPrice, q.Strike, q.TimeToExpiration,
				riskFreeRate, q.Type, pricing.Bisection,
			)
		}
		if !ok {
			logger.Tracef(
				"event=iv_unsolved type=%s strike=%.2f mid=%.2f tte=%.4f",
				q.Type, q.Strike, q.MidPrice, q.TimeToExpiration,
			)
			continue
		}

		q.ImpliedVol = iv
		out = append(out, q)
	}

	logger.Debugf("event=chain_solved in=%d out=%d", len(quotes), len(out))
	return out
}

//
// ==========================
// Quote filtering
// ==========================
//

// FilterQuotes keeps the quotes for which the filter expression evaluates
// to true. The expression sees one quote at a time through these
// parameters:
//
//	volume, open_interest, moneyness, mid_price, strike, spot,
//	days_to_expiration
//
// Example: "volume > 0 && open_interest > 0 && moneyness >= 0.7 && moneyness <= 1.3"
//
// An empty expression keeps everything.
func FilterQuotes(quotes []data.OptionQuote, expression string) ([]data.OptionQuote, error) {
	if expression == "" {
		return quotes, nil
	}

	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	out := make([]data.OptionQuote, 0, len(quotes))
	params := map[string]interface{}{}

	for _, q := range quotes {
		params["volume"] = q.Volume
		params["open_interest"] = q.OpenInterest
		params["moneyness"] = q.Moneyness
		params["mid_price"] = q.MidPrice
		params["strike"] = q.Strike
		params["spot"] = q.SpotPrice
		params["days_to_expiration"] = float64(q.DaysToExpiration)

		result, err := expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("evaluate filter expression: %w", err)
		}

		keep, ok := result.(bool)
		if !ok {
			return nil, fmt.Errorf("filter expression %q is not boolean", expression)
		}
		if keep {
			out = append(out, q)
		}
	}

	logger.Debugf("event=chain_filtered in=%d out=%d expr=%q", len(quotes), len(out), expression)
	return out, nil
}

// FilterIVBand drops solved rows whose implied volatility falls outside
// the (min, max) band. Used after solving to discard outliers before
// surface construction.
func FilterIVBand(quotes []data.OptionQuote, min, max float64) []data.OptionQuote {
	out := make([]data.OptionQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.ImpliedVol > min && q.ImpliedVol < max {
			out = append(out, q)
		}
	}
	return out
}

// ByType returns the quotes of one option kind, preserving order.
func ByType(quotes []data.OptionQuote, optType pricing.OptionType) []data.OptionQuote {
	out := []data.OptionQuote{}
	for _, q := range quotes {
		if q.Type == optType {
			out = append(out, q)
		}
	}
	return out
}
