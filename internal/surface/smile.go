package surface

import (
	"sort"

	"github.com/contactkeval/iv-surface/internal/data"
	"github.com/contactkeval/iv-surface/internal/pricing"
)

//
// ==========================
// Volatility smile
// ==========================
//

// SmilePoint is one strike on a smile curve.
type SmilePoint struct {
	Strike float64
	IV     float64
}

// SmileCurve is the implied volatility across strikes for one expiration.
type SmileCurve struct {
	Expiration string
	Days       int
	Points     []SmilePoint
}

// Smiles extracts per-expiration smile curves for one option type, sorted
// by expiration with strike-sorted points. maxCurves limits the number of
// expirations included (0 means all).
func Smiles(quotes []data.OptionQuote, optType pricing.OptionType, maxCurves int) []SmileCurve {
	byExpiry := map[string][]data.OptionQuote{}
	for _, q := range ByType(quotes, optType) {
		byExpiry[q.Expiration] = append(byExpiry[q.Expiration], q)
	}

	expiries := make([]string, 0, len(byExpiry))
	for e := range byExpiry {
		expiries = append(expiries, e)
	}
	sort.Strings(expiries)

	if maxCurves > 0 && len(expiries) > maxCurves {
		expiries = expiries[:maxCurves]
	}

	curves := make([]SmileCurve, 0, len(expiries))
	for _, e := range expiries {
		qs := byExpiry[e]
		sort.Slice(qs, func(i, j int) bool { return qs[i].Strike < qs[j].Strike })

		curve := SmileCurve{Expiration: e, Days: qs[0].DaysToExpiration}
		for _, q := range qs {
			curve.Points = append(curve.Points, SmilePoint{Strike: q.Strike, IV: q.ImpliedVol})
		}
		curves = append(curves, curve)
	}

	return curves
}

//
// ==========================
// Term structure
// ==========================
//

// TermPoint is one expiration on a term structure curve. ActualMoneyness
// records the moneyness of the quote actually selected, which is the
// closest available to the curve's target level.
type TermPoint struct {
	Days            int
	IV              float64
	ActualMoneyness float64
}

// TermCurve is the implied volatility across expirations at a fixed target
// moneyness level.
type TermCurve struct {
	Moneyness float64
	Points    []TermPoint
}

// TermStructure extracts term structure curves for the given moneyness
// levels: for each level and each expiration, the quote with the closest
// moneyness is selected, and points are sorted by days to expiration.
// Expirations with no quotes for the option type contribute nothing.
func TermStructure(quotes []data.OptionQuote, optType pricing.OptionType, levels []float64) []TermCurve {
	typed := ByType(quotes, optType)

	byExpiry := map[string][]data.OptionQuote{}
	for _, q := range typed {
		byExpiry[q.Expiration] = append(byExpiry[q.Expiration], q)
	}
	// Moneyness-sort each expiry once so Closest can binary-search it.
	for _, qs := range byExpiry {
		sort.Slice(qs, func(i, j int) bool { return qs[i].Moneyness < qs[j].Moneyness })
	}

	curves := make([]TermCurve, 0, len(levels))
	for _, level := range levels {
		curve := TermCurve{Moneyness: level}

		for _, qs := range byExpiry {
			ms := make([]float64, len(qs))
			for i, q := range qs {
				ms[i] = q.Moneyness
			}
			m := data.Closest(ms, level)
			best := qs[sort.SearchFloat64s(ms, m)]

			curve.Points = append(curve.Points, TermPoint{
				Days:            best.DaysToExpiration,
				IV:              best.ImpliedVol,
				ActualMoneyness: best.Moneyness,
			})
		}

		sort.Slice(curve.Points, func(i, j int) bool {
			return curve.Points[i].Days < curve.Points[j].Days
		})
		curves = append(curves, curve)
	}

	return curves
}
