package data

import (
	"math"
	"math/rand"
	"time"

	"github.com/contactkeval/iv-surface/internal/pricing"
)

// synthDataProvider implements Provider generating a synthetic option chain.
// It exists for offline runs and tests: every quote is priced through the
// Black-Scholes model from a smile-shaped volatility, so the solver should
// recover that volatility from the mid price.
type synthDataProvider struct {
	secondary Provider
}

func NewSyntheticProvider() Provider { return &synthDataProvider{} }

func (synthDataProv *synthDataProvider) Secondary() Provider {
	return synthDataProv.secondary
}

func (synthDataProv *synthDataProvider) GetSpotPrice(ticker string) (float64, error) {
	if synthDataProv.secondary != nil {
		return synthDataProv.secondary.GetSpotPrice(ticker)
	}
	return 100.0 + float64(rand.Intn(200)), nil
}

// GetOptionChain builds calls and puts across a moneyness band of 0.7 to
// 1.3 and four expiries. smileVol supplies the volatility per contract.
func (synthDataProv *synthDataProvider) GetOptionChain(ticker string, spot float64) ([]OptionQuote, error) {
	if synthDataProv.secondary != nil {
		return synthDataProv.secondary.GetOptionChain(ticker, spot)
	}

	const rate = 0.045
	now := time.Now().UTC()
	var out []OptionQuote

	for _, days := range []int{30, 60, 90, 180} {
		expiry := now.AddDate(0, 0, days)
		T := float64(days) / 365.0

		for m := 0.70; m <= 1.301; m += 0.05 {
			strike := math.Round(spot*m*100) / 100
			sigma := smileVol(strike/spot, T)

			for _, optType := range []pricing.OptionType{pricing.Call, pricing.Put} {
				price := pricing.Price(optType, spot, strike, T, rate, sigma)
				if price < 0.01 {
					continue // no market in worthless contracts
				}
				// Deep-ITM European puts price below max(K-S, 0); such
				// quotes can never pass the solver's intrinsic check.
				if price <= pricing.Intrinsic(optType, spot, strike) {
					continue
				}
				// Symmetric spread keeps the midpoint on the model price.
				spread := math.Max(0.01, price*0.01)
				out = append(out, NewQuote(
					ticker,
					optType,
					strike,
					expiry,
					spot,
					price-spread,
					price+spread,
					float64(10+rand.Intn(500)),
					float64(10+rand.Intn(2000)),
					now,
				))
			}
		}
	}

	return out, nil
}

func (synthDataProv *synthDataProvider) GetRiskFreeRate() (float64, error) {
	if synthDataProv.secondary != nil {
		return synthDataProv.secondary.GetRiskFreeRate()
	}
	return 0.045, nil
}

// smileVol produces a volatility with a smile across moneyness and a mild
// upward term structure, bounded well inside the solver's accepted band.
func smileVol(moneyness, T float64) float64 {
	base := 0.20
	smile := 0.10 * math.Abs(math.Log(moneyness))
	term := 0.05 * math.Sqrt(T)
	return base + smile + term
}
