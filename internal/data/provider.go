package data

import (
	"math"
	"sort"
	"time"

	"github.com/contactkeval/iv-surface/internal/pricing"
)

// Provider supplies market data: the underlying spot price, the raw option
// chain, and the risk-free rate. Implementations may delegate to a
// secondary provider when they cannot serve a request themselves.
type Provider interface {
	Secondary() Provider
	GetSpotPrice(ticker string) (float64, error)
	GetOptionChain(ticker string, spot float64) ([]OptionQuote, error)
	GetRiskFreeRate() (float64, error)
}

// OptionQuote is one option contract row as consumed by the solver and the
// surface builder. Quotes are value types: constructed once from upstream
// market data, never mutated. The batch driver returns fresh copies with
// ImpliedVol set.
type OptionQuote struct {
	Ticker           string             `json:"ticker"`
	Type             pricing.OptionType `json:"optionType"`
	Strike           float64            `json:"strike"`
	Expiration       string             `json:"expirationDate"` // YYYY-MM-DD
	DaysToExpiration int                `json:"daysToExpiration"`
	TimeToExpiration float64            `json:"timeToExpiration"` // years
	SpotPrice        float64            `json:"spotPrice"`
	Bid              float64            `json:"bid"`
	Ask              float64            `json:"ask"`
	MidPrice         float64            `json:"midPrice"`
	Volume           float64            `json:"volume"`
	OpenInterest     float64            `json:"openInterest"`
	Moneyness        float64            `json:"moneyness"` // K/S
	ImpliedVol       float64            `json:"impliedVolatility,omitempty"`
}

// NewQuote assembles an OptionQuote from raw chain fields, filling in the
// derived fields (mid price, days/years to expiration, moneyness) the same
// way for every provider.
func NewQuote(
	ticker string,
	optType pricing.OptionType,
	strike float64,
	expiry time.Time,
	spot, bid, ask, volume, openInterest float64,
	now time.Time,
) OptionQuote {

	days := int(expiry.Sub(now).Hours() / 24)

	q := OptionQuote{
		Ticker:           ticker,
		Type:             optType,
		Strike:           strike,
		Expiration:       expiry.Format("2006-01-02"),
		DaysToExpiration: days,
		TimeToExpiration: float64(days) / 365.0,
		SpotPrice:        spot,
		Bid:              bid,
		Ask:              ask,
		MidPrice:         (bid + ask) / 2,
		Volume:           volume,
		OpenInterest:     openInterest,
	}
	if spot > 0 {
		q.Moneyness = strike / spot
	}
	return q
}

// Expiries returns the unique expiration dates present in the chain,
// sorted ascending.
func Expiries(quotes []OptionQuote) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, q := range quotes {
		if !seen[q.Expiration] {
			seen[q.Expiration] = true
			out = append(out, q.Expiration)
		}
	}
	sort.Strings(out)
	return out
}

// Closest finds the closest float64 in a sorted slice to the target value
// using binary search (sort.Search).
func Closest(numList []float64, target float64) float64 {
	n := len(numList)
	if n == 0 {
		panic("empty list")
	}

	i := sort.Search(n, func(i int) bool {
		return numList[i] >= target
	})

	if i == 0 {
		return numList[0]
	}
	if i == n {
		return numList[n-1]
	}

	before := numList[i-1]
	after := numList[i]

	if math.Abs(before-target) < math.Abs(after-target) {
		return before
	}
	return after
}
