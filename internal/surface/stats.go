package surface

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/contactkeval/iv-surface/internal/data"
	"github.com/contactkeval/iv-surface/internal/pricing"
)

// ATM quotes are those with moneyness inside [atmLow, atmHigh].
const (
	atmLow  = 0.98
	atmHigh = 1.02
)

// Summary holds descriptive implied volatility statistics for one option
// type of a solved chain. All IV figures are decimals (0.20 = 20%).
type Summary struct {
	Ticker string             `json:"ticker"`
	Type   pricing.OptionType `json:"optionType"`
	Count  int                `json:"count"`
	MeanIV float64            `json:"meanIV"`
	MinIV  float64            `json:"minIV"`
	MaxIV  float64            `json:"maxIV"`
	StdIV  float64            `json:"stdIV"`

	// ATMIV is the mean IV of near-the-money quotes; HasATM reports
	// whether any such quote existed.
	ATMIV  float64 `json:"atmIV"`
	HasATM bool    `json:"hasATM"`
}

// Summarize computes summary statistics for one option type. The second
// return value is false when the chain holds no quotes of that type.
func Summarize(quotes []data.OptionQuote, optType pricing.OptionType) (Summary, bool) {
	typed := ByType(quotes, optType)
	if len(typed) == 0 {
		return Summary{}, false
	}

	ivs := make([]float64, len(typed))
	var atm []float64
	for i, q := range typed {
		ivs[i] = q.ImpliedVol
		if q.Moneyness >= atmLow && q.Moneyness <= atmHigh {
			atm = append(atm, q.ImpliedVol)
		}
	}

	s := Summary{
		Ticker: typed[0].Ticker,
		Type:   optType,
		Count:  len(typed),
		MeanIV: stat.Mean(ivs, nil),
		MinIV:  floats.Min(ivs),
		MaxIV:  floats.Max(ivs),
	}
	if len(ivs) > 1 {
		s.StdIV = stat.StdDev(ivs, nil)
	}
	if len(atm) > 0 {
		s.ATMIV = stat.Mean(atm, nil)
		s.HasATM = true
	}

	return s, true
}
