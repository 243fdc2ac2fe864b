// Package pricing implements closed-form Black-Scholes valuation and the
// implied volatility solver built on top of it.
//
// The pricing functions are pure: deterministic outputs for given inputs,
// no side effects, no shared state. Input validation is the caller's
// responsibility for Price and Vega; Solve validates eagerly.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// OptionType identifies the option kind. Only two kinds exist; the string
// values match the "optionType" field used in chain CSV/JSON records.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// stdNormal is the standard normal distribution used for Φ and φ.
var stdNormal = distuv.UnitNormal

// Price calculates the price of a European option using the Black-Scholes
// model.
//
// Parameters:
//   - optType: Call or Put
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual, decimal)
//   - sigma: volatility of the underlying asset (annual, decimal)
//
// Returns:
//
//	The theoretical price of the option. If time to expiry is zero or
//	negative the price collapses to intrinsic value exactly, with no
//	volatility dependence.
func Price(
	optType OptionType,
	S float64, // spot
	K float64, // strike
	T float64, // time to expiry in years
	r float64, // risk-free rate
	sigma float64, // volatility
) float64 {

	if T <= 0 {
		if optType == Call {
			return math.Max(S-K, 0)
		}
		return math.Max(K-S, 0)
	}

	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)

	if optType == Call {
		return S*stdNormal.CDF(d1) - K*math.Exp(-r*T)*stdNormal.CDF(d2)
	}
	return K*math.Exp(-r*T)*stdNormal.CDF(-d2) - S*stdNormal.CDF(-d1)
}

// Vega calculates the sensitivity of the option price to volatility,
// the derivative used by the Newton-Raphson solver.
//
// Parameters:
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate
//   - sigma: volatility of the underlying asset
//
// Returns:
//
//	S·φ(d1)·√T, which is identical for calls and puts and non-negative
//	for all valid inputs. Returns 0 when T is non-positive.
func Vega(
	S float64,
	K float64,
	T float64,
	r float64,
	sigma float64,
) float64 {

	if T <= 0 {
		return 0
	}

	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	return S * stdNormal.Prob(d1) * math.Sqrt(T)
}

// Intrinsic returns the exercise-now value of an option:
// max(S−K, 0) for calls, max(K−S, 0) for puts.
func Intrinsic(optType OptionType, S, K float64) float64 {
	if optType == Call {
		return math.Max(S-K, 0)
	}
	return math.Max(K-S, 0)
}
