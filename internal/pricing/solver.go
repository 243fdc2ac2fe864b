package pricing

import (
	"math"
)

// Method selects the root-finding strategy used to invert the pricing
// function. Dispatch is total: only these two strategies exist.
type Method int

const (
	// Newton uses Newton-Raphson iteration with the analytic vega as the
	// derivative. Fast, but can diverge in flat-vega regions (deep ITM/OTM,
	// near-zero time).
	Newton Method = iota

	// Bisection uses a bracketed root-finder (Brent's method) over the
	// full volatility band. Slower, but guaranteed to converge once a
	// sign-changing bracket exists. When no bracket exists it falls back
	// to Newton on the same inputs.
	Bisection
)

// Solver bounds and convergence constants.
const (
	maxIterations = 100  // per-solve iteration cap; the de facto deadline
	tolerance     = 1e-6 // price-space (Newton) / sigma-space (Brent) tolerance

	volLowerBound = 0.001 // iteration clamp floor
	volUpperBound = 5.0   // iteration clamp ceiling

	minValidVol = 0.01 // accepted results must lie in [minValidVol, maxValidVol]
	maxValidVol = 5.0

	maxInitialGuess = 3.0   // Brenner-Subrahmanyam guess ceiling
	vegaCutoff      = 1e-10 // below this the price curve is flat; Newton cannot proceed
)

// Solve recovers the Black-Scholes implied volatility for an observed
// market price.
//
// Parameters:
//   - marketPrice: observed option price (typically a bid/ask midpoint)
//   - S: spot price of the underlying
//   - K: strike price
//   - T: time to expiry in years
//   - r: risk-free rate (annual, decimal)
//   - optType: Call or Put
//   - method: Newton or Bisection
//
// Returns:
//
//	The implied volatility and true, or 0 and false when no usable
//	volatility exists. Absence is the uniform failure signal: invalid
//	inputs, prices below intrinsic value (arbitrage violations),
//	non-convergence, and convergent results outside [0.01, 5.0] all
//	report not-found rather than an error.
func Solve(
	marketPrice float64,
	S, K, T, r float64,
	optType OptionType,
	method Method,
) (float64, bool) {

	// Eager validation: no iteration is attempted for degenerate inputs.
	if marketPrice <= 0 || S <= 0 || K <= 0 || T <= 0 {
		return 0, false
	}

	// Arbitrage floor: a quote below exercise-now value has no implied
	// volatility.
	if marketPrice < Intrinsic(optType, S, K) {
		return 0, false
	}

	var iv float64
	var ok bool
	if method == Newton {
		iv, ok = solveNewton(marketPrice, S, K, T, r, optType)
	} else {
		iv, ok = solveBisection(marketPrice, S, K, T, r, optType)
	}
	if !ok {
		return 0, false
	}

	// A convergent result outside the accepted band is discarded,
	// not clamped.
	if iv < minValidVol || iv > maxValidVol {
		return 0, false
	}
	return iv, true
}

// solveNewton iterates Newton-Raphson from the Brenner-Subrahmanyam
// approximation sigma ≈ √(2π/T)·(P/S).
func solveNewton(marketPrice, S, K, T, r float64, optType OptionType) (float64, bool) {
	sigma := math.Sqrt(2*math.Pi/T) * (marketPrice / S)
	sigma = clamp(sigma, minValidVol, maxInitialGuess)

	for i := 0; i < maxIterations; i++ {
		price := Price(optType, S, K, T, r, sigma)
		vega := Vega(S, K, T, r, sigma)

		if math.Abs(vega) < vegaCutoff {
			break
		}

		diff := marketPrice - price
		if math.Abs(diff) < tolerance {
			return sigma, true
		}

		// Clamp every step to keep the iterate from diverging.
		sigma = clamp(sigma+diff/vega, volLowerBound, volUpperBound)
	}

	return 0, false
}

// solveBisection brackets the root over the full volatility band and runs
// Brent's method on it. When the objective does not change sign across the
// bounds no root is bracketed there, and Newton on the same inputs is the
// fallback.
func solveBisection(marketPrice, S, K, T, r float64, optType OptionType) (float64, bool) {
	objective := func(sigma float64) float64 {
		return Price(optType, S, K, T, r, sigma) - marketPrice
	}

	fLow := objective(volLowerBound)
	fHigh := objective(volUpperBound)

	if fLow*fHigh > 0 {
		return solveNewton(marketPrice, S, K, T, r, optType)
	}

	return brent(objective, volLowerBound, volUpperBound, fLow, fHigh)
}

// brent finds a root of f in [a, b] given f(a) and f(b) with opposite
// signs. It combines inverse quadratic interpolation, the secant method,
// and bisection, falling back to bisection whenever an interpolated step
// would leave the bracket or converge too slowly.
func brent(f func(float64) float64, a, b, fa, fb float64) (float64, bool) {
	if fa*fb > 0 {
		return 0, false
	}

	// b is the best estimate, a its counterpoint, c the previous best.
	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}
	c, fc := a, fa
	d := b - a
	bisected := true

	for i := 0; i < maxIterations; i++ {
		if fb == 0 || math.Abs(b-a) < tolerance {
			return b, true
		}

		var s float64
		if fa != fc && fb != fc {
			// Inverse quadratic interpolation.
			s = a*fb*fc/((fa-fb)*(fa-fc)) +
				b*fa*fc/((fb-fa)*(fb-fc)) +
				c*fa*fb/((fc-fa)*(fc-fb))
		} else {
			// Secant step.
			s = b - fb*(b-a)/(fb-fa)
		}

		mid := (a + b) / 2
		useBisect := false
		switch {
		case (s-mid)*(s-b) >= 0:
			// Interpolated point outside (mid, b).
			useBisect = true
		case bisected && math.Abs(s-b) >= math.Abs(b-c)/2:
			useBisect = true
		case !bisected && math.Abs(s-b) >= math.Abs(d)/2:
			useBisect = true
		case bisected && math.Abs(b-c) < tolerance:
			useBisect = true
		case !bisected && math.Abs(d) < tolerance:
			useBisect = true
		}
		if useBisect {
			s = mid
			bisected = true
		} else {
			bisected = false
		}

		fs := f(s)
		d = b - c
		c, fc = b, fb

		// Keep the sign change inside [a, b].
		if fa*fs < 0 {
			b, fb = s, fs
		} else {
			a, fa = s, fs
		}
		if math.Abs(fa) < math.Abs(fb) {
			a, b = b, a
			fa, fb = fb, fa
		}
	}

	if math.Abs(b-a) < tolerance {
		return b, true
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
