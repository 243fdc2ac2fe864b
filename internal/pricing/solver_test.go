package pricing

import (
	"math"
	"testing"
)

// Round-trip: price with a known volatility, then recover it with
// Newton-Raphson. The grid stays near the money where Newton's initial
// guess is reliable; the bracketed method covers the wings below.
func TestSolveRoundTripNewton(t *testing.T) {
	const S, r = 100.0, 0.05

	for _, optType := range []OptionType{Call, Put} {
		for _, m := range []float64{0.95, 1.0, 1.05} {
			for _, T := range []float64{0.5, 1.0} {
				for _, sigma := range []float64{0.2, 0.3, 0.5, 1.0} {
					K := S * m
					price := Price(optType, S, K, T, r, sigma)

					iv, ok := Solve(price, S, K, T, r, optType, Newton)
					if !ok {
						t.Fatalf("newton failed for %s K=%.0f T=%.1f sigma=%.2f", optType, K, T, sigma)
					}
					if math.Abs(iv-sigma) > 1e-4 {
						t.Fatalf("newton %s K=%.0f T=%.1f: recovered %f, want %f", optType, K, T, iv, sigma)
					}
				}
			}
		}
	}
}

// The bracketed method handles the full moneyness range. A zero rate
// keeps European puts above intrinsic value across the whole grid, so no
// row trips the arbitrage floor.
func TestSolveRoundTripBisection(t *testing.T) {
	const S, r = 100.0, 0.0

	for _, optType := range []OptionType{Call, Put} {
		for _, m := range []float64{0.8, 0.9, 1.0, 1.1, 1.2} {
			for _, T := range []float64{0.25, 1.0} {
				for _, sigma := range []float64{0.05, 0.2, 0.5, 1.0} {
					K := S * m
					price := Price(optType, S, K, T, r, sigma)
					if price-Intrinsic(optType, S, K) < 1e-6 {
						continue // no time value left to invert
					}

					iv, ok := Solve(price, S, K, T, r, optType, Bisection)
					if !ok {
						t.Fatalf("bisection failed for %s K=%.0f T=%.2f sigma=%.2f", optType, K, T, sigma)
					}
					if math.Abs(iv-sigma) > 1e-4 {
						t.Fatalf("bisection %s K=%.0f T=%.2f: recovered %f, want %f", optType, K, T, iv, sigma)
					}
				}
			}
		}
	}
}

// Where both methods apply they must agree closely.
func TestSolveMethodsAgree(t *testing.T) {
	const S, r = 100.0, 0.05

	for _, m := range []float64{0.95, 1.0, 1.05} {
		for _, sigma := range []float64{0.15, 0.3, 0.6} {
			K := S * m
			price := Price(Call, S, K, 1.0, r, sigma)

			newtonIV, ok1 := Solve(price, S, K, 1.0, r, Call, Newton)
			brentIV, ok2 := Solve(price, S, K, 1.0, r, Call, Bisection)
			if !ok1 || !ok2 {
				t.Fatalf("solve failed for K=%.0f sigma=%.2f (newton=%v bisection=%v)", K, sigma, ok1, ok2)
			}
			if math.Abs(newtonIV-brentIV) > 1e-5 {
				t.Fatalf("methods disagree for K=%.0f sigma=%.2f: newton=%f bisection=%f", K, sigma, newtonIV, brentIV)
			}
		}
	}
}

// Known scenario: S=100 K=100 T=1 r=5% σ=20% prices the call at ≈10.45;
// solving that price back must return σ ≈ 0.20.
func TestSolveKnownValue(t *testing.T) {
	iv, ok := Solve(10.45, 100, 100, 1, 0.05, Call, Newton)
	if !ok {
		t.Fatalf("solve failed for known ATM call")
	}
	if math.Abs(iv-0.20) > 1e-3 {
		t.Fatalf("expected iv ≈ 0.20, got %f", iv)
	}
}

// A quote below intrinsic value is an arbitrage violation: the solver
// declines up front for both methods.
func TestSolveRejectsArbitrageViolation(t *testing.T) {
	// Call: intrinsic = 50, observed price 10.
	for _, method := range []Method{Newton, Bisection} {
		if _, ok := Solve(10, 150, 100, 1, 0.05, Call, method); ok {
			t.Fatalf("expected not-found for call priced below intrinsic (method=%d)", method)
		}
	}
	// Put: intrinsic = 20, observed price 15.
	if _, ok := Solve(15, 80, 100, 1, 0.05, Put, Newton); ok {
		t.Fatalf("expected not-found for put priced below intrinsic")
	}

	// Not a violation: intrinsic is 0 and the price sits above the
	// sigma->0 lower bound S - K*exp(-rT) ≈ 2.47, so a volatility exists.
	if _, ok := Solve(3.0, 100, 100, 0.5, 0.05, Call, Newton); !ok {
		t.Fatalf("price above the zero-volatility bound should solve")
	}
}

// A price above intrinsic but below the zero-volatility European bound
// has no implied volatility at all; both methods report not-found.
func TestSolveRejectsPriceBelowZeroVolBound(t *testing.T) {
	// S - K*exp(-rT) ≈ 2.47 for these inputs; 0.5 is beneath it.
	for _, method := range []Method{Newton, Bisection} {
		if iv, ok := Solve(0.5, 100, 100, 0.5, 0.05, Call, method); ok {
			t.Fatalf("expected not-found below the zero-vol bound, got %f (method=%d)", iv, method)
		}
	}
}

func TestSolveRejectsInvalidInputs(t *testing.T) {
	cases := []struct {
		name           string
		price, S, K, T float64
	}{
		{"zero price", 0, 100, 100, 1},
		{"negative price", -1, 100, 100, 1},
		{"zero spot", 10, 0, 100, 1},
		{"zero strike", 10, 100, 0, 1},
		{"zero time", 10, 100, 100, 0},
		{"negative time", 10, 100, 100, -0.5},
	}

	for _, c := range cases {
		for _, method := range []Method{Newton, Bisection} {
			if _, ok := Solve(c.price, c.S, c.K, c.T, 0.05, Call, method); ok {
				t.Fatalf("%s: expected not-found", c.name)
			}
		}
	}
}

// A price above anything reachable with σ ≤ 5 brackets no root; the
// bracketed method falls back to Newton, which cannot converge either.
func TestSolveRejectsUnreachablePrice(t *testing.T) {
	for _, method := range []Method{Newton, Bisection} {
		if iv, ok := Solve(99, 100, 100, 0.1, 0.05, Call, method); ok {
			t.Fatalf("expected not-found for unreachable price, got iv=%f (method=%d)", iv, method)
		}
	}
}

// brent converges on a plain cubic with a known root.
func TestBrentSimpleRoot(t *testing.T) {
	f := func(x float64) float64 { return x*x*x - 2*x - 5 }
	// Root near 2.0945514815.
	root, ok := brent(f, 2, 3, f(2), f(3))
	if !ok {
		t.Fatalf("brent failed to converge")
	}
	if math.Abs(root-2.0945514815) > 1e-5 {
		t.Fatalf("brent root %f, want ≈ 2.09455", root)
	}
}

func TestBrentRejectsUnbracketedRoot(t *testing.T) {
	f := func(x float64) float64 { return x*x + 1 }
	if _, ok := brent(f, -1, 1, f(-1), f(1)); ok {
		t.Fatalf("brent should fail without a sign change")
	}
}
