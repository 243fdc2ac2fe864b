package surface

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/contactkeval/iv-surface/internal/data"
)

// Grid is a rectangular strike × time grid of interpolated implied
// volatilities, ready for surface rendering.
//
// IV is indexed [time][strike]: IV[i][j] holds the volatility at
// Days[i] days to expiration and Strikes[j]. Cells with no nearby
// market support hold NaN and are skipped by the renderer.
type Grid struct {
	Strikes []float64
	Days    []float64
	IV      [][]float64
}

// idwPower is the inverse-distance weighting exponent.
const idwPower = 2.0

// maxSupportDistance bounds, in normalized coordinates, how far a grid
// cell may sit from its nearest market point and still receive a value.
// Cells beyond it are left NaN rather than extrapolated.
const maxSupportDistance = 0.25

// BuildGrid interpolates the scattered (strike, time, IV) points of a
// solved chain onto an n×n grid using inverse-distance weighting over
// range-normalized coordinates.
//
// Parameters:
//   - quotes: solved quotes of a single option type
//   - n: grid resolution per axis (e.g. 50)
//
// Returns:
//   - *Grid: interpolated surface
//   - error: if fewer than three quotes are available
func BuildGrid(quotes []data.OptionQuote, n int) (*Grid, error) {
	if len(quotes) < 3 {
		return nil, fmt.Errorf("not enough quotes to build a surface: %d", len(quotes))
	}
	if n < 2 {
		return nil, fmt.Errorf("grid resolution must be at least 2, got %d", n)
	}

	minStrike, maxStrike := quotes[0].Strike, quotes[0].Strike
	minDays, maxDays := quotes[0].DaysToExpiration, quotes[0].DaysToExpiration
	for _, q := range quotes {
		minStrike = math.Min(minStrike, q.Strike)
		maxStrike = math.Max(maxStrike, q.Strike)
		if q.DaysToExpiration < minDays {
			minDays = q.DaysToExpiration
		}
		if q.DaysToExpiration > maxDays {
			maxDays = q.DaysToExpiration
		}
	}

	strikeRange := maxStrike - minStrike
	dayRange := float64(maxDays - minDays)
	if strikeRange == 0 || dayRange == 0 {
		return nil, fmt.Errorf("chain is degenerate: single strike or single expiry")
	}

	g := &Grid{
		Strikes: floats.Span(make([]float64, n), minStrike, maxStrike),
		Days:    floats.Span(make([]float64, n), float64(minDays), float64(maxDays)),
		IV:      make([][]float64, n),
	}

	for i := range g.IV {
		g.IV[i] = make([]float64, n)
		for j := range g.IV[i] {
			g.IV[i][j] = interpolate(quotes, g.Strikes[j], g.Days[i], strikeRange, dayRange, minStrike, float64(minDays))
		}
	}

	return g, nil
}

// interpolate estimates the IV at one grid cell by inverse-distance
// weighting of all market points, with distances measured in coordinates
// normalized by the axis ranges so strikes and days weigh equally.
func interpolate(quotes []data.OptionQuote, strike, days, strikeRange, dayRange, minStrike, minDays float64) float64 {
	x := (strike - minStrike) / strikeRange
	y := (days - minDays) / dayRange

	var weightSum, valueSum float64
	nearest := math.Inf(1)

	for _, q := range quotes {
		qx := (q.Strike - minStrike) / strikeRange
		qy := (float64(q.DaysToExpiration) - minDays) / dayRange

		dist := math.Hypot(x-qx, y-qy)
		if dist < nearest {
			nearest = dist
		}
		if dist < 1e-12 {
			return q.ImpliedVol // cell sits exactly on a market point
		}

		w := 1 / math.Pow(dist, idwPower)
		weightSum += w
		valueSum += w * q.ImpliedVol
	}

	if nearest > maxSupportDistance {
		return math.NaN()
	}
	return valueSum / weightSum
}
