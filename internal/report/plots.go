package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/contactkeval/iv-surface/internal/pricing"
	"github.com/contactkeval/iv-surface/internal/surface"
)

// WriteSmilePNG plots the volatility smile (IV in percent against strike)
// for up to four expirations of one option type.
func WriteSmilePNG(curves []surface.SmileCurve, ticker string, optType pricing.OptionType, path string) error {
	if len(curves) == 0 {
		return fmt.Errorf("no smile curves for %s %ss", ticker, optType)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Volatility Smile (%ss)", ticker, optType)
	p.X.Label.Text = "Strike Price ($)"
	p.Y.Label.Text = "Implied Volatility (%)"
	p.Add(plotter.NewGrid())

	args := make([]interface{}, 0, 2*len(curves))
	for _, curve := range curves {
		xys := make(plotter.XYs, len(curve.Points))
		for i, pt := range curve.Points {
			xys[i].X = pt.Strike
			xys[i].Y = pt.IV * 100
		}
		label := fmt.Sprintf("%s (%dd)", curve.Expiration, curve.Days)
		args = append(args, label, xys)
	}

	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return fmt.Errorf("plot smile: %w", err)
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// WriteTermStructurePNG plots the volatility term structure (IV in percent
// against days to expiration) for the configured moneyness levels of one
// option type.
func WriteTermStructurePNG(curves []surface.TermCurve, ticker string, optType pricing.OptionType, path string) error {
	if len(curves) == 0 {
		return fmt.Errorf("no term structure curves for %s %ss", ticker, optType)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Term Structure (%ss)", ticker, optType)
	p.X.Label.Text = "Days to Expiration"
	p.Y.Label.Text = "Implied Volatility (%)"
	p.Add(plotter.NewGrid())

	args := make([]interface{}, 0, 2*len(curves))
	for _, curve := range curves {
		if len(curve.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(curve.Points))
		for i, pt := range curve.Points {
			xys[i].X = float64(pt.Days)
			xys[i].Y = pt.IV * 100
		}
		args = append(args, fmt.Sprintf("K/S = %.2f", curve.Moneyness), xys)
	}
	if len(args) == 0 {
		return fmt.Errorf("term structure for %s %ss has no points", ticker, optType)
	}

	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return fmt.Errorf("plot term structure: %w", err)
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
