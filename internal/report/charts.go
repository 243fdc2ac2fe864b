package report

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/contactkeval/iv-surface/internal/logger"
	"github.com/contactkeval/iv-surface/internal/pricing"
	"github.com/contactkeval/iv-surface/internal/surface"
)

// WriteSurfaceHTML renders an interactive 3D implied volatility surface to
// an HTML file. Axes are strike price, days to expiration, and IV in
// percent. Grid cells without market support (NaN) are omitted.
func WriteSurfaceHTML(g *surface.Grid, ticker string, optType pricing.OptionType, path string) error {
	title := fmt.Sprintf("%s Implied Volatility Surface (%ss)", ticker, optType)

	minIV, maxIV := math.Inf(1), math.Inf(-1)
	points := make([]opts.Chart3DData, 0, len(g.Days)*len(g.Strikes))
	for i, days := range g.Days {
		for j, strike := range g.Strikes {
			iv := g.IV[i][j]
			if math.IsNaN(iv) {
				continue
			}
			minIV = math.Min(minIV, iv)
			maxIV = math.Max(maxIV, iv)
			points = append(points, opts.Chart3DData{
				Value: []interface{}{strike, days, iv * 100},
			})
		}
	}
	if len(points) == 0 {
		return fmt.Errorf("surface grid for %s %ss has no supported cells", ticker, optType)
	}

	chart := charts.NewSurface3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "1000px",
			Height:    "800px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "Strike Price ($)", Type: "value", Show: true}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Days to Expiration", Type: "value", Show: true}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Implied Volatility (%)", Type: "value", Show: true}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: true,
			Min:        float32(minIV * 100),
			Max:        float32(maxIV * 100),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
			},
		}),
	)
	chart.AddSeries("IV Surface", points)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := chart.Render(f); err != nil {
		return fmt.Errorf("render surface chart: %w", err)
	}
	logger.Debugf("wrote surface chart %s (%d points)", path, len(points))
	return nil
}
