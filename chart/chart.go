// Package chart draws fitness-over-generation plots of a search run
package chart

import (
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lixenwraith/gamatch/tracking"
)

// ErrEmpty is returned when there is no history to plot
var ErrEmpty = errors.New("empty history")

// Chart dimensions
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

var (
	bestColor  = color.RGBA{R: 200, A: 255}
	meanColor  = color.RGBA{B: 200, A: 255}
	worstColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// Build creates the plot for a series
// Fitness spans orders of magnitude, so the Y axis is logarithmic whenever best and mean are positive;
// the worst line is dropped in that case if it touches the sentinel
func Build(s tracking.Series, title string) (*plot.Plot, error) {
	if len(s.Generation) == 0 {
		return nil, ErrEmpty
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	logScale := allPositive(s.Best) && allPositive(s.Mean)
	if logScale {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	lines := []struct {
		name  string
		ys    []float64
		color color.Color
	}{
		{"best", s.Best, bestColor},
		{"mean", s.Mean, meanColor},
		{"worst", s.Worst, worstColor},
	}

	for _, l := range lines {
		if logScale && !allPositive(l.ys) {
			continue
		}

		pts := make(plotter.XYs, len(s.Generation))
		for i := range s.Generation {
			pts[i].X = s.Generation[i]
			pts[i].Y = l.ys[i]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line", l.name)
		}
		line.Color = l.color

		p.Add(line)
		p.Legend.Add(l.name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	return p, nil
}

// Render builds the plot and saves it; the file extension picks the format (png, svg, pdf)
func Render(s tracking.Series, title, path string) error {
	p, err := Build(s, title)
	if err != nil {
		return err
	}
	return errors.Wrap(p.Save(Width, Height, path), "save chart")
}

func allPositive(vs []float64) bool {
	for _, v := range vs {
		if !(v > 0) {
			return false
		}
	}
	return true
}
