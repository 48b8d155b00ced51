package views

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// MetricSeries is one metric sampled against seconds since the first row.
type MetricSeries struct {
	Metric  string
	Offsets []float64
	Values  []float64
}

// Len returns the number of points.
func (s MetricSeries) Len() int { return len(s.Offsets) }

// SavePlot renders s as a line with points and writes it to path. The image
// format follows the extension (.png, .svg, .pdf, ...). Sizes are in inches.
func SavePlot(s MetricSeries, widthIn, heightIn float64, path string) error {
	if s.Len() == 0 {
		return fmt.Errorf("plot %s: no points", s.Metric)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s over Time", s.Metric)
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = s.Metric

	grid := plotter.NewGrid()
	grid.Vertical.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	grid.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(grid)

	pts := make(plotter.XYs, s.Len())
	for i := range pts {
		pts[i].X = s.Offsets[i]
		pts[i].Y = s.Values[i]
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("plot %s: %w", s.Metric, err)
	}
	blue := color.RGBA{B: 255, A: 255}
	line.Color = blue
	line.Width = vg.Points(1)
	points.Shape = draw.CircleGlyph{}
	points.Color = blue
	points.Radius = vg.Points(1.5)
	p.Add(line, points)

	if err := p.Save(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
