// Package render draws ECG signals as PNG line charts.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	width  = 10 * vg.Inch
	height = 3 * vg.Inch
)

var traceColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// ChartRenderer implements ports.Renderer.
type ChartRenderer struct{}

func NewChartRenderer() *ChartRenderer { return &ChartRenderer{} }

// Render plots sample index against amplitude on a 10x3 inch canvas.
func (ChartRenderer) Render(ctx context.Context, signal []float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pts := make(plotter.XYs, len(signal))
	for i, v := range signal {
		pts[i].X = float64(i)
		pts[i].Y = v
	}

	p := plot.New()
	p.Title.Text = "ECG Signal"
	p.X.Label.Text = "Time (samples)"
	p.Y.Label.Text = "Amplitude (mV or scaled unit)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	line.Color = traceColor
	line.Width = vg.Points(1)
	p.Add(line)

	w, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
