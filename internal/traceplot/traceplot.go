// Package traceplot draws the ARI trace and the final assignment of a run.
package traceplot

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/TrevorS/bgmm/internal/dataio"
)

// Default image size.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// TraceChart returns a line chart of ARI against iteration, numbered from 1.
func TraceChart(trace []float64) (*plot.Plot, error) {
	if len(trace) == 0 {
		return nil, fmt.Errorf("traceplot: empty trace")
	}
	pts := make(plotter.XYs, len(trace))
	for i, v := range trace {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = plotutil.Color(0)
	line.Width = vg.Points(1.5)

	p := plot.New()
	p.Title.Text = "Adjusted Rand index per iteration"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "ARI"
	p.Add(plotter.NewGrid(), line)

	// ARI is at most 1; keep that ceiling visible.
	p.Y.Min = math.Min(p.Y.Min, 0) - 0.05
	p.Y.Max = 1.05
	return p, nil
}

// AssignmentChart returns a scatter plot of the first two dimensions of
// data, one colour and glyph per cluster. One-dimensional data is drawn on
// the line y = 0.
func AssignmentChart(data [][]float64, labels []int, clusters int) (*plot.Plot, error) {
	if len(data) != len(labels) {
		return nil, fmt.Errorf("traceplot: %d observations but %d labels", len(data), len(labels))
	}
	groups := make([]plotter.XYs, clusters)
	for i, row := range data {
		l := labels[i]
		if l < 0 || l >= clusters {
			return nil, fmt.Errorf("traceplot: label %d of observation %d is outside [0, %d)", l, i, clusters)
		}
		var pt plotter.XY
		pt.X = row[0]
		if len(row) > 1 {
			pt.Y = row[1]
		}
		groups[l] = append(groups[l], pt)
	}

	p := plot.New()
	p.Title.Text = "Final assignment"
	p.X.Label.Text = "x1"
	p.Y.Label.Text = "x2"
	p.Add(plotter.NewGrid())
	for c, pts := range groups {
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle = draw.GlyphStyle{
			Color:  plotutil.Color(c),
			Radius: vg.Points(2.5),
			Shape:  plotutil.Shape(c),
		}
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("cluster %d", c), s)
	}
	return p, nil
}

// WritePlot renders p in format ("png", "svg", "pdf", ...) to output.
func WritePlot(p *plot.Plot, width, height vg.Length, output io.Writer, format string) error {
	w, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = w.WriteTo(output)
	return err
}

// SavePlot renders p into the file at path, creating missing directories.
func SavePlot(p *plot.Plot, width, height vg.Length, path string, format string) error {
	return dataio.SaveFile(path, func(w io.Writer) error {
		return WritePlot(p, width, height, w, format)
	})
}

// ASCII renders the trace as a terminal chart of the given height.
// It returns "" for an empty trace.
func ASCII(trace []float64, height int) string {
	if len(trace) == 0 {
		return ""
	}
	return asciigraph.Plot(trace,
		asciigraph.Height(height),
		asciigraph.Precision(3),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(1),
		asciigraph.Caption(fmt.Sprintf("ARI over %d iterations", len(trace))),
	)
}

// Format normalizes an image format name, defaulting to png.
func Format(name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	if name == "" {
		return "png"
	}
	return name
}
