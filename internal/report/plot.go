package report

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoWaits is returned when there is nothing to plot.
var ErrNoWaits = errors.New("no wait times to plot")

func histogram(waits []float64, bins int) (*plot.Plot, error) {
	if len(waits) == 0 {
		return nil, ErrNoWaits
	}
	p := plot.New()
	p.Title.Text = "Wait time distribution"
	p.X.Label.Text = "Wait (s)"
	p.Y.Label.Text = "Tracks"

	h, err := plotter.NewHist(plotter.Values(waits), bins)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	h.LineStyle.Width = vg.Points(1)
	p.Add(h)
	return p, nil
}

// SaveHistogramPNG writes a histogram of waits to path. The image format
// follows the file extension. bins <= 0 picks a bin count automatically.
func SaveHistogramPNG(path string, waits []float64, bins int) error {
	p, err := histogram(waits, bins)
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteHistogramPNG streams the histogram as PNG.
func WriteHistogramPNG(w io.Writer, waits []float64, bins int) error {
	p, err := histogram(waits, bins)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
