package export

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ptscope/ptscope/pkg/model"
)

// SaveHistogramPNG renders the PTS distribution as a bar chart. The image
// format follows the file extension, so path should end in .png.
func SaveHistogramPNG(snap *model.AnalyticsSnapshot, path string) error {
	if snap == nil || len(snap.PTSDistribution) == 0 {
		return errors.New("no distribution data to plot")
	}

	p := plot.New()
	p.Title.Text = "PTS distribution"
	p.X.Label.Text = "PTS range"
	p.Y.Label.Text = "Trials"

	values := make(plotter.Values, len(snap.PTSDistribution))
	labels := make([]string, len(snap.PTSDistribution))
	for i, b := range snap.PTSDistribution {
		values[i] = float64(b.Count)
		labels[i] = b.Range
	}

	bars, err := plotter.NewBarChart(values, vg.Points(34))
	if err != nil {
		return fmt.Errorf("building bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	// Same purple the TUI uses for its primary accents.
	bars.Color = color.RGBA{R: 0xBD, G: 0x93, B: 0xF9, A: 0xFF}
	p.Add(bars)
	p.NominalX(labels...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving histogram image: %w", err)
	}
	return nil
}
