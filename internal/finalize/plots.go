package finalize

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/spectro-data/dimuon.report/internal/hist"
	"github.com/spectro-data/dimuon.report/internal/monitoring"
)

// WritePlots renders each projection as a step-style PNG under
// outputDir. maxPlots caps the number of files; projections beyond it
// are dropped in name order.
func (r *Result) WritePlots(outputDir string, maxPlots int) error {
	if maxPlots <= 0 {
		maxPlots = 48
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	names := make([]string, 0, len(r.Projections))
	for name := range r.Projections {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > maxPlots {
		names = names[:maxPlots]
	}

	for _, name := range names {
		file := filepath.Join(outputDir, name+".png")
		if err := savePlot(name, r.Projections[name], file); err != nil {
			return err
		}
	}
	monitoring.Logf("[Finalize] wrote %d plots to %s", len(names), outputDir)
	return nil
}

func savePlot(name string, h *hist.Hist1D, file string) error {
	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = h.Axis().Title()
	p.Y.Label.Text = "entries"

	ax := h.Axis()
	// Step outline: two points per bin edge.
	pts := make(plotter.XYs, 0, 2*ax.Bins())
	for b := 1; b <= ax.Bins(); b++ {
		v := h.BinContent(b)
		pts = append(pts,
			plotter.XY{X: ax.BinLowEdge(b), Y: v},
			plotter.XY{X: ax.BinUpEdge(b), Y: v},
		)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build plot for %s: %w", name, err)
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(line)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", file, err)
	}
	return nil
}
