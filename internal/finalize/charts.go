package finalize

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/spectro-data/dimuon.report/internal/hist"
)

// WriteChartsHTML renders the result as a single self-contained HTML
// page: one bar chart per projection plus a scalar-efficiency chart.
// maxCharts caps the page size; projections beyond it are dropped in
// name order.
func (r *Result) WriteChartsHTML(path string, maxCharts int) error {
	if maxCharts <= 0 {
		maxCharts = 48
	}

	page := components.NewPage()
	page.PageTitle = "Pair analysis results"

	if len(r.Scalars) > 0 {
		page.AddCharts(scalarBarChart(r.Scalars))
	}

	names := make([]string, 0, len(r.Projections))
	for name := range r.Projections {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > maxCharts {
		names = names[:maxCharts]
	}
	for _, name := range names {
		page.AddCharts(projectionBarChart(name, r.Projections[name]))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}
	return nil
}

func projectionBarChart(name string, h *hist.Hist1D) *charts.Bar {
	ax := h.Axis()
	labels := make([]string, 0, ax.Bins())
	data := make([]opts.BarData, 0, ax.Bins())
	for b := 1; b <= ax.Bins(); b++ {
		labels = append(labels, fmt.Sprintf("%.3g", ax.BinCenter(b)))
		data = append(data, opts.BarData{Value: h.BinContent(b)})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: name, Subtitle: ax.Title()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries(name, data)
	return bar
}

func scalarBarChart(scalars []ScalarEfficiency) *charts.Bar {
	labels := make([]string, 0, len(scalars))
	data := make([]opts.BarData, 0, len(scalars))
	for _, s := range scalars {
		labels = append(labels, fmt.Sprintf("%s/%s/%s/%s", s.Trigger, s.Bucket, s.PairType, s.Charge))
		data = append(data, opts.BarData{Value: s.Value})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Scalar efficiencies", Subtitle: "mass window yield ratio"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "420px"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("efficiency", data)
	return bar
}
