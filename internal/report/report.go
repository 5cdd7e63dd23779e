// Package report renders run charts as a standalone HTML page: a value
// histogram per analysis variable and an outlier count bar across the
// flagged columns.
package report

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"surveyprep/internal/config"
	"surveyprep/internal/dataset"
)

const (
	minBins = 5
	maxBins = 15

	flagSuffix = "_is_outlier"
)

// ChartFilename returns the chart artifact name for a run
func ChartFilename(runID string) string {
	return fmt.Sprintf("run_%s_charts.html", runID)
}

// Generator builds the chart page for a run
type Generator struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewGenerator creates a chart generator. A nil logger falls back to
// slog.Default.
func NewGenerator(paths *config.Paths, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		paths:  paths,
		logger: logger.With(slog.String("component", "report")),
	}
}

// WriteRunCharts renders the chart page for a cleaned table and returns
// the written file path. Variables without any present numeric value get
// no histogram; a page is written even when no chart has data.
func (g *Generator) WriteRunCharts(t dataset.Table, variables []string, runID string) (string, error) {
	page := components.NewPage()
	page.PageTitle = "Run " + runID

	count := 0
	for _, variable := range variables {
		if hist := histogramChart(t, variable); hist != nil {
			page.AddCharts(hist)
			count++
		}
	}
	if outliers := outlierChart(t); outliers != nil {
		page.AddCharts(outliers)
		count++
	}

	outPath := g.paths.ChartPath(ChartFilename(runID))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create charts directory: %w", err)
	}

	file, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	defer file.Close()

	if err := page.Render(file); err != nil {
		return "", fmt.Errorf("failed to render charts: %w", err)
	}

	g.logger.Info("wrote run charts",
		slog.String("run_id", runID),
		slog.String("path", outPath),
		slog.Int("charts", count))

	return outPath, nil
}

// histogramChart builds the value histogram for one column, or nil when
// the column has no present numeric values.
func histogramChart(t dataset.Table, column string) *charts.Bar {
	values := t.PresentValues(column)
	if len(values) == 0 {
		return nil
	}

	labels, counts := binValues(values)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    column,
			Subtitle: fmt.Sprintf("%d present values", len(values)),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "900px",
			Height: "420px",
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "frequency"}),
	)

	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		data[i] = opts.BarData{Value: c}
	}
	bar.SetXAxis(labels).AddSeries("frequency", data)

	return bar
}

// outlierChart builds the outlier count bar across all flag columns, or
// nil when the table carries none.
func outlierChart(t dataset.Table) *charts.Bar {
	flagCols := t.FlagColumns()
	if len(flagCols) == 0 {
		return nil
	}
	sort.Strings(flagCols)

	labels := make([]string, 0, len(flagCols))
	data := make([]opts.BarData, 0, len(flagCols))
	for _, col := range flagCols {
		flagged := 0
		for i := 0; i < t.Len(); i++ {
			if v, ok := t.Flag(i, col); ok && v {
				flagged++
			}
		}
		label := col
		if len(col) > len(flagSuffix) && col[len(col)-len(flagSuffix):] == flagSuffix {
			label = col[:len(col)-len(flagSuffix)]
		}
		labels = append(labels, label)
		data = append(data, opts.BarData{Value: flagged})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Flagged outliers"}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "900px",
			Height: "420px",
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rows"}),
	)
	bar.SetXAxis(labels).AddSeries("outliers", data)

	return bar
}

// binValues buckets values into equal-width bins. The bin count follows
// Sturges' rule clamped to [minBins, maxBins]; identical values collapse
// to a single bin.
func binValues(values []float64) ([]string, []int) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	if lo == hi {
		return []string{formatBinEdge(lo)}, []int{len(values)}
	}

	bins := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	if bins < minBins {
		bins = minBins
	}
	if bins > maxBins {
		bins = maxBins
	}

	width := (hi - lo) / float64(bins)
	counts := make([]int, bins)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	labels := make([]string, bins)
	for i := range labels {
		start := lo + float64(i)*width
		labels[i] = formatBinEdge(start) + " to " + formatBinEdge(start+width)
	}

	return labels, counts
}

func formatBinEdge(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
