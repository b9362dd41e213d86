// internal/charts/charts.go
// Package charts draws a comparison as SVG: grouped response-rate bars per model and a
// success-rate heatmap of category by model.
package charts

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/mwiater/refusalbench/internal/compare"
	"github.com/mwiater/refusalbench/internal/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"
)

const (
	// BarChartFile is the file name of the grouped bar chart.
	BarChartFile = "comparison_bar.svg"
	// HeatmapFile is the file name of the category heatmap.
	HeatmapFile = "category_heatmap.svg"

	// paletteSize is the number of steps of the heatmap color scale.
	paletteSize = 101
)

var (
	successColor = color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	refusedColor = color.RGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff}
	errorColor   = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
)

// rate is the percentage shown in charts; an empty total is drawn as zero.
func rate(part, total int) float64 {
	return stats.Percent(part, total)
}

type series struct {
	name  string
	color color.Color
	value func(stats.Counts) float64
}

var rateSeries = []series{
	{"Success", successColor, func(c stats.Counts) float64 { return rate(c.Success, c.Total) }},
	{"Refused", refusedColor, func(c stats.Counts) float64 { return rate(c.Refused, c.Total) }},
	{"Error", errorColor, func(c stats.Counts) float64 { return rate(c.Error, c.Total) }},
}

// BarChart renders success, refused and error percentages per model.
func BarChart(cmp *compare.Comparison) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Model Comparison - Response Rates"
	p.Y.Label.Text = "Percentage (%)"
	p.Y.Min, p.Y.Max = 0, 110
	p.Legend.Top = true
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter

	barWidth := vg.Points(16)
	models := make([]string, len(cmp.Runs))
	for i, run := range cmp.Runs {
		models[i] = run.Model
	}

	for j, s := range rateSeries {
		values := make(plotter.Values, len(cmp.Runs))
		for i, run := range cmp.Runs {
			values[i] = s.value(run.Stats.Counts)
		}
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return nil, fmt.Errorf("error building %s bars: %w", s.name, err)
		}
		bars.Color = s.color
		bars.LineStyle.Width = 0
		bars.Offset = barWidth * vg.Length(j-1)
		p.Add(bars)
		p.Legend.Add(s.name, bars)

		xys, texts := valueLabels(values)
		if len(xys) == 0 {
			continue
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
		if err != nil {
			return nil, fmt.Errorf("error building %s labels: %w", s.name, err)
		}
		for k := range labels.TextStyle {
			labels.TextStyle[k].XAlign = text.XCenter
			labels.TextStyle[k].Font.Size = vg.Points(7)
		}
		labels.Offset = vg.Point{X: bars.Offset, Y: vg.Points(2)}
		p.Add(labels)
	}
	p.NominalX(models...)

	width := vg.Length(math.Max(float64(len(cmp.Runs))*1.2, 5)) * vg.Inch
	return render(p, width, 4*vg.Inch)
}

// valueLabels returns a "%.1f%%" label above every non-zero bar.
func valueLabels(values plotter.Values) (plotter.XYs, []string) {
	var xys plotter.XYs
	var texts []string
	for i, v := range values {
		if v <= 0 {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i), Y: v})
		texts = append(texts, fmt.Sprintf("%.1f%%", v))
	}
	return xys, texts
}

// rateGrid holds success rates indexed by [model][row]. Rows list categories bottom up
// so the first sorted category is drawn at the top.
type rateGrid struct {
	values [][]float64
	rows   int
}

func (g rateGrid) Dims() (c, r int)   { return len(g.values), g.rows }
func (g rateGrid) Z(c, r int) float64 { return g.values[c][r] }
func (g rateGrid) X(c int) float64    { return float64(c) }
func (g rateGrid) Y(r int) float64    { return float64(r) }

// newRateGrid returns the grid and its row names. A category a model never saw is zero.
func newRateGrid(cmp *compare.Comparison) (rateGrid, []string) {
	categories := cmp.Categories()
	rows := make([]string, len(categories))
	for i, name := range categories {
		rows[len(categories)-1-i] = name
	}
	g := rateGrid{values: make([][]float64, len(cmp.Runs)), rows: len(rows)}
	for c, run := range cmp.Runs {
		g.values[c] = make([]float64, len(rows))
		for r, name := range rows {
			if counts, ok := run.Stats.Category(name); ok {
				g.values[c][r] = rate(counts.Success, counts.Total)
			}
		}
	}
	return g, rows
}

// Heatmap renders the success rate of every category (rows, sorted top down) for every
// model (columns).
func Heatmap(cmp *compare.Comparison) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Success Rate by Category and Model"
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter

	models := make([]string, len(cmp.Runs))
	for i, run := range cmp.Runs {
		models[i] = run.Model
	}
	grid, rows := newRateGrid(cmp)

	if len(rows) > 0 && len(models) > 0 {
		heat := plotter.NewHeatMap(grid, rdYlGn{})
		heat.Min, heat.Max = 0, 100
		p.Add(heat)

		var xys plotter.XYs
		var texts []string
		for c := range grid.values {
			for r := range rows {
				xys = append(xys, plotter.XY{X: grid.X(c), Y: grid.Y(r)})
				texts = append(texts, fmt.Sprintf("%.0f%%", grid.Z(c, r)))
			}
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
		if err != nil {
			return nil, fmt.Errorf("error building heatmap labels: %w", err)
		}
		for k := range labels.TextStyle {
			labels.TextStyle[k].XAlign = text.XCenter
			labels.TextStyle[k].YAlign = text.YCenter
		}
		p.Add(labels)
	}
	p.NominalX(models...)
	p.NominalY(rows...)

	width := vg.Length(math.Max(float64(len(models))*0.9+2, 5)) * vg.Inch
	height := vg.Length(math.Max(float64(len(rows))*0.6+1.5, 3)) * vg.Inch
	return render(p, width, height)
}

// rdYlGn is a red, yellow, green palette for success rates.
type rdYlGn struct{}

func (rdYlGn) Colors() []color.Color {
	colors := make([]color.Color, paletteSize)
	for i := range colors {
		colors[i] = heatColor(float64(i) * 100 / float64(paletteSize-1))
	}
	return colors
}

// heatColor maps 0..100 onto the red, yellow, green scale.
func heatColor(pct float64) color.RGBA {
	type rgb struct{ r, g, b float64 }
	red, yellow, green := rgb{215, 48, 39}, rgb{255, 255, 191}, rgb{26, 152, 80}
	t := math.Min(math.Max(pct/100, 0), 1)
	from, to := red, yellow
	if t > 0.5 {
		from, to, t = yellow, green, (t-0.5)*2
	} else {
		t *= 2
	}
	mix := func(a, b float64) uint8 { return uint8(math.Round(a + (b-a)*t)) }
	return color.RGBA{R: mix(from.r, to.r), G: mix(from.g, to.g), B: mix(from.b, to.b), A: 0xff}
}

func render(p *plot.Plot, width, height vg.Length) ([]byte, error) {
	canvas := vgsvg.New(width, height)
	p.Draw(draw.New(canvas))
	var buf bytes.Buffer
	if _, err := canvas.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("error rendering %q: %w", p.Title.Text, err)
	}
	return buf.Bytes(), nil
}

// Write renders both charts into dir and returns the written paths.
func Write(dir string, cmp *compare.Comparison) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating charts directory %s: %w", dir, err)
	}
	renderers := []struct {
		name   string
		render func(*compare.Comparison) ([]byte, error)
	}{
		{BarChartFile, BarChart},
		{HeatmapFile, Heatmap},
	}
	var paths []string
	for _, r := range renderers {
		data, err := r.render(cmp)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, r.name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("error writing chart %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
