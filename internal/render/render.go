// Package render draws the analysis charts as PNG files with go-chart.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/songlens-cli/internal/utils"
)

// Bar is a single-series bar chart.
type Bar struct {
	Title  string
	XLabel string
	YLabel string
	Labels []string
	Values []float64
}

// Scatter is a point cloud with an optional regression line and a text note.
type Scatter struct {
	Title      string
	XLabel     string
	YLabel     string
	X, Y       []float64
	Regression bool
	Annotation string
}

// BoxGroup is one box of a box plot.
type BoxGroup struct {
	Label                    string
	Min, Q1, Median, Q3, Max float64
}

// BoxPlot draws one box per group.
type BoxPlot struct {
	Title  string
	XLabel string
	YLabel string
	Groups []BoxGroup
}

// Pie is a proportional share chart.
type Pie struct {
	Title  string
	Labels []string
	Values []float64
}

// PNG renders charts to PNG files of a fixed size.
type PNG struct {
	Width  int
	Height int
}

// NewPNG returns a renderer; non-positive sizes fall back to 1400x1000.
func NewPNG(width, height int) *PNG {
	if width <= 0 {
		width = 1400
	}
	if height <= 0 {
		height = 1000
	}
	return &PNG{Width: width, Height: height}
}

var (
	barColor     = drawing.ColorFromHex("4F46E5")
	pointColor   = drawing.ColorFromHex("1F77B4").WithAlpha(150)
	lineColor    = chart.ColorRed
	boxColor     = drawing.ColorFromHex("10B981")
	medianColor  = drawing.ColorFromHex("F59E0B")
	noteColor    = drawing.ColorFromHex("FFF59D")
	sliceColors  = []string{"4F46E5", "10B981", "F59E0B", "EF4444", "8B5CF6", "06B6D4", "EC4899", "84CC16", "F97316", "6366F1"}
	errNoSeries  = errors.New("render: nothing to draw")
	titleFontPts = 16.0
)

func (p *PNG) canvasPadding() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 30, Bottom: 20}}
}

// DrawBar renders a bar chart to path. Long labels are rotated.
func (p *PNG) DrawBar(path string, b Bar) error {
	if len(b.Values) == 0 || len(b.Values) != len(b.Labels) {
		return fmt.Errorf("%w: bar chart %q has %d labels and %d values", errNoSeries, b.Title, len(b.Labels), len(b.Values))
	}
	bars := make([]chart.Value, len(b.Values))
	for i, v := range b.Values {
		bars[i] = chart.Value{
			Label: truncate(b.Labels[i], 38),
			Value: v,
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
	}
	// Each bar gets an equal slot; 60% of it is bar, the rest spacing.
	slot := (p.Width - 160) / len(bars)
	if slot < 4 {
		slot = 4
	}
	barWidth := slot * 3 / 5
	bc := chart.BarChart{
		Title:      b.Title,
		TitleStyle: chart.Style{FontSize: titleFontPts},
		Width:      p.Width,
		Height:     p.Height,
		BarWidth:   barWidth,
		BarSpacing: slot - barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 260}},
		XAxis:      chart.Style{TextRotationDegrees: 60, FontSize: 9},
		YAxis: chart.YAxis{
			Name:  b.YLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(b.Values)},
		},
		Bars: bars,
	}
	return p.write(path, func(buf *bytes.Buffer) error { return bc.Render(chart.PNG, buf) })
}

// DrawScatter renders points, the least-squares line and the annotation box.
func (p *PNG) DrawScatter(path string, s Scatter) error {
	if len(s.X) == 0 || len(s.X) != len(s.Y) {
		return fmt.Errorf("%w: scatter %q has %d x and %d y values", errNoSeries, s.Title, len(s.X), len(s.Y))
	}
	points := chart.ContinuousSeries{
		Name:    "Songs",
		XValues: s.X,
		YValues: s.Y,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    3,
			DotColor:    pointColor,
		},
	}
	xmin, xmax, ymin, ymax := bounds(s.X, s.Y)
	series := []chart.Series{points}
	if s.Regression && len(s.X) >= 2 && xmax > xmin {
		series = append(series, &chart.LinearRegressionSeries{
			Name:        "Linear fit",
			InnerSeries: points,
			Style:       chart.Style{StrokeColor: lineColor, StrokeWidth: 2},
		})
	}
	xlo, xhi := padRange(xmin, xmax)
	ylo, yhi := padRange(ymin, ymax)
	if s.Annotation != "" {
		series = append(series, chart.AnnotationSeries{
			Annotations: []chart.Value2{{
				XValue: xlo,
				YValue: yhi - 0.02*(yhi-ylo),
				Label:  s.Annotation,
				Style:  chart.Style{FillColor: noteColor, StrokeColor: chart.ColorAlternateGray, FontSize: 11},
			}},
		})
	}
	ch := chart.Chart{
		Title:      s.Title,
		TitleStyle: chart.Style{FontSize: titleFontPts},
		Width:      p.Width,
		Height:     p.Height,
		Background: p.canvasPadding(),
		XAxis:      chart.XAxis{Name: s.XLabel, Range: &chart.ContinuousRange{Min: xlo, Max: xhi}},
		YAxis:      chart.YAxis{Name: s.YLabel, Range: &chart.ContinuousRange{Min: ylo, Max: yhi}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return p.write(path, func(buf *bytes.Buffer) error { return ch.Render(chart.PNG, buf) })
}

// DrawBoxPlot composes each box from line series: the Q1-Q3 box, a median
// line and min/max whiskers with caps.
func (p *PNG) DrawBoxPlot(path string, bp BoxPlot) error {
	if len(bp.Groups) == 0 {
		return fmt.Errorf("%w: box plot %q has no groups", errNoSeries, bp.Title)
	}
	const half = 0.3
	var series []chart.Series
	ticks := make([]chart.Tick, len(bp.Groups))
	ylo, yhi := math.Inf(1), math.Inf(-1)
	for i, g := range bp.Groups {
		x := float64(i)
		ticks[i] = chart.Tick{Value: x, Label: g.Label}
		ylo = math.Min(ylo, g.Min)
		yhi = math.Max(yhi, g.Max)
		boxStyle := chart.Style{StrokeColor: boxColor, StrokeWidth: 2}
		series = append(series,
			chart.ContinuousSeries{
				XValues: []float64{x - half, x + half, x + half, x - half, x - half},
				YValues: []float64{g.Q1, g.Q1, g.Q3, g.Q3, g.Q1},
				Style:   boxStyle,
			},
			chart.ContinuousSeries{
				XValues: []float64{x - half, x + half},
				YValues: []float64{g.Median, g.Median},
				Style:   chart.Style{StrokeColor: medianColor, StrokeWidth: 3},
			},
			chart.ContinuousSeries{
				XValues: []float64{x, x, x - half/2, x + half/2},
				YValues: []float64{g.Q3, g.Max, g.Max, g.Max},
				Style:   boxStyle,
			},
			chart.ContinuousSeries{
				XValues: []float64{x, x, x - half/2, x + half/2},
				YValues: []float64{g.Q1, g.Min, g.Min, g.Min},
				Style:   boxStyle,
			},
		)
	}
	ylo, yhi = padRange(ylo, yhi)
	ch := chart.Chart{
		Title:      bp.Title,
		TitleStyle: chart.Style{FontSize: titleFontPts},
		Width:      p.Width,
		Height:     p.Height,
		Background: p.canvasPadding(),
		XAxis: chart.XAxis{
			Name:  bp.XLabel,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(bp.Groups)) - 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  bp.YLabel,
			Range: &chart.ContinuousRange{Min: ylo, Max: yhi},
		},
		Series: series,
	}
	return p.write(path, func(buf *bytes.Buffer) error { return ch.Render(chart.PNG, buf) })
}

// DrawPie renders a pie chart; each label carries its percentage share.
func (p *PNG) DrawPie(path string, pc Pie) error {
	if len(pc.Values) == 0 || len(pc.Values) != len(pc.Labels) {
		return fmt.Errorf("%w: pie %q has %d labels and %d values", errNoSeries, pc.Title, len(pc.Labels), len(pc.Values))
	}
	var total float64
	for _, v := range pc.Values {
		total += v
	}
	if total <= 0 {
		return fmt.Errorf("%w: pie %q sums to %g", errNoSeries, pc.Title, total)
	}
	vals := make([]chart.Value, len(pc.Values))
	for i, v := range pc.Values {
		c := drawing.ColorFromHex(sliceColors[i%len(sliceColors)])
		vals[i] = chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", truncate(pc.Labels[i], 24), 100*v/total),
			Value: v,
			Style: chart.Style{FillColor: c, StrokeColor: drawing.ColorWhite, FontSize: 10},
		}
	}
	size := p.Width
	if p.Height < size {
		size = p.Height
	}
	pie := chart.PieChart{
		Title:      pc.Title,
		TitleStyle: chart.Style{FontSize: titleFontPts},
		Width:      size,
		Height:     size,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20}},
		Values:     vals,
	}
	return p.write(path, func(buf *bytes.Buffer) error { return pie.Render(chart.PNG, buf) })
}

func (p *PNG) write(path string, draw func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func niceMax(vals []float64) float64 {
	m := 0.0
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	if m == 0 {
		return 1
	}
	return m * 1.05
}

func bounds(xs, ys []float64) (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = math.Inf(1), math.Inf(-1)
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for i := range xs {
		xmin = math.Min(xmin, xs[i])
		xmax = math.Max(xmax, xs[i])
		ymin = math.Min(ymin, ys[i])
		ymax = math.Max(ymax, ys[i])
	}
	return
}

// padRange widens [lo, hi] by 5% on each side. go-chart rejects an empty
// range, so a single value gets a margin of 5% of its magnitude (or 1 at zero).
func padRange(lo, hi float64) (float64, float64) {
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Abs(lo) * 0.05
	}
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
