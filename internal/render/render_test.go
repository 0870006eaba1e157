package render

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func assertPNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !bytes.HasPrefix(b, pngMagic) {
		t.Fatalf("%s is not a PNG (first bytes %q)", filepath.Base(path), b[:min(8, len(b))])
	}
}

func TestDrawCharts(t *testing.T) {
	dir := t.TempDir()
	p := NewPNG(800, 600)

	cases := []struct {
		name string
		draw func(path string) error
	}{
		{"bar", func(path string) error {
			return p.DrawBar(path, Bar{
				Title:  "Top Songs",
				YLabel: "Popularity Score",
				Labels: []string{"Alpha - Band A", "Beta - Band B", "A very long song title that will be truncated - Someone"},
				Values: []float64{99, 87.5, 60},
			})
		}},
		{"scatter", func(path string) error {
			return p.DrawScatter(path, Scatter{
				Title:      "Duration vs Popularity",
				XLabel:     "Song Duration",
				YLabel:     "Popularity Score",
				X:          []float64{180, 200, 220, 240, 260},
				Y:          []float64{50, 55, 61, 64, 70},
				Regression: true,
				Annotation: "Correlation: 0.99\nP-value: 0.0010",
			})
		}},
		{"box", func(path string) error {
			return p.DrawBoxPlot(path, BoxPlot{
				Title:  "Popularity by Duration",
				XLabel: "Song Duration",
				YLabel: "Popularity Score",
				Groups: []BoxGroup{
					{Label: "(100, 200]", Min: 10, Q1: 20, Median: 30, Q3: 40, Max: 50},
					{Label: "(200, 300]", Min: 15, Q1: 25, Median: 35, Q3: 45, Max: 80},
				},
			})
		}},
		{"pie", func(path string) error {
			return p.DrawPie(path, Pie{
				Title:  "Genres",
				Labels: []string{"Pop", "Rock", "Jazz"},
				Values: []float64{5, 3, 2},
			})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".png")
			if err := tc.draw(path); err != nil {
				t.Fatalf("draw: %v", err)
			}
			assertPNG(t, path)
		})
	}
}

func TestDrawScatterConstantAxes(t *testing.T) {
	dir := t.TempDir()
	p := NewPNG(600, 400)
	cases := map[string]Scatter{
		"constant-x": {X: []float64{200, 200, 200}, Y: []float64{10, 40, 70}, Regression: true, Annotation: "Correlation: n/a\nP-value: n/a"},
		"constant-y": {X: []float64{100, 200, 300}, Y: []float64{50, 50, 50}, Regression: true},
		"single":     {X: []float64{0}, Y: []float64{0}, Annotation: "one"},
	}
	for name, sc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".png")
			if err := p.DrawScatter(path, sc); err != nil {
				t.Fatalf("draw: %v", err)
			}
			assertPNG(t, path)
		})
	}
}

func TestPadRange(t *testing.T) {
	for _, tc := range []struct{ lo, hi, wantLo, wantHi float64 }{
		{0, 100, -5, 105},
		{200, 200, 190, 210},
		{-40, -40, -42, -38},
		{0, 0, -1, 1},
	} {
		lo, hi := padRange(tc.lo, tc.hi)
		if math.Abs(lo-tc.wantLo) > 1e-9 || math.Abs(hi-tc.wantHi) > 1e-9 {
			t.Fatalf("padRange(%v, %v) = %v, %v", tc.lo, tc.hi, lo, hi)
		}
	}
}

func TestDrawRejectsEmptyInput(t *testing.T) {
	dir := t.TempDir()
	p := NewPNG(0, 0)
	if p.Width != 1400 || p.Height != 1000 {
		t.Fatalf("default size = %dx%d", p.Width, p.Height)
	}
	errs := []error{
		p.DrawBar(filepath.Join(dir, "bar.png"), Bar{Title: "empty"}),
		p.DrawScatter(filepath.Join(dir, "scatter.png"), Scatter{Title: "empty"}),
		p.DrawBoxPlot(filepath.Join(dir, "box.png"), BoxPlot{Title: "empty"}),
		p.DrawPie(filepath.Join(dir, "pie.png"), Pie{Title: "zero", Labels: []string{"a"}, Values: []float64{0}}),
	}
	for i, err := range errs {
		if !errors.Is(err, errNoSeries) {
			t.Fatalf("case %d: err = %v, want errNoSeries", i, err)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("files written for empty input: %d", len(entries))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
	if got := truncate("ñandú-ñandú-ñandú", 8); got != "ñandú..." {
		t.Fatalf("truncate runes = %q", got)
	}
}
