// Package analysis runs the song analyses over a loaded dataset. Each
// analysis is independent and reports an explicit Result instead of
// aborting the run.
package analysis

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/songlens-cli/internal/columns"
	"github.com/KaramelBytes/songlens-cli/internal/render"
)

// Status is the outcome of one analysis.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result describes what an analysis produced.
type Result struct {
	Name   string
	Status Status
	// Charts are the paths written, in order.
	Charts []string
	// Reason explains a skip.
	Reason string
	Err    error
	Notes  []string
}

func (r Result) String() string {
	switch r.Status {
	case StatusSkipped:
		return fmt.Sprintf("%s: skipped (%s)", r.Name, r.Reason)
	case StatusFailed:
		return fmt.Sprintf("%s: failed: %v", r.Name, r.Err)
	}
	return fmt.Sprintf("%s: %d chart(s)", r.Name, len(r.Charts))
}

// ErrMissingColumn marks an analysis whose prerequisite role is unresolved.
var ErrMissingColumn = errors.New("required column not resolved")

// Renderer draws charts to files.
type Renderer interface {
	DrawBar(path string, b render.Bar) error
	DrawScatter(path string, s render.Scatter) error
	DrawBoxPlot(path string, b render.BoxPlot) error
	DrawPie(path string, p render.Pie) error
}

// Options tunes the analyses.
type Options struct {
	TopN          int
	MinGenreCount int
	TopGenres     int
	PieGenres     int
	DurationBins  int
}

// DefaultOptions mirrors the fixed chart set: top 20 songs, genres with at
// least 10 songs, 15 genre bars, 10 pie slices, 5 duration bins.
func DefaultOptions() Options {
	return Options{TopN: 20, MinGenreCount: 10, TopGenres: 15, PieGenres: 10, DurationBins: 5}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	if o.MinGenreCount <= 0 {
		o.MinGenreCount = d.MinGenreCount
	}
	if o.TopGenres <= 0 {
		o.TopGenres = d.TopGenres
	}
	if o.PieGenres <= 0 {
		o.PieGenres = d.PieGenres
	}
	if o.DurationBins <= 0 {
		o.DurationBins = d.DurationBins
	}
	return o
}

func requireRole(res columns.Resolution, role columns.Role) (string, error) {
	m := res.Get(role)
	if !m.Found() {
		return "", fmt.Errorf("%w: %s", ErrMissingColumn, role)
	}
	return m.Column, nil
}
