package analysis

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/apex/log"

	"github.com/KaramelBytes/songlens-cli/internal/columns"
	"github.com/KaramelBytes/songlens-cli/internal/dataset"
	"github.com/KaramelBytes/songlens-cli/internal/render"
)

// Chart file names written into the output directory.
const (
	FileTopSongs        = "top20_popular_songs.png"
	FileDurationScatter = "duration_vs_popularity.png"
	FileDurationBoxplot = "duration_popularity_boxplot.png"
	FileGenrePopularity = "genre_popularity.png"
	FileGenreShare      = "genre_distribution.png"
)

// Analysis names used in results and logs.
const (
	NameTopSongs = "top-songs"
	NameDuration = "duration-popularity"
	NameGenre    = "genre-popularity"
)

// Runner executes every analysis against one dataset. A failing analysis
// never prevents the next one from running.
type Runner struct {
	Renderer Renderer
	OutDir   string
	Options  Options
	Log      log.Interface
}

// Run executes the analyses in order and returns one Result each.
func (r *Runner) Run(f *dataset.Frame, res columns.Resolution) []Result {
	if r.Log == nil {
		r.Log = log.Log
	}
	r.Options = r.Options.withDefaults()
	return []Result{
		r.guard(NameTopSongs, func(out *Result) error { return r.topSongs(f, res, out) }),
		r.guard(NameDuration, func(out *Result) error { return r.duration(f, res, out) }),
		r.guard(NameGenre, func(out *Result) error { return r.genre(f, res, out) }),
	}
}

// guard turns errors and panics into a failed Result.
func (r *Runner) guard(name string, fn func(out *Result) error) (out Result) {
	out = Result{Name: name, Status: StatusSuccess}
	ctx := r.Log.WithField("analysis", name)
	defer func() {
		if p := recover(); p != nil {
			out.Status = StatusFailed
			out.Err = fmt.Errorf("panic: %v", p)
			ctx.WithError(out.Err).Error("analysis failed")
		}
	}()
	if err := fn(&out); err != nil {
		out.Status = StatusFailed
		out.Err = err
		ctx.WithError(err).Error("analysis failed")
		return out
	}
	if out.Status == StatusSkipped {
		ctx.Warnf("skipped: %s", out.Reason)
		return out
	}
	for _, n := range out.Notes {
		ctx.Warn(n)
	}
	return out
}

func (r *Runner) path(name string) string { return filepath.Join(r.OutDir, name) }

func (r *Runner) topSongs(f *dataset.Frame, res columns.Resolution, out *Result) error {
	ranks, err := TopSongs(f, res, r.Options.TopN)
	if err != nil {
		return err
	}
	bar := render.Bar{
		Title:  fmt.Sprintf("Top %d Songs of All Time by Popularity Score", r.Options.TopN),
		XLabel: "Song Title",
		YLabel: "Popularity Score",
	}
	for _, s := range ranks {
		bar.Labels = append(bar.Labels, s.Label())
		bar.Values = append(bar.Values, s.Popularity)
	}
	p := r.path(FileTopSongs)
	if err := r.Renderer.DrawBar(p, bar); err != nil {
		return err
	}
	out.Charts = append(out.Charts, p)
	r.Log.WithFields(log.Fields{"file": p, "songs": len(ranks)}).Info("top songs by popularity plot saved")
	return nil
}

func (r *Runner) duration(f *dataset.Frame, res columns.Resolution, out *Result) error {
	if !res.Duration.Found() {
		out.Status = StatusSkipped
		out.Reason = "cannot analyze duration effects without duration information"
		return nil
	}
	rep, err := DurationPopularity(f, res, r.Options.DurationBins)
	if err != nil {
		return err
	}
	if rep.Dropped > 0 {
		out.Notes = append(out.Notes, fmt.Sprintf("dropped %d rows missing duration or popularity", rep.Dropped))
	}
	if !rep.Corr.Defined() {
		out.Notes = append(out.Notes, "correlation undefined: duration or popularity is constant")
	}
	scatter := render.Scatter{
		Title:      "Relationship Between Song Duration and Popularity",
		XLabel:     "Song Duration",
		YLabel:     "Popularity Score",
		X:          rep.Duration,
		Y:          rep.Popularity,
		Regression: !math.IsNaN(rep.Corr.Slope),
		Annotation: fmt.Sprintf("Correlation: %s\nP-value: %s", fmtStat(rep.Corr.R, 2), fmtStat(rep.Corr.PValue, 4)),
	}
	p := r.path(FileDurationScatter)
	if err := r.Renderer.DrawScatter(p, scatter); err != nil {
		return err
	}
	out.Charts = append(out.Charts, p)
	r.Log.WithFields(log.Fields{
		"file": p,
		"r":    fmtStat(rep.Corr.R, 3),
		"p":    fmtStat(rep.Corr.PValue, 4),
		"n":    rep.Corr.N,
	}).Info("duration vs popularity plot saved")

	box := render.BoxPlot{
		Title:  "Popularity Distribution by Song Duration",
		XLabel: "Song Duration",
		YLabel: "Popularity Score",
	}
	for _, b := range rep.Bins {
		box.Groups = append(box.Groups, render.BoxGroup{
			Label:  b.Label(),
			Min:    b.Box.Min,
			Q1:     b.Box.Q1,
			Median: b.Box.Median,
			Q3:     b.Box.Q3,
			Max:    b.Box.Max,
		})
	}
	p = r.path(FileDurationBoxplot)
	if err := r.Renderer.DrawBoxPlot(p, box); err != nil {
		return err
	}
	out.Charts = append(out.Charts, p)
	r.Log.WithFields(log.Fields{"file": p, "bins": len(rep.Bins)}).Info("duration popularity boxplot saved")
	return nil
}

func (r *Runner) genre(f *dataset.Frame, res columns.Resolution, out *Result) error {
	if !res.Genre.Found() {
		out.Status = StatusSkipped
		out.Reason = "cannot analyze genre popularity without genre information"
		return nil
	}
	o := r.Options
	rep, err := GenrePopularity(f, res, o.MinGenreCount, o.TopGenres, o.PieGenres)
	if err != nil {
		return err
	}
	if len(rep.Ranked) == 0 {
		out.Notes = append(out.Notes, fmt.Sprintf("no genre has at least %d songs; genre popularity chart skipped", o.MinGenreCount))
	} else {
		bar := render.Bar{
			Title:  "Average Popularity by Music Genre",
			XLabel: "Genre",
			YLabel: "Average Popularity Score",
		}
		for _, g := range rep.Ranked {
			bar.Labels = append(bar.Labels, g.Genre)
			bar.Values = append(bar.Values, g.Mean)
		}
		p := r.path(FileGenrePopularity)
		if err := r.Renderer.DrawBar(p, bar); err != nil {
			return err
		}
		out.Charts = append(out.Charts, p)
		r.Log.WithFields(log.Fields{"file": p, "genres": len(rep.Ranked)}).Info("genre popularity plot saved")
	}

	pie := render.Pie{Title: fmt.Sprintf("Distribution of Top %d Music Genres", len(rep.Distribution))}
	for _, g := range rep.Distribution {
		pie.Labels = append(pie.Labels, g.Genre)
		pie.Values = append(pie.Values, float64(g.Count))
	}
	p := r.path(FileGenreShare)
	if err := r.Renderer.DrawPie(p, pie); err != nil {
		return err
	}
	out.Charts = append(out.Charts, p)
	r.Log.WithFields(log.Fields{"file": p, "genres": len(rep.Distribution)}).Info("genre distribution plot saved")
	return nil
}

func fmtStat(v float64, prec int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
