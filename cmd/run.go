package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/songlens-cli/internal/analysis"
	"github.com/KaramelBytes/songlens-cli/internal/columns"
	cfgpkg "github.com/KaramelBytes/songlens-cli/internal/config"
	"github.com/KaramelBytes/songlens-cli/internal/dataset"
	"github.com/KaramelBytes/songlens-cli/internal/fetch"
	"github.com/KaramelBytes/songlens-cli/internal/render"
	"github.com/KaramelBytes/songlens-cli/internal/report"
	"github.com/KaramelBytes/songlens-cli/internal/utils"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Acquire the dataset, resolve columns and render all charts",
	Args:  cobra.NoArgs,
	RunE:  runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	out := cmd.OutOrStdout()

	frame, path, err := loadDataset(ctx, c, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, frame.Overview(5))

	res, err := resolveColumns(c, frame)
	if err != nil {
		return err
	}
	logResolution(res)

	if err := utils.EnsureDir(c.OutputDir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	runner := &analysis.Runner{
		Renderer: render.NewPNG(c.ChartWidth, c.ChartHeight),
		OutDir:   c.OutputDir,
		Options: analysis.Options{
			TopN:          c.TopN,
			MinGenreCount: c.MinGenreCount,
			TopGenres:     c.TopGenres,
			PieGenres:     c.PieGenres,
			DurationBins:  c.DurationBins,
		},
		Log: log.Log,
	}
	results := runner.Run(frame, res)

	rows, cols := frame.Shape()
	manifest := report.New(path, rows, cols, res, results)
	if p, err := manifest.Save(c.OutputDir); err != nil {
		log.WithError(err).Warn("could not write run summary")
	} else {
		log.WithField("file", p).Debug("run summary saved")
	}

	printResults(out, results)
	fmt.Fprintln(out, countsLine(manifest.Counts()))
	fmt.Fprintf(out, "Charts saved in %s (run %s)\n", c.OutputDir, manifest.RunID)
	fmt.Fprintln(out, "Songs analysis completed!")
	return nil
}

// acquireDataset returns the directory holding the dataset files.
func acquireDataset(ctx context.Context, c *cfgpkg.Global, progress io.Writer) (string, error) {
	if c.DatasetDir != "" {
		fi, err := os.Stat(c.DatasetDir)
		if err != nil {
			return "", fmt.Errorf("dataset dir: %w", err)
		}
		if !fi.IsDir() {
			return "", fmt.Errorf("dataset dir %s is not a directory", c.DatasetDir)
		}
		return c.DatasetDir, nil
	}
	creds, err := fetch.LoadCredentials(c.KaggleUsername, c.KaggleKey)
	if err != nil && !errors.Is(err, fetch.ErrNoCredentials) {
		return "", err
	}
	client := fetch.NewClientWithBaseURL(
		creds,
		time.Duration(c.HTTPTimeoutSec)*time.Second,
		c.RetryMaxAttempts,
		time.Duration(c.RetryBaseDelayMs)*time.Millisecond,
		time.Duration(c.RetryMaxDelayMs)*time.Millisecond,
		c.KaggleAPIURL,
	)
	client.Progress = progress
	dir, cached, err := client.Fetch(ctx, c.Dataset, c.CacheDir)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", c.Dataset, err)
	}
	log.WithFields(log.Fields{"dataset": c.Dataset, "dir": dir, "cached": cached}).Info("dataset ready")
	return dir, nil
}

// loadDataset acquires the dataset and loads its first CSV file.
func loadDataset(ctx context.Context, c *cfgpkg.Global, progress io.Writer) (*dataset.Frame, string, error) {
	dir, err := acquireDataset(ctx, c, progress)
	if err != nil {
		return nil, "", err
	}
	files, err := dataset.ListFiles(dir)
	if err != nil {
		return nil, "", err
	}
	log.WithField("files", strings.Join(files, ", ")).Info("dataset files")
	path, err := dataset.FindCSV(dir)
	if err != nil {
		return nil, "", err
	}
	frame, err := dataset.Load(path)
	if err != nil {
		return nil, "", err
	}
	rows, cols := frame.Shape()
	log.WithFields(log.Fields{"file": path, "rows": rows, "columns": cols}).Info("dataset loaded")
	return frame, path, nil
}

func resolveColumns(c *cfgpkg.Global, f *dataset.Frame) (columns.Resolution, error) {
	r, err := columns.NewResolver(c.ColumnKeywords, c.ColumnOverrides)
	if err != nil {
		return columns.Resolution{}, err
	}
	return r.Resolve(columns.FromFrame(f))
}

func logResolution(res columns.Resolution) {
	for _, role := range columns.Roles {
		m := res.Get(role)
		ctx := log.WithField("role", string(role))
		if !m.Found() {
			ctx.Warn("no matching column")
			continue
		}
		ctx.WithFields(log.Fields{"column": m.Column, "source": string(m.Source)}).Info("column resolved")
	}
}

func printResults(w io.Writer, results []analysis.Result) {
	ok := color.New(color.FgGreen).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	for _, r := range results {
		switch r.Status {
		case analysis.StatusSuccess:
			fmt.Fprintf(w, "%s %s\n", ok("✓"), r)
		case analysis.StatusSkipped:
			fmt.Fprintf(w, "%s %s\n", warn("⚠"), r)
		default:
			fmt.Fprintf(w, "%s %s\n", bad("✗"), r)
		}
		for _, n := range r.Notes {
			fmt.Fprintf(w, "  - %s\n", n)
		}
	}
}

func countsLine(counts map[string]int) string {
	return fmt.Sprintf("%d succeeded, %d skipped, %d failed",
		counts[string(analysis.StatusSuccess)], counts[string(analysis.StatusSkipped)], counts[string(analysis.StatusFailed)])
}
