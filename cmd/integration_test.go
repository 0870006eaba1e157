package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/songlens-cli/internal/analysis"
	"github.com/KaramelBytes/songlens-cli/internal/columns"
	"github.com/KaramelBytes/songlens-cli/internal/dataset"
	"github.com/KaramelBytes/songlens-cli/internal/report"
)

// execRoot executes the root command with args and returns its stdout.
func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset sticky flag state between invocations.
	for _, name := range []string{"output-dir", "dataset-dir", "config"} {
		if fl := rootCmd.PersistentFlags().Lookup(name); fl != nil {
			_ = fl.Value.Set("")
			fl.Changed = false
		}
	}
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// isolateHome points HOME at a temp dir so no real config is read.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KAGGLE_USERNAME", "")
	t.Setenv("KAGGLE_KEY", "")
	t.Setenv("KAGGLE_CONFIG_DIR", filepath.Join(home, ".kaggle"))
	return home
}

func writeSongsCSV(t *testing.T, dir string, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("track_name,artist_name,genre,popularity,duration\n")
	genres := []string{"Pop", "Rock", "Hip-Hop", "Jazz"}
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "Track %d,Artist %d,%s,%d,%d\n", i, i%9, genres[i%len(genres)], (i*13)%100, 150+(i*29)%180)
	}
	if err := os.WriteFile(filepath.Join(dir, "songs.csv"), []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func TestCLI_RunRendersAllCharts(t *testing.T) {
	home := isolateHome(t)
	data := filepath.Join(home, "data")
	if err := os.MkdirAll(data, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSongsCSV(t, data, 80)
	outDir := filepath.Join(home, "figs")

	out, err := execRoot(t, "run", "--dataset-dir", data, "--output-dir", outDir)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	for _, name := range []string{
		analysis.FileTopSongs,
		analysis.FileDurationScatter,
		analysis.FileDurationBoxplot,
		analysis.FileGenrePopularity,
		analysis.FileGenreShare,
	} {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("missing chart %s: %v", name, err)
		}
		if !bytes.HasPrefix(b, []byte("\x89PNG")) {
			t.Fatalf("%s is not a PNG", name)
		}
	}
	m, err := report.Load(outDir)
	if err != nil {
		t.Fatalf("load summary: %v", err)
	}
	if m.Rows != 80 || m.Roles["popularity"] != "popularity" || m.Roles["duration"] != "duration" {
		t.Fatalf("manifest = %+v", m)
	}
	if m.Counts()["success"] != 3 {
		t.Fatalf("statuses = %+v", m.Analyses)
	}
	for _, want := range []string{"[DATASET OVERVIEW]", "Shape: (80, 5)", "3 succeeded, 0 skipped, 0 failed", "Songs analysis completed!"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_RootRunsPipelineAndSkipsDuration(t *testing.T) {
	home := isolateHome(t)
	data := filepath.Join(home, "data")
	if err := os.MkdirAll(data, 0o755); err != nil {
		t.Fatal(err)
	}
	csv := "title,genre,likes\nA,Pop,5\nB,Rock,9\nC,Pop,7\n"
	if err := os.WriteFile(filepath.Join(data, "tiny.csv"), []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(home, "figs")

	out, err := execRoot(t, "--dataset-dir", data, "--output-dir", outDir)
	if err != nil {
		t.Fatalf("root run failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(outDir, analysis.FileDurationScatter)); !os.IsNotExist(err) {
		t.Fatalf("duration chart should not exist")
	}
	if _, err := os.Stat(filepath.Join(outDir, analysis.FileGenreShare)); err != nil {
		t.Fatalf("genre pie missing: %v", err)
	}
	m, err := report.Load(outDir)
	if err != nil {
		t.Fatalf("load summary: %v", err)
	}
	if m.Analyses[1].Status != string(analysis.StatusSkipped) {
		t.Fatalf("duration status = %q", m.Analyses[1].Status)
	}
	if !strings.Contains(out, "skipped") || !strings.Contains(out, "Songs analysis completed!") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = execRoot(t, "summary", "--output-dir", outDir)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	for _, want := range []string{
		"Run: " + m.RunID,
		"Dataset: " + filepath.Join(data, "tiny.csv") + " (3 rows, 3 columns)",
		"- popularity: likes",
		"duration-popularity: skipped",
		"  chart: " + analysis.FileGenreShare,
		"2 succeeded, 1 skipped, 0 failed",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_SummaryWithoutRun(t *testing.T) {
	home := isolateHome(t)
	if _, err := execRoot(t, "summary", "--output-dir", filepath.Join(home, "nothing")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestCLI_ColumnsCommand(t *testing.T) {
	home := isolateHome(t)
	data := filepath.Join(home, "data")
	if err := os.MkdirAll(data, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSongsCSV(t, data, 5)
	out, err := execRoot(t, "columns", "--dataset-dir", data)
	if err != nil {
		t.Fatalf("columns failed: %v", err)
	}
	for _, want := range []string{"- popularity: popularity (keyword)", "- name: track_name (keyword)", "- artist: artist_name (keyword)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_FatalErrors(t *testing.T) {
	home := isolateHome(t)

	empty := filepath.Join(home, "empty")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := execRoot(t, "--dataset-dir", empty, "--output-dir", filepath.Join(home, "o1")); !errors.Is(err, dataset.ErrNoCSV) {
		t.Fatalf("err = %v, want ErrNoCSV", err)
	}

	text := filepath.Join(home, "text")
	if err := os.MkdirAll(text, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(text, "t.csv"), []byte("title,artist\nA,B\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execRoot(t, "--dataset-dir", text, "--output-dir", filepath.Join(home, "o2")); !errors.Is(err, columns.ErrNoPopularity) {
		t.Fatalf("err = %v, want ErrNoPopularity", err)
	}
	if _, err := os.Stat(filepath.Join(home, "o2")); !os.IsNotExist(err) {
		t.Fatalf("no output dir expected when columns cannot be resolved")
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	isolateHome(t)
	if _, err := execRoot(t, "config", "set", "top_n", "10"); err != nil {
		t.Fatalf("set top_n: %v", err)
	}
	if _, err := execRoot(t, "config", "set", "column_overrides.genre", "style"); err != nil {
		t.Fatalf("set override: %v", err)
	}
	if _, err := execRoot(t, "config", "set", "column_keywords.bogus", "x"); !errors.Is(err, columns.ErrUnknownRole) {
		t.Fatalf("err = %v, want ErrUnknownRole", err)
	}
	if _, err := execRoot(t, "config", "set", "top_n", "zero"); err == nil {
		t.Fatalf("expected error for invalid int")
	}
	out, err := execRoot(t, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"top_n: 10", "column_overrides.genre: style", "output_dir: songs_figures"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
