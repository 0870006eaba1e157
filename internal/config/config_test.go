package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KAGGLE_USERNAME", "")
	t.Setenv("KAGGLE_KEY", "")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Dataset != DefaultDataset {
		t.Fatalf("dataset = %q", c.Dataset)
	}
	if c.OutputDir != "songs_figures" {
		t.Fatalf("output_dir = %q", c.OutputDir)
	}
	if c.TopN != 20 || c.MinGenreCount != 10 || c.TopGenres != 15 || c.PieGenres != 10 || c.DurationBins != 5 {
		t.Fatalf("analysis defaults = %+v", c)
	}
	if want := filepath.Join(home, ".songlens", "datasets"); c.CacheDir != want {
		t.Fatalf("cache_dir = %q, want %q", c.CacheDir, want)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SONGLENS_TOP_N", "7")
	t.Setenv("SONGLENS_DATASET_DIR", "/data/songs")
	t.Setenv("KAGGLE_USERNAME", "alice")
	t.Setenv("KAGGLE_KEY", "secret")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.TopN != 7 {
		t.Fatalf("top_n = %d, want 7", c.TopN)
	}
	if c.DatasetDir != "/data/songs" {
		t.Fatalf("dataset_dir = %q", c.DatasetDir)
	}
	if c.KaggleUsername != "alice" || c.KaggleKey != "secret" {
		t.Fatalf("kaggle creds = %q/%q", c.KaggleUsername, c.KaggleKey)
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "songlens.yaml")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.TopN = 12
	c.OutputDir = "charts"
	c.ColumnOverrides = map[string]string{"popularity": "Streams"}
	c.ColumnKeywords = map[string][]string{"genre": {"genre", "mood"}}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat saved config: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TopN != 12 || got.OutputDir != "charts" {
		t.Fatalf("reloaded = %+v", got)
	}
	if diff := cmp.Diff(c.ColumnOverrides, got.ColumnOverrides); diff != "" {
		t.Fatalf("overrides mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(c.ColumnKeywords, got.ColumnKeywords); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
}
