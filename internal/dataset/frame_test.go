package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

var songsCSV = strings.Join([]string{
	"\xef\xbb\xbfTitle,Artist,Genre,Popularity,Duration (s)",
	"Alpha,Band A,Pop,87,210",
	"Beta,Band B,Rock,n/a,185",
	"Gamma,Band C,Pop,64,",
	"Delta,Band D,Jazz,91,240",
	"Epsilon,Band E,Rock,72",
}, "\n")

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadInfersKindsAndMissing(t *testing.T) {
	p := writeFile(t, t.TempDir(), "songs.csv", songsCSV)
	f, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rows, cols := f.Shape()
	if rows != 5 || cols != 5 {
		t.Fatalf("shape = (%d, %d), want (5, 5)", rows, cols)
	}
	wantNames := []string{"Title", "Artist", "Genre", "Popularity", "Duration (s)"}
	if diff := cmp.Diff(wantNames, f.ColumnNames()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	kinds := map[string]ColumnKind{}
	for _, c := range f.Columns {
		kinds[c.Name] = c.Kind
	}
	if kinds["Title"] != KindText || kinds["Popularity"] != KindNumeric || kinds["Duration (s)"] != KindNumeric {
		t.Fatalf("kinds = %#v", kinds)
	}
	pop, _ := f.Column("Popularity")
	if pop.MissingCount() != 1 {
		t.Fatalf("popularity missing = %d, want 1", pop.MissingCount())
	}
	dur, _ := f.Column("Duration (s)")
	if dur.MissingCount() != 2 {
		t.Fatalf("duration missing (empty + short row) = %d, want 2", dur.MissingCount())
	}
}

func TestToNumericCoercesInvalidToMissing(t *testing.T) {
	f := NewFrame("t", []string{"score"}, [][]string{{"10"}, {"abc"}, {" 7.5 "}, {"1e2"}, {"twelve"}, {""}})
	col, _ := f.Column("score")
	if col.Kind != KindText {
		t.Fatalf("kind before = %s, want text", col.Kind)
	}
	coerced, err := f.ToNumeric("score")
	if err != nil {
		t.Fatalf("ToNumeric: %v", err)
	}
	if coerced != 2 {
		t.Fatalf("coerced = %d, want 2", coerced)
	}
	if col.Kind != KindNumeric {
		t.Fatalf("kind after = %s", col.Kind)
	}
	var got []float64
	for _, v := range col.Values {
		if v.Kind == Text {
			t.Fatalf("text cell survived coercion: %#v", v)
		}
		if !v.IsMissing() {
			got = append(got, v.Num)
		}
	}
	if diff := cmp.Diff([]float64{10, 7.5, 100}, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	// idempotent
	if n, err := f.ToNumeric("score"); err != nil || n != 0 {
		t.Fatalf("second ToNumeric = %d, %v", n, err)
	}
}

func TestToNumericUnknownColumn(t *testing.T) {
	f := NewFrame("t", []string{"a"}, nil)
	if _, err := f.ToNumeric("b"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestEmptyFrameColumnsAreText(t *testing.T) {
	f := NewFrame("empty", []string{"popularity", "name"}, nil)
	for _, c := range f.Columns {
		if c.Kind != KindText {
			t.Fatalf("%s kind = %s, want text for a frame without rows", c.Name, c.Kind)
		}
	}
	if f.Len() != 0 {
		t.Fatalf("len = %d", f.Len())
	}
}

func TestFindCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.txt", "hi")
	writeFile(t, dir, "zeta.csv", "a\n1\n")
	writeFile(t, dir, "Beta.CSV", "a\n1\n")
	got, err := FindCSV(dir)
	if err != nil {
		t.Fatalf("FindCSV: %v", err)
	}
	if filepath.Base(got) != "Beta.CSV" {
		t.Fatalf("FindCSV = %s, want Beta.CSV", got)
	}

	empty := t.TempDir()
	writeFile(t, empty, "notes.md", "x")
	if _, err := FindCSV(empty); !errors.Is(err, ErrNoCSV) {
		t.Fatalf("err = %v, want ErrNoCSV", err)
	}
}

func TestLoadTSV(t *testing.T) {
	p := writeFile(t, t.TempDir(), "songs.tsv", "name\tlikes\nA\t3\nB\t4\n")
	f, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	col, err := f.Column("likes")
	if err != nil || col.Kind != KindNumeric {
		t.Fatalf("likes = %#v, %v", col, err)
	}
}

func TestOverview(t *testing.T) {
	p := writeFile(t, t.TempDir(), "songs.csv", songsCSV)
	f, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := f.Overview(2)
	for _, want := range []string{
		"[DATASET OVERVIEW]",
		"File: songs.csv",
		"Shape: (5, 5)",
		"- Popularity: numeric",
		"| Alpha | Band A | Pop | 87 | 210 |",
		"- Duration (s): 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("overview missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Gamma") {
		t.Fatalf("overview printed more than 2 sample rows:\n%s", out)
	}
}

func TestOverviewClipsMultibyteCells(t *testing.T) {
	title := strings.Repeat("ñ", 39) + "üüüüü"
	f := NewFrame("intl.csv", []string{"title", "popularity"}, [][]string{{title, "5"}})
	out := f.Overview(1)
	if !utf8.ValidString(out) {
		t.Fatalf("overview is not valid UTF-8:\n%q", out)
	}
	want := "| " + strings.Repeat("ñ", 37) + "... | 5 |"
	if !strings.Contains(out, want) {
		t.Fatalf("overview missing %q:\n%s", want, out)
	}
	if got := clip("short", 40); got != "short" {
		t.Fatalf("clip short = %q", got)
	}
}
