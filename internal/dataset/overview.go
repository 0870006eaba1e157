package dataset

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Overview renders a console-friendly description of the frame: shape,
// schema, the first sampleRows rows and per-column missing counts.
func (f *Frame) Overview(sampleRows int) string {
	if sampleRows <= 0 {
		sampleRows = 5
	}
	rows, cols := f.Shape()
	var b strings.Builder
	b.WriteString("[DATASET OVERVIEW]\n")
	if f.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", f.Name))
	}
	b.WriteString(fmt.Sprintf("Shape: (%d, %d)\n\n", rows, cols))

	b.WriteString("[COLUMNS]\n")
	for _, c := range f.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s\n", safeVal(c.Name), c.Kind))
	}

	if rows > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n")
		b.WriteString("| ")
		b.WriteString(strings.Join(mapStrings(f.ColumnNames(), safeVal), " | "))
		b.WriteString(" |\n|")
		b.WriteString(strings.Repeat(" --- |", cols))
		b.WriteString("\n")
		for i := 0; i < rows && i < sampleRows; i++ {
			b.WriteString("| ")
			for j, v := range f.Row(i) {
				if j > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(clip(v.String(), 40)))
			}
			b.WriteString(" |\n")
		}
	}

	b.WriteString("\n[MISSING VALUES]\n")
	for _, c := range f.Columns {
		b.WriteString(fmt.Sprintf("- %s: %d\n", safeVal(c.Name), c.MissingCount()))
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

func mapStrings(in []string, fn func(string) string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fn(s)
	}
	return out
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
