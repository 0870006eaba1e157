// Package dataset loads a delimited file into an in-memory frame of typed
// cells and prints a textual overview of it.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrNoCSV is returned when a dataset directory holds no CSV file.
var ErrNoCSV = errors.New("no CSV files found in the dataset directory")

// ErrUnknownColumn is returned when a column name is not part of the frame.
var ErrUnknownColumn = errors.New("unknown column")

// CellKind classifies a single cell.
type CellKind int

const (
	Missing CellKind = iota
	Number
	Text
)

// Value is one cell of a Frame.
type Value struct {
	Kind CellKind
	Num  float64
	// Str keeps the raw (trimmed) text for both numbers and strings.
	Str string
}

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool { return v.Kind == Missing }

// String renders the cell as text; missing cells render as "n/a".
func (v Value) String() string {
	switch v.Kind {
	case Missing:
		return "n/a"
	case Number:
		if v.Str != "" {
			return v.Str
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return v.Str
	}
}

// ColumnKind is the inferred type of a whole column.
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
)

// Column is a named, ordered slice of cells.
type Column struct {
	Name   string
	Kind   ColumnKind
	Values []Value
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Frame is an in-memory table loaded from a CSV file.
type Frame struct {
	Name    string
	Columns []*Column
	rows    int
	index   map[string]int
}

// NewFrame builds a frame from a header and raw string rows. Cell kinds and
// column kinds are inferred the same way Load does.
func NewFrame(name string, header []string, rows [][]string) *Frame {
	f := &Frame{Name: name, rows: len(rows), index: make(map[string]int, len(header))}
	for i, h := range header {
		col := &Column{Name: strings.TrimSpace(h), Values: make([]Value, len(rows))}
		for r, row := range rows {
			raw := ""
			if i < len(row) {
				raw = row[i]
			}
			col.Values[r] = parseCell(raw)
		}
		col.Kind = inferKind(col.Values)
		if _, dup := f.index[col.Name]; !dup {
			f.index[col.Name] = i
		}
		f.Columns = append(f.Columns, col)
	}
	return f
}

// Shape returns (rows, columns).
func (f *Frame) Shape() (int, int) { return f.rows, len(f.Columns) }

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// ColumnNames returns column names in original order.
func (f *Frame) ColumnNames() []string {
	out := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by exact name.
func (f *Frame) Column(name string) (*Column, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return f.Columns[i], nil
}

// ToNumeric coerces a column to numeric in place. Cells that do not parse
// become missing; the count of such cells is returned. Calling it on a column
// that is already numeric is a no-op.
func (f *Frame) ToNumeric(name string) (int, error) {
	col, err := f.Column(name)
	if err != nil {
		return 0, err
	}
	if col.Kind == KindNumeric {
		return 0, nil
	}
	coerced := 0
	for i, v := range col.Values {
		switch v.Kind {
		case Number, Missing:
		case Text:
			if n, ok := parseFloat(v.Str); ok {
				col.Values[i] = Value{Kind: Number, Num: n, Str: v.Str}
				continue
			}
			col.Values[i] = Value{Kind: Missing}
			coerced++
		}
	}
	col.Kind = KindNumeric
	return coerced, nil
}

// Row returns the cells of row i in column order.
func (f *Frame) Row(i int) []Value {
	out := make([]Value, len(f.Columns))
	for c, col := range f.Columns {
		out[c] = col.Values[i]
	}
	return out
}

// Load reads a CSV (or TSV) file into a Frame. Rows shorter than the header
// are padded with missing cells; extra cells are dropped.
func Load(path string) (*Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = sniffDelimiter(path)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: %s is empty", filepath.Base(path))
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}
	return NewFrame(filepath.Base(path), header, rows), nil
}

// FindCSV returns the first CSV file in dir (lexical order, case-insensitive
// extension match). Subdirectories are not searched.
func FindCSV(dir string) (string, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return "", err
	}
	for _, name := range files {
		if strings.EqualFold(filepath.Ext(name), ".csv") {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoCSV, dir)
}

// ListFiles returns the names of regular files in dir, sorted.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// naTokens mirrors the strings commonly treated as missing by CSV tooling.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

func parseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if _, na := naTokens[s]; na {
		return Value{Kind: Missing}
	}
	if n, ok := parseFloat(s); ok {
		return Value{Kind: Number, Num: n, Str: s}
	}
	return Value{Kind: Text, Str: s}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// inferKind marks a column numeric when it has rows and no text cells.
func inferKind(vals []Value) ColumnKind {
	if len(vals) == 0 {
		return KindText
	}
	for _, v := range vals {
		if v.Kind == Text {
			return KindText
		}
	}
	return KindNumeric
}
