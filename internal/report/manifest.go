// Package report persists a summary of one analysis run.
package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/songlens-cli/internal/analysis"
	"github.com/KaramelBytes/songlens-cli/internal/columns"
	"github.com/KaramelBytes/songlens-cli/internal/utils"
)

// FileName is the manifest written next to the charts.
const FileName = "summary.yaml"

// Entry is the persisted form of one analysis result.
type Entry struct {
	Name   string   `yaml:"name"`
	Status string   `yaml:"status"`
	Charts []string `yaml:"charts,omitempty"`
	Reason string   `yaml:"reason,omitempty"`
	Error  string   `yaml:"error,omitempty"`
	Notes  []string `yaml:"notes,omitempty"`
}

// Manifest describes a run: what was analyzed and what came out.
type Manifest struct {
	RunID       string            `yaml:"run_id"`
	GeneratedAt time.Time         `yaml:"generated_at"`
	Dataset     string            `yaml:"dataset"`
	Rows        int               `yaml:"rows"`
	Columns     int               `yaml:"columns"`
	Roles       map[string]string `yaml:"roles"`
	Analyses    []Entry           `yaml:"analyses"`
}

// New builds a manifest with a fresh run ID.
func New(dataset string, rows, cols int, res columns.Resolution, results []analysis.Result) *Manifest {
	m := &Manifest{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Dataset:     dataset,
		Rows:        rows,
		Columns:     cols,
		Roles:       res.Map(),
	}
	for _, r := range results {
		e := Entry{Name: r.Name, Status: string(r.Status), Reason: r.Reason, Notes: r.Notes}
		for _, c := range r.Charts {
			e.Charts = append(e.Charts, filepath.Base(c))
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		m.Analyses = append(m.Analyses, e)
	}
	return m
}

// Counts returns how many analyses ended in each status.
func (m *Manifest) Counts() map[string]int {
	out := map[string]int{}
	for _, e := range m.Analyses {
		out[e.Status]++
	}
	return out
}

// Save writes the manifest into dir atomically and returns its path.
func (m *Manifest) Save(dir string) (string, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := utils.SafeWriteFile(path, b); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a manifest from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
