// Package manifest records the outcome of a filter run next to its outputs.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/pandenem/internal/utils"
)

// FileName is the manifest written into the output directory.
const FileName = "manifest.json"

// Year outcomes.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// YearResult describes what happened to one year's input.
type YearResult struct {
	Year        int       `json:"year"`
	Input       string    `json:"input"`
	Output      string    `json:"output,omitempty"`
	Status      string    `json:"status"`
	RowsRead    int       `json:"rows_read"`
	RowsRemoved int       `json:"rows_removed"`
	RowsWritten int       `json:"rows_written"`
	Error       string    `json:"error,omitempty"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
}

// Manifest is the per-run record persisted as manifest.json.
type Manifest struct {
	RunID     string       `json:"run_id"`
	OnInvalid string       `json:"on_invalid"`
	Columns   []string     `json:"columns"`
	Years     []YearResult `json:"years"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	dir string
}

// New starts an empty manifest for a run writing into dir.
func New(dir, onInvalid string, columns []string) *Manifest {
	now := time.Now()
	return &Manifest{
		RunID:     uuid.NewString(),
		OnInvalid: onInvalid,
		Columns:   append([]string(nil), columns...),
		CreatedAt: now,
		UpdatedAt: now,
		dir:       dir,
	}
}

// Load reads the manifest stored in dir.
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
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.dir = dir
	return &m, nil
}

// Dir returns the directory the manifest is stored in.
func (m *Manifest) Dir() string { return m.dir }

// Record adds or replaces the result of a year, keeping years sorted.
func (m *Manifest) Record(r YearResult) {
	m.UpdatedAt = time.Now()
	for i := range m.Years {
		if m.Years[i].Year == r.Year {
			m.Years[i] = r
			return
		}
	}
	m.Years = append(m.Years, r)
	sort.Slice(m.Years, func(i, j int) bool { return m.Years[i].Year < m.Years[j].Year })
}

// Result returns the recorded result of year.
func (m *Manifest) Result(year int) (YearResult, bool) {
	for _, r := range m.Years {
		if r.Year == year {
			return r, true
		}
	}
	return YearResult{}, false
}

// Succeeded lists the years whose output was written.
func (m *Manifest) Succeeded() []int {
	var out []int
	for _, r := range m.Years {
		if r.Status == StatusOK {
			out = append(out, r.Year)
		}
	}
	return out
}

// Save writes manifest.json through a temp file in the same directory, so a
// reader never sees a half-written manifest.
func (m *Manifest) Save() error {
	if m.dir == "" {
		return errors.New("manifest directory not set")
	}
	if err := utils.EnsureDir(m.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return replaceFile(filepath.Join(m.dir, FileName), append(data, '\n'))
}

func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
