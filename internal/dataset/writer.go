package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Writer appends tables to a single UTF-8, comma-delimited CSV file. The header
// is written with the first table; later tables must share its columns.
type Writer struct {
	path   string
	f      *os.File
	w      *csv.Writer
	header []string
	rows   int
}

// Create truncates or creates path, making parent directories as needed.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return &Writer{path: path, f: f, w: csv.NewWriter(f)}, nil
}

// Path returns the file being written.
func (w *Writer) Path() string { return w.path }

// Rows returns how many data rows were written.
func (w *Writer) Rows() int { return w.rows }

// WriteHeader writes cols as the header unless a header was already written.
func (w *Writer) WriteHeader(cols []string) error {
	if w.header != nil {
		return nil
	}
	w.header = append([]string(nil), cols...)
	if err := w.w.Write(w.header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.w.Flush()
	return w.w.Error()
}

// Append writes df's rows, preceded by the header on the first call.
func (w *Writer) Append(df dataframe.DataFrame) error {
	names := df.Names()
	if w.header == nil {
		if err := w.WriteHeader(names); err != nil {
			return err
		}
	} else if !slices.Equal(w.header, names) {
		return fmt.Errorf("append to %s: columns %v do not match header %v", w.path, names, w.header)
	}
	for _, rec := range Records(df) {
		if err := w.w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.rows += df.Nrow()
	w.w.Flush()
	return w.w.Error()
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	return w.f.Close()
}

// Discard closes and removes the partially written file.
func (w *Writer) Discard() error {
	_ = w.f.Close()
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove partial output: %w", err)
	}
	return nil
}

// WriteCSV writes df to path in one go.
func WriteCSV(path string, df dataframe.DataFrame) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if err := w.Append(df); err != nil {
		_ = w.Discard()
		return err
	}
	return w.Close()
}

// Records renders df's rows as strings: missing cells are empty and floats use
// the shortest exact representation.
func Records(df dataframe.DataFrame) [][]string {
	nrow, ncol := df.Dims()
	cols := make([]series.Series, ncol)
	for j, name := range df.Names() {
		cols[j] = df.Col(name)
	}
	out := make([][]string, nrow)
	for i := 0; i < nrow; i++ {
		rec := make([]string, ncol)
		for j := range cols {
			rec[j] = FormatElement(cols[j].Elem(i))
		}
		out[i] = rec
	}
	return out
}

// FormatElement renders one cell the way filtered datasets store it.
func FormatElement(el series.Element) string {
	if el.IsNA() {
		return ""
	}
	if el.Type() == series.Float {
		return strconv.FormatFloat(el.Float(), 'f', -1, 64)
	}
	return el.String()
}
