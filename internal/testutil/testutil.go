// Package testutil holds helpers shared by package tests.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/charmap"
)

// NewTestLogger returns a logger that writes to t.Log, so output only shows on
// failure or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(logWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type logWriter struct{ t testing.TB }

func (w logWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Frame builds a table from columns and fails the test on error.
func Frame(t testing.TB, cols ...series.Series) dataframe.DataFrame {
	t.Helper()
	df := dataframe.New(cols...)
	if df.Err != nil {
		t.Fatalf("build frame: %v", df.Err)
	}
	return df
}

// Strings is a string column.
func Strings(name string, vals ...string) series.Series {
	return series.New(vals, series.String, name)
}

// Floats is a float column. NaN entries are missing.
func Floats(name string, vals ...float64) series.Series {
	return series.New(vals, series.Float, name)
}

// Ints is an int column.
func Ints(name string, vals ...int) series.Series {
	return series.New(vals, series.Int, name)
}

// WriteLatin1 writes content encoded as ISO-8859-1 to dir/name and returns the
// path.
func WriteLatin1(t testing.TB, dir, name, content string) string {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(content))
	if err != nil {
		t.Fatalf("encode latin1: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Chdir changes the working directory to dir and restores it when the test
// ends, like testing.T.Chdir on newer Go releases.
func Chdir(t testing.TB, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory %s: %v", prev, err)
		}
	})
}
