package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/KaramelBytes/pandenem/internal/dataset"
	"github.com/KaramelBytes/pandenem/internal/enem"
)

// WriteCSVDir saves every sheet as <dir>/<file name>.csv with full precision
// and empty cells for missing values, and returns the paths written.
func WriteCSVDir(dir string, sheets ...Sheet) ([]string, error) {
	if len(sheets) == 0 {
		return nil, &enem.ConfigError{Reason: "no tables to export"}
	}
	paths := make([]string, len(sheets))
	seen := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		name := FileName(s.Name, i)
		if seen[name] {
			return nil, &enem.ConfigError{Reason: fmt.Sprintf("duplicate file name %q", name)}
		}
		seen[name] = true
		paths[i] = filepath.Join(dir, name+".csv")
	}
	for i, s := range sheets {
		if err := dataset.WriteCSV(paths[i], s.Table); err != nil {
			return nil, fmt.Errorf("export %q: %w", s.Name, err)
		}
	}
	return paths, nil
}

// FileName turns a sheet name into a lower-case file stem, e.g. "Internet
// access by year" becomes "internet_access_by_year".
func FileName(name string, i int) string {
	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
		default:
			sep = true
		}
	}
	if b.Len() == 0 {
		return fmt.Sprintf("table%d", i+1)
	}
	return b.String()
}
