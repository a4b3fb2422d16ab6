package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/pandenem/internal/enem"
	"github.com/KaramelBytes/pandenem/internal/utils"
)

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

// Sheet is one named table of a workbook.
type Sheet struct {
	Name  string
	Table dataframe.DataFrame
}

// WriteXLSX saves sheets as a workbook at path, one worksheet per table with the
// column names in the first row. Numbers are stored as numbers and missing
// values as empty cells.
func WriteXLSX(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return &enem.ConfigError{Reason: "no sheets to export"}
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	seen := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		if s.Table.Err != nil {
			return s.Table.Err
		}
		name := SheetName(s.Name, i)
		if seen[strings.ToLower(name)] {
			return &enem.ConfigError{Reason: fmt.Sprintf("duplicate sheet name %q", name)}
		}
		seen[strings.ToLower(name)] = true

		if i == 0 {
			if err := f.SetSheetName(f.GetSheetList()[0], name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, s.Table); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, df dataframe.DataFrame) error {
	names := df.Names()
	for c, n := range names {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, n); err != nil {
			return err
		}
	}
	for c, n := range names {
		s := df.Col(n)
		for r := 0; r < s.Len(); r++ {
			el := s.Elem(r)
			if el.IsNA() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(el)); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellValue(el series.Element) interface{} {
	switch el.Type() {
	case series.Float:
		return el.Float()
	case series.Int:
		if v, err := el.Int(); err == nil {
			return v
		}
	case series.Bool:
		if v, err := el.Bool(); err == nil {
			return v
		}
	}
	return el.String()
}

// SheetName makes name a valid worksheet name: forbidden characters become
// "_", it is cut to 31 characters and an empty name becomes "Sheet<i+1>".
func SheetName(name string, i int) string {
	name = strings.TrimSpace(strings.NewReplacer(
		":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
	).Replace(name))
	name = strings.Trim(name, "'")
	if name == "" {
		return fmt.Sprintf("Sheet%d", i+1)
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}
