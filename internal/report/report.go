// Package report renders analysis tables for the terminal and exports them to
// spreadsheets.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// Output formats accepted by Render.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// Formats lists the accepted format names.
var Formats = []string{FormatTable, FormatMarkdown, FormatCSV}

// ParseFormat normalises a format name. "md" is accepted for markdown and the
// empty string selects the table format.
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatTable:
		return FormatTable, nil
	case "md", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", &enem.ConfigError{Reason: fmt.Sprintf("unknown format %q (expected one of %s)", name, strings.Join(Formats, ", "))}
}

// Render writes df to w in the given format. title is printed above table and
// markdown output and ignored for csv.
func Render(w io.Writer, title string, df dataframe.DataFrame, format string) error {
	if df.Err != nil {
		return df.Err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if f != FormatCSV && df.Nrow() == 0 {
		if title != "" {
			_, _ = fmt.Fprintln(w, title)
		}
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" && f != FormatCSV {
		t.SetTitle(title)
	}

	names := df.Names()
	header := make(table.Row, len(names))
	configs := make([]table.ColumnConfig, 0, len(names))
	for i, n := range names {
		header[i] = n
		if enem.IsNumeric(df.Col(n).Type()) {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	cols := make([]series.Series, len(names))
	for i, n := range names {
		cols[i] = df.Col(n)
	}
	cell := Cell
	if f == FormatCSV {
		cell = csvCell
	}
	for r := 0; r < df.Nrow(); r++ {
		row := make(table.Row, len(cols))
		for c, s := range cols {
			row[c] = cell(s.Elem(r))
		}
		t.AppendRow(row)
	}

	switch f {
	case FormatMarkdown:
		t.RenderMarkdown()
	case FormatCSV:
		t.RenderCSV()
	default:
		t.Render()
		_, _ = fmt.Fprintf(w, "(%d rows)\n", df.Nrow())
	}
	return nil
}

// Cell formats one element for display: floats with two decimals, missing
// values as "-".
func Cell(el series.Element) string {
	if el.IsNA() {
		return "-"
	}
	switch el.Type() {
	case series.Float:
		return strconv.FormatFloat(el.Float(), 'f', 2, 64)
	case series.Int:
		v, err := el.Int()
		if err == nil {
			return strconv.Itoa(v)
		}
	}
	return el.String()
}

func csvCell(el series.Element) string {
	if el.IsNA() {
		return ""
	}
	return Cell(el)
}
