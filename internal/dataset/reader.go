// Package dataset reads raw microdata and filtered datasets into gota tables and
// writes filtered tables back to disk.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// DefaultChunkRows bounds how many raw records are held in memory at once.
const DefaultChunkRows = 200000

// Encoding resolves a configured encoding name. Microdata ships as Latin-1.
func Encoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	default:
		return nil, &enem.ConfigError{Reason: fmt.Sprintf("unsupported encoding %q (use latin1, cp1252 or utf-8)", name)}
	}
}

// Delimiter parses a configured delimiter.
func Delimiter(s string) (rune, error) {
	switch s {
	case ",":
		return ',', nil
	case ";", "":
		return ';', nil
	case "\t", "tab":
		return '\t', nil
	case "|":
		return '|', nil
	default:
		return 0, &enem.ConfigError{Reason: fmt.Sprintf("unsupported delimiter %q", s)}
	}
}

// ChunkReader streams a raw microdata file as a sequence of all-string tables.
type ChunkReader struct {
	r      *csv.Reader
	header []string
	size   int
	rows   int
}

// NewChunkReader decodes r with enc and reads the header row.
func NewChunkReader(r io.Reader, enc encoding.Encoding, delim rune, chunkRows int) (*ChunkReader, error) {
	if enc != nil {
		r = enc.NewDecoder().Reader(r)
	}
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}
	return &ChunkReader{r: cr, header: header, size: chunkRows}, nil
}

// Header returns the column names of the file.
func (c *ChunkReader) Header() []string { return c.header }

// Rows returns how many data records have been read so far.
func (c *ChunkReader) Rows() int { return c.rows }

// Next returns the next chunk, or io.EOF when the file is exhausted.
func (c *ChunkReader) Next() (dataframe.DataFrame, error) {
	ncol := len(c.header)
	records := make([][]string, 0, c.size+1)
	records = append(records, c.header)
	for len(records)-1 < c.size {
		rec, err := c.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return dataframe.DataFrame{}, fmt.Errorf("read row %d: %w", c.rows+1, err)
		}
		c.rows++
		// pad or trim ragged rows
		if len(rec) != ncol {
			tmp := make([]string, ncol)
			copy(tmp, rec)
			rec = tmp
		}
		records = append(records, rec)
	}
	if len(records) == 1 {
		return dataframe.DataFrame{}, io.EOF
	}
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(enem.MissingValues),
	)
	if df.Err != nil {
		return df, fmt.Errorf("load chunk: %w", df.Err)
	}
	return df, nil
}

// ReadFiltered loads a filtered dataset with the schema's column types.
func ReadFiltered(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Load(f, ',')
}

// Load reads a UTF-8 table from r using the schema's column types. A table
// holding only its header loads as a zero-row frame with typed columns.
func Load(r io.Reader, delim rune) (dataframe.DataFrame, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return dataframe.DataFrame{}, fmt.Errorf("load dataset: %w", err)
	}
	if strings.TrimSpace(line) == "" {
		return dataframe.DataFrame{}, fmt.Errorf("load dataset: empty file")
	}
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		return headerOnly(line, delim)
	}
	df := dataframe.ReadCSV(io.MultiReader(strings.NewReader(line), br),
		dataframe.WithDelimiter(delim),
		dataframe.WithLazyQuotes(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(enem.ColumnTypes),
		dataframe.NaNValues(enem.MissingValues),
	)
	if df.Err != nil {
		return df, fmt.Errorf("load dataset: %w", df.Err)
	}
	return df, nil
}

func headerOnly(line string, delim rune) (dataframe.DataFrame, error) {
	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = delim
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load dataset: read header: %w", err)
	}
	cols := make([]series.Series, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		t, ok := enem.ColumnTypes[name]
		if !ok {
			t = series.String
		}
		cols[i] = series.New([]string{}, t, name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return df, fmt.Errorf("load dataset: %w", df.Err)
	}
	return df, nil
}

// YearPath expands the {year} placeholder of pattern and joins it under dir.
func YearPath(dir, pattern string, year int) string {
	name := strings.ReplaceAll(pattern, "{year}", strconv.Itoa(year))
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// ReadYears loads the filtered dataset of every requested year, in order.
func ReadYears(dir, pattern string, years []int) ([]dataframe.DataFrame, error) {
	if len(years) == 0 {
		return nil, &enem.ConfigError{Reason: "no years requested"}
	}
	out := make([]dataframe.DataFrame, 0, len(years))
	for _, y := range years {
		df, err := ReadFiltered(YearPath(dir, pattern, y))
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", y, err)
		}
		out = append(out, df)
	}
	return out, nil
}
