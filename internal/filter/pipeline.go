package filter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/schollz/progressbar/v3"

	"github.com/KaramelBytes/pandenem/internal/dataset"
	"github.com/KaramelBytes/pandenem/internal/enem"
	"github.com/KaramelBytes/pandenem/internal/manifest"
)

// Policies for a year whose data fails validation.
const (
	OnInvalidAbort = "abort"
	OnInvalidSkip  = "skip"
)

// Config drives a filter run over several yearly microdata files.
type Config struct {
	Years         []int
	InputPattern  string
	Encoding      string
	Delimiter     string
	OutputDir     string
	OutputPattern string
	ChunkRows     int
	// Columns kept from the raw file. Empty means the rule columns.
	Columns    []string
	Exclusions []enem.Exclusion
	Rules      RuleSet
	DropAfter  []string
	OnInvalid  string
	DryRun     bool
}

// DefaultConfig returns the configuration used for the published datasets.
func DefaultConfig() Config {
	years := append([]int(nil), enem.DefaultYears...)
	return Config{
		Years:         years,
		InputPattern:  "microdados/MICRODADOS_ENEM_{year}.csv",
		Encoding:      "latin1",
		Delimiter:     ";",
		OutputDir:     "filtrados",
		OutputPattern: "{year}_filtrado.csv",
		ChunkRows:     dataset.DefaultChunkRows,
		Exclusions:    enem.DefaultExclusions(),
		Rules:         enem.DefaultRules(years),
		DropAfter:     enem.DefaultDropAfter(),
		OnInvalid:     OnInvalidAbort,
	}
}

// KeptColumns returns the projected columns.
func (c Config) KeptColumns() []string {
	if len(c.Columns) > 0 {
		return c.Columns
	}
	return c.Rules.Columns()
}

// OutputColumns returns the columns written to the filtered files.
func (c Config) OutputColumns() []string {
	var out []string
	for _, col := range c.KeptColumns() {
		if !slices.Contains(c.DropAfter, col) {
			out = append(out, col)
		}
	}
	return out
}

// Validate checks the run configuration before any file is opened.
func (c Config) Validate() error {
	if len(c.Years) == 0 {
		return &enem.ConfigError{Reason: "no years configured"}
	}
	if !strings.Contains(c.InputPattern, "{year}") {
		return &enem.ConfigError{Reason: fmt.Sprintf("input pattern %q has no {year} placeholder", c.InputPattern)}
	}
	if !strings.Contains(c.OutputPattern, "{year}") {
		return &enem.ConfigError{Reason: fmt.Sprintf("output pattern %q has no {year} placeholder", c.OutputPattern)}
	}
	switch c.OnInvalid {
	case OnInvalidAbort, OnInvalidSkip:
	default:
		return &enem.ConfigError{Reason: fmt.Sprintf("on_invalid must be %q or %q, got %q", OnInvalidAbort, OnInvalidSkip, c.OnInvalid)}
	}
	if c.ChunkRows < 0 {
		return &enem.ConfigError{Reason: "chunk_rows must not be negative"}
	}
	if err := c.Rules.Validate(); err != nil {
		return err
	}
	kept := c.KeptColumns()
	for _, col := range c.Rules.Columns() {
		if !slices.Contains(kept, col) {
			return &enem.ConfigError{Column: col, Reason: "rule column is not kept by the projection"}
		}
	}
	for _, ex := range c.Exclusions {
		if !slices.Contains(kept, ex.Column) {
			return &enem.ConfigError{Column: ex.Column, Reason: "exclusion column is not kept by the projection"}
		}
	}
	for _, col := range c.DropAfter {
		if !slices.Contains(kept, col) {
			return &enem.ConfigError{Column: col, Reason: "dropped column is not kept by the projection"}
		}
	}
	if _, err := dataset.Encoding(c.Encoding); err != nil {
		return err
	}
	if _, err := dataset.Delimiter(c.Delimiter); err != nil {
		return err
	}
	return nil
}

// Pipeline filters each configured year from raw microdata into a filtered CSV.
type Pipeline struct {
	cfg      Config
	logger   *slog.Logger
	progress io.Writer
}

// NewPipeline validates cfg. A nil logger discards log output.
func NewPipeline(cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{cfg: cfg, logger: logger}, nil
}

// SetProgress enables a byte progress bar per year rendered to w.
func (p *Pipeline) SetProgress(w io.Writer) { p.progress = w }

// Run processes every year in order and saves the run manifest. With
// on_invalid=abort the first failing year stops the run.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, error) {
	m := manifest.New(p.cfg.OutputDir, p.cfg.OnInvalid, p.cfg.OutputColumns())
	save := func() error {
		if p.cfg.DryRun {
			return nil
		}
		return m.Save()
	}
	for _, year := range p.cfg.Years {
		res, err := p.RunYear(ctx, year)
		m.Record(res)
		if err == nil {
			continue
		}
		if !p.skippable(err) {
			if serr := save(); serr != nil {
				p.logger.Error("save manifest", "error", serr)
			}
			return m, fmt.Errorf("year %d: %w", year, err)
		}
		p.logger.Warn("skipping year", "year", year, "error", err)
	}
	if err := save(); err != nil {
		return m, err
	}
	return m, nil
}

func (p *Pipeline) skippable(err error) bool {
	if p.cfg.OnInvalid != OnInvalidSkip {
		return false
	}
	return !errors.Is(err, enem.ErrConfig) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// RunYear filters a single year. On failure the partial output is removed and
// the returned result carries the failure status.
func (p *Pipeline) RunYear(ctx context.Context, year int) (manifest.YearResult, error) {
	res := manifest.YearResult{
		Year:    year,
		Input:   dataset.YearPath("", p.cfg.InputPattern, year),
		Started: time.Now(),
	}
	if !p.cfg.DryRun {
		res.Output = dataset.YearPath(p.cfg.OutputDir, p.cfg.OutputPattern, year)
	}
	log := p.logger.With("year", year)
	log.Info("filtering", "input", res.Input, "output", res.Output)

	err := p.runYear(ctx, log, &res)
	res.Finished = time.Now()
	if err != nil {
		res.Error = err.Error()
		res.Status = manifest.StatusFailed
		if p.skippable(err) {
			res.Status = manifest.StatusSkipped
		}
		res.RowsWritten = 0
		if res.Status == manifest.StatusFailed {
			log.Error("year failed", "error", err)
		}
		return res, err
	}
	res.Status = manifest.StatusOK
	log.Info("year done", "read", res.RowsRead, "removed", res.RowsRemoved, "written", res.RowsWritten)
	return res, nil
}

func (p *Pipeline) runYear(ctx context.Context, log *slog.Logger, res *manifest.YearResult) error {
	enc, _ := dataset.Encoding(p.cfg.Encoding)
	delim, _ := dataset.Delimiter(p.cfg.Delimiter)

	f, err := os.Open(res.Input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if p.progress != nil {
		var size int64 = -1
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		bar := progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(p.progress),
			progressbar.OptionSetDescription(fmt.Sprintf("ENEM %d", res.Year)),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.progress) }),
		)
		defer bar.Finish()
		src = io.TeeReader(f, bar)
	}

	chunks, err := dataset.NewChunkReader(src, enc, delim, p.cfg.ChunkRows)
	if err != nil {
		return err
	}

	var out *dataset.Writer
	if !p.cfg.DryRun {
		out, err = dataset.Create(res.Output)
		if err != nil {
			return err
		}
	}
	fail := func(err error) error {
		if out != nil {
			if derr := out.Discard(); derr != nil {
				log.Warn("remove partial output", "error", derr)
			}
		}
		return err
	}

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		chunk, err := chunks.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(err)
		}
		kept, removed, err := p.filterChunk(chunk)
		if err != nil {
			return fail(err)
		}
		res.RowsRead += chunk.Nrow()
		res.RowsRemoved += removed
		log.Debug("chunk filtered", "chunk", n, "rows", chunk.Nrow(), "removed", removed)
		if out == nil {
			res.RowsWritten += kept.Nrow()
			continue
		}
		if err := out.Append(kept); err != nil {
			return fail(err)
		}
		res.RowsWritten = out.Rows()
	}
	if out == nil {
		return nil
	}
	if err := out.WriteHeader(p.cfg.OutputColumns()); err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		return fail(err)
	}
	return nil
}

// filterChunk runs projection, removal, validation and the final drop.
func (p *Pipeline) filterChunk(chunk dataframe.DataFrame) (dataframe.DataFrame, int, error) {
	df, err := Project(chunk, p.cfg.KeptColumns())
	if err != nil {
		return df, 0, err
	}
	before := df.Nrow()
	df, err = RemoveRows(df, p.cfg.Exclusions)
	if err != nil {
		return df, 0, err
	}
	removed := before - df.Nrow()
	if err := CheckEntries(df, p.cfg.Rules); err != nil {
		return df, removed, err
	}
	df, err = Drop(df, p.cfg.DropAfter)
	return df, removed, err
}
