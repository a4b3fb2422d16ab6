package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/pandenem/internal/config"
	"github.com/KaramelBytes/pandenem/internal/enem"
	"github.com/KaramelBytes/pandenem/internal/filter"
	"github.com/KaramelBytes/pandenem/internal/manifest"
)

var (
	fltYears     string
	fltInput     string
	fltOutputDir string
	fltChunkRows int
	fltOnInvalid string
	fltDryRun    bool
	fltQuiet     bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter raw yearly microdata into validated CSV files",
	Long: `Reads each year's raw microdata file in chunks, keeps the configured columns,
removes trainees and absent candidates, validates every entry and writes
<output-dir>/<year>_filtrado.csv plus a manifest.json describing the run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fc := settings().FilterConfig()
		if fltYears != "" {
			years, err := cfgpkg.ParseYears(fltYears)
			if err != nil {
				return err
			}
			fc.Years = years
			if len(settings().Rules) == 0 {
				fc.Rules = enem.DefaultRules(years)
			}
		}
		if fltInput != "" {
			fc.InputPattern = fltInput
		}
		if fltOutputDir != "" {
			fc.OutputDir = fltOutputDir
		}
		if fltChunkRows > 0 {
			fc.ChunkRows = fltChunkRows
		}
		if fltOnInvalid != "" {
			fc.OnInvalid = strings.ToLower(fltOnInvalid)
		}
		fc.DryRun = fltDryRun

		p, err := filter.NewPipeline(fc, newLogger(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		if !fltQuiet {
			p.SetProgress(cmd.ErrOrStderr())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		m, runErr := p.Run(ctx)
		printRunSummary(cmd, m, fc.DryRun)
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringVar(&fltYears, "years", "", "years to filter, e.g. 2019,2020 or 2019-2022 (overrides config)")
	filterCmd.Flags().StringVarP(&fltInput, "input", "i", "", "raw file pattern with a {year} placeholder (overrides config)")
	filterCmd.Flags().StringVarP(&fltOutputDir, "output-dir", "o", "", "directory for the filtered files (overrides config)")
	filterCmd.Flags().IntVar(&fltChunkRows, "chunk-rows", 0, "raw rows held in memory at once (overrides config)")
	filterCmd.Flags().StringVar(&fltOnInvalid, "on-invalid", "", "what to do with a year failing validation: abort|skip")
	filterCmd.Flags().BoolVar(&fltDryRun, "dry-run", false, "validate without writing any file")
	filterCmd.Flags().BoolVarP(&fltQuiet, "quiet", "q", false, "hide the progress bar")
}

func printRunSummary(cmd *cobra.Command, m *manifest.Manifest, dryRun bool) {
	if m == nil {
		return
	}
	w := cmd.OutOrStdout()
	for _, r := range m.Years {
		switch r.Status {
		case manifest.StatusOK:
			target := r.Output
			if dryRun {
				target = "(dry run)"
			}
			fmt.Fprintf(w, "%s %d: %d read, %d removed, %d written → %s\n",
				okMark("✓"), r.Year, r.RowsRead, r.RowsRemoved, r.RowsWritten, target)
		case manifest.StatusSkipped:
			fmt.Fprintf(w, "%s %d skipped: %s\n", warnMark("⚠"), r.Year, r.Error)
		default:
			fmt.Fprintf(w, "%s %d failed: %s\n", errMark("✗"), r.Year, r.Error)
		}
	}
	if !dryRun {
		fmt.Fprintf(w, "Manifest: %s\n", filepath.Join(m.Dir(), manifest.FileName))
	}
}
