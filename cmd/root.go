package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/pandenem/internal/config"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global

	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	errMark  = color.New(color.FgRed).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "pandenem",
	Short: "Filter and summarise ENEM microdata",
	Long: `pandenem turns the yearly ENEM microdata releases into validated, trimmed CSV
files and computes the score, income and regional summaries used in reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errMark("✗ Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.pandenem/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to the built-in defaults
		fmt.Fprintf(os.Stderr, "%s failed to load config: %v\n", warnMark("⚠ Warning:"), err)
		cfg = cfgpkg.Default()
		return
	}
	cfg = c
}

// settings returns the loaded configuration, loading it on first use when the
// command runs without Execute (tests).
func settings() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

// newLogger writes structured logs to w at the configured level, or debug
// when --debug is set.
func newLogger(w io.Writer) *slog.Logger {
	level := settings().Level()
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
