package cmd

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pandenem/internal/analysis"
	cfgpkg "github.com/KaramelBytes/pandenem/internal/config"
	"github.com/KaramelBytes/pandenem/internal/dataset"
	"github.com/KaramelBytes/pandenem/internal/enem"
	"github.com/KaramelBytes/pandenem/internal/report"
)

var (
	repDir       string
	repYears     string
	repStates    []string
	repRegion    string
	repFormat    string
	repXLSX      string
	repCSVDir    string
	repTopN      int
	repAscending bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarise filtered datasets",
	Long: `Loads the filtered CSV files of the selected years, optionally narrows them to
some states or a region, and prints one of the summaries below.`,
}

// reportKind is one report subcommand.
type reportKind struct {
	use   string
	short string
	args  cobra.PositionalArgs
	build func(df dataframe.DataFrame, args []string) ([]report.Sheet, error)
}

var reportKinds = []reportKind{
	{
		use:   "knowledge-areas",
		short: "Mean score of each knowledge area and the grand mean",
		build: func(df dataframe.DataFrame, _ []string) ([]report.Sheet, error) {
			areas, err := analysis.AverageByKnowledgeArea(df)
			if err != nil {
				return nil, err
			}
			grand, err := analysis.GrandMean(df)
			if err != nil {
				return nil, err
			}
			return []report.Sheet{
				{Name: "Knowledge areas", Table: areas},
				{Name: "Grand mean", Table: dataframe.New(series.New([]float64{grand}, series.Float, "grand_mean"))},
			}, nil
		},
	},
	{
		use:   "yearly [columns...]",
		short: "Mean of score columns per year",
		build: func(df dataframe.DataFrame, args []string) ([]report.Sheet, error) {
			cols := args
			if len(cols) == 0 {
				cols = enem.ScoreColumns
			}
			return one("Yearly means")(analysis.MeanByYear(df, cols))
		},
	},
	{
		use:   "regional",
		short: "Composite average per region and year",
		build: func(df dataframe.DataFrame, _ []string) ([]report.Sheet, error) {
			withAvg, err := analysis.AddRowAverage(df)
			if err != nil {
				return nil, err
			}
			return one("Regional averages")(analysis.RegionalYearlyAverage(withAvg))
		},
	},
	{
		use:   "states",
		short: "Composite average per state and year",
		build: func(df dataframe.DataFrame, _ []string) ([]report.Sheet, error) {
			withAvg, err := analysis.AddRowAverage(df)
			if err != nil {
				return nil, err
			}
			return one("State averages")(analysis.UnifiedScoreByStateYear(withAvg))
		},
	},
	{
		use:   "income",
		short: "Mean per capita household income per state",
		build: func(df dataframe.DataFrame, _ []string) ([]report.Sheet, error) {
			pc, err := analysis.PerCapitaIncome(df, []string{enem.ColState}, settings().IncomeTopCap)
			if err != nil {
				return nil, err
			}
			return one("Income by state")(analysis.UnifiedIncomeByState(pc))
		},
	},
	{
		use:   "correlation",
		short: "Correlation between per capita income and composite average per year",
		build: func(df dataframe.DataFrame, _ []string) ([]report.Sheet, error) {
			return one("Income and score")(analysis.IncomeScoreCorrelation(df, settings().IncomeTopCap))
		},
	},
	{
		use:   "internet",
		short: "Composite average with and without internet at home",
		build: func(df dataframe.DataFrame, _ []string) ([]report.Sheet, error) {
			all, err := analysis.InternetAccessComparison(df)
			if err != nil {
				return nil, err
			}
			byYear, err := analysis.InternetAccessByYear(df)
			if err != nil {
				return nil, err
			}
			return []report.Sheet{
				{Name: "Internet access", Table: all},
				{Name: "Internet access by year", Table: byYear},
			}, nil
		},
	},
	{
		use:   "perfect-essays",
		short: "Number of essays scored 1000 per year",
		build: func(df dataframe.DataFrame, _ []string) ([]report.Sheet, error) {
			years, err := selectedYears()
			if err != nil {
				return nil, err
			}
			return one("Perfect essays")(analysis.PerfectEssayCount(df, years))
		},
	},
	{
		use:   "frequency",
		short: "Candidates per state",
		build: func(df dataframe.DataFrame, _ []string) ([]report.Sheet, error) {
			return one("Candidates per state")(analysis.StateFrequency(df))
		},
	},
	{
		use:   "shares <column>",
		short: "Count and share of each answer of a column",
		args:  cobra.ExactArgs(1),
		build: func(df dataframe.DataFrame, args []string) ([]report.Sheet, error) {
			return one("Shares of "+args[0])(analysis.ValueShares(df, args[0]))
		},
	},
	{
		use:   "describe [columns...]",
		short: "Summary statistics of numeric columns",
		build: func(df dataframe.DataFrame, args []string) ([]report.Sheet, error) {
			return one("Summary")(analysis.Describe(df.Drop([]string{analysis.ColStackKey, analysis.ColStackRow}), args))
		},
	},
	{
		use:   "top",
		short: "Candidates with the best (or worst) composite average",
		build: func(df dataframe.DataFrame, _ []string) ([]report.Sheet, error) {
			n := repTopN
			if n <= 0 {
				n = settings().TopN
			}
			title := fmt.Sprintf("Top %d", n)
			if repAscending {
				title = fmt.Sprintf("Bottom %d", n)
			}
			return one(title)(analysis.TopNByAverage(df, n, repAscending))
		},
	},
}

// one wraps a single analysis result as a named sheet.
func one(name string) func(dataframe.DataFrame, error) ([]report.Sheet, error) {
	return func(df dataframe.DataFrame, err error) ([]report.Sheet, error) {
		if err != nil {
			return nil, err
		}
		return []report.Sheet{{Name: name, Table: df}}, nil
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)
	pf := reportCmd.PersistentFlags()
	pf.StringVarP(&repDir, "dir", "d", "", "directory holding the filtered files (default output_dir)")
	pf.StringVar(&repYears, "years", "", "years to load, e.g. 2019,2020 or 2019-2022 (default config years)")
	pf.StringSliceVar(&repStates, "state", nil, "keep only these states (repeatable or comma separated)")
	pf.StringVar(&repRegion, "region", "", "keep only one region: norte|nordeste|centro_oeste|sudeste|sul")
	pf.StringVarP(&repFormat, "format", "f", report.FormatTable, "output format: table|markdown|csv")
	pf.StringVar(&repXLSX, "xlsx", "", "also export the result to this .xlsx file")
	pf.StringVar(&repCSVDir, "csv-dir", "", "also save each result table as a CSV file in this directory")

	for _, k := range reportKinds {
		k := k // per-iteration copy; go.mod targets go 1.21
		c := &cobra.Command{
			Use:   k.use,
			Short: k.short,
			Args:  k.args,
			RunE: func(cmd *cobra.Command, args []string) error {
				df, err := loadFiltered()
				if err != nil {
					return err
				}
				sheets, err := k.build(df, args)
				if err != nil {
					return err
				}
				return emit(cmd, sheets)
			},
		}
		if c.Args == nil {
			c.Args = cobra.ArbitraryArgs
		}
		if strings.HasPrefix(k.use, "top") {
			c.Flags().IntVarP(&repTopN, "n", "n", 0, "number of candidates (default top_n)")
			c.Flags().BoolVar(&repAscending, "ascending", false, "lowest averages first")
		}
		reportCmd.AddCommand(c)
	}
}

func selectedYears() ([]int, error) {
	if repYears != "" {
		return cfgpkg.ParseYears(repYears)
	}
	return settings().FilterConfig().Years, nil
}

// loadFiltered reads and stacks the selected years, then applies the state and
// region filters.
func loadFiltered() (dataframe.DataFrame, error) {
	years, err := selectedYears()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	fc := settings().FilterConfig()
	dir := repDir
	if dir == "" {
		dir = fc.OutputDir
	}
	tables, err := dataset.ReadYears(dir, fc.OutputPattern, years)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	df, err := analysis.Stack(tables...)
	if err != nil {
		return df, err
	}
	if len(repStates) > 0 {
		// Years are already narrowed by what was loaded; a year whose filtered
		// file holds no rows must not fail the state filter.
		if df, err = analysis.YearAndStateSubset(df, repStates, nil); err != nil {
			return df, err
		}
	}
	if repRegion != "" {
		if df, err = analysis.RegionSubset(df, repRegion); err != nil {
			return df, err
		}
	}
	return df, nil
}

func emit(cmd *cobra.Command, sheets []report.Sheet) error {
	for i, s := range sheets {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if err := report.Render(cmd.OutOrStdout(), s.Name, s.Table, repFormat); err != nil {
			return err
		}
	}
	if repXLSX != "" {
		if err := report.WriteXLSX(repXLSX, sheets...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s Wrote %s\n", okMark("✓"), repXLSX)
	}
	if repCSVDir != "" {
		paths, err := report.WriteCSVDir(repCSVDir, sheets...)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s Wrote %s\n", okMark("✓"), p)
		}
	}
	return nil
}
