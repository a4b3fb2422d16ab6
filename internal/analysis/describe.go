package analysis

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// Describe summarises numeric columns: count, missing, min, max, mean, median
// and sample standard deviation. With no cols every numeric column is used.
func Describe(df dataframe.DataFrame, cols []string) (dataframe.DataFrame, error) {
	const op = "describe"
	if len(cols) == 0 {
		for _, c := range df.Names() {
			if enem.IsNumeric(df.Col(c).Type()) {
				cols = append(cols, c)
			}
		}
		if len(cols) == 0 {
			return df, &enem.ConfigError{Reason: "table has no numeric columns"}
		}
	}
	if err := enem.RequireColumns(op, df, cols...); err != nil {
		return df, err
	}
	n := len(cols)
	count := make([]int, n)
	missing := make([]int, n)
	mins := make([]float64, n)
	maxs := make([]float64, n)
	means := make([]float64, n)
	medians := make([]float64, n)
	stds := make([]float64, n)
	for i, c := range cols {
		vals, err := numeric(op, df, c)
		if err != nil {
			return df, err
		}
		data := present(vals)
		count[i] = len(data)
		missing[i] = len(vals) - len(data)
		mins[i], maxs[i], means[i], medians[i], stds[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		if len(data) == 0 {
			continue
		}
		mins[i], _ = stats.Min(data)
		maxs[i], _ = stats.Max(data)
		means[i], _ = stats.Mean(data)
		medians[i], _ = stats.Median(data)
		if len(data) > 1 {
			stds[i], _ = stats.StandardDeviationSample(data)
		}
	}
	return build(op,
		series.New(cols, series.String, "column"),
		series.New(count, series.Int, "count"),
		series.New(missing, series.Int, "missing"),
		series.New(mins, series.Float, "min"),
		series.New(maxs, series.Float, "max"),
		series.New(means, series.Float, "mean"),
		series.New(medians, series.Float, "median"),
		series.New(stds, series.Float, "std"),
	)
}
