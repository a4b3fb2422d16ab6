package analysis

import (
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// scores loads the five score columns, in enem.ScoreColumns order.
func scores(op string, df dataframe.DataFrame) ([][]float64, error) {
	if err := enem.RequireColumns(op, df, enem.ScoreColumns...); err != nil {
		return nil, err
	}
	out := make([][]float64, len(enem.ScoreColumns))
	for i, col := range enem.ScoreColumns {
		vals, err := numeric(op, df, col)
		if err != nil {
			return nil, err
		}
		out[i] = vals
	}
	return out, nil
}

// rowAverages is the per-row mean of the score columns, skipping missing
// scores. A row without any score averages to NaN.
func rowAverages(op string, df dataframe.DataFrame) ([]float64, error) {
	cols, err := scores(op, df)
	if err != nil {
		return nil, err
	}
	avg := make([]float64, df.Nrow())
	row := make([]float64, len(cols))
	for i := range avg {
		for j := range cols {
			row[j] = cols[j][i]
		}
		avg[i] = nanMean(row)
	}
	return avg, nil
}

// AddRowAverage returns df with an extra "average" column holding each
// candidate's composite score.
func AddRowAverage(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	avg, err := rowAverages("row average", df)
	if err != nil {
		return df, err
	}
	out := df.Mutate(series.New(avg, series.Float, enem.ColAverage))
	if out.Err != nil {
		return df, out.Err
	}
	return out, nil
}

// GrandMean reduces the whole table to one number: the mean of the five
// per-column means.
func GrandMean(df dataframe.DataFrame) (float64, error) {
	cols, err := scores("grand mean", df)
	if err != nil {
		return math.NaN(), err
	}
	means := make([]float64, len(cols))
	for i, c := range cols {
		means[i] = nanMean(c)
	}
	return nanMean(means), nil
}

// AverageByKnowledgeArea returns a single row with the mean of each score
// column under its Portuguese label.
func AverageByKnowledgeArea(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const op = "average by knowledge area"
	cols, err := scores(op, df)
	if err != nil {
		return df, err
	}
	out := make([]series.Series, len(cols))
	for i, c := range cols {
		label := enem.KnowledgeAreaLabels[enem.ScoreColumns[i]]
		out[i] = series.New([]float64{nanMean(c)}, series.Float, label)
	}
	return build(op, out...)
}

// MeanByYear averages each of cols per exam year, one row per year.
func MeanByYear(df dataframe.DataFrame, cols []string) (dataframe.DataFrame, error) {
	const op = "mean by year"
	if len(cols) == 0 {
		return df, &enem.ConfigError{Reason: "no columns to average"}
	}
	if err := enem.RequireColumns(op, df, append([]string{enem.ColYear}, cols...)...); err != nil {
		return df, err
	}
	values := make([][]float64, len(cols))
	for i, c := range cols {
		v, err := numeric(op, df, c)
		if err != nil {
			return df, err
		}
		values[i] = v
	}
	g := groupBy(labels(df, enem.ColYear))
	keys := g.sorted()
	out := []series.Series{yearColumn(keys)}
	for i, c := range cols {
		means := make([]float64, len(keys))
		for k, key := range keys {
			means[k] = meanOf(values[i], g.rows[key])
		}
		out = append(out, series.New(means, series.Float, c))
	}
	return build(op, out...)
}

// PerfectEssayCount counts essays scored exactly 1000 for each requested year,
// in the requested order. Years without candidates count zero. With no years
// every year present in df is reported.
func PerfectEssayCount(df dataframe.DataFrame, years []int) (dataframe.DataFrame, error) {
	const op = "perfect essay count"
	if err := enem.RequireColumns(op, df, enem.ColEssay, enem.ColYear); err != nil {
		return df, err
	}
	essay, err := numeric(op, df, enem.ColEssay)
	if err != nil {
		return df, err
	}
	g := groupBy(labels(df, enem.ColYear))
	keys := g.sorted()
	if len(years) > 0 {
		keys = make([]string, len(years))
		for i, y := range years {
			keys[i] = strconv.Itoa(y)
		}
	}
	counts := make([]int, len(keys))
	for i, k := range keys {
		for _, r := range g.rows[k] {
			if essay[r] == enem.PerfectScore {
				counts[i]++
			}
		}
	}
	return build(op,
		yearColumn(keys),
		series.New(counts, series.Int, enem.ColPerfectEssays),
	)
}
