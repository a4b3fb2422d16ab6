package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// perCapita maps each row's income bracket to its midpoint divided by the
// household size. Unknown brackets and missing or non-positive sizes give NaN.
func perCapita(op string, df dataframe.DataFrame, topCap float64) ([]float64, error) {
	for _, col := range []string{enem.ColIncome, enem.ColHousehold} {
		if m := enem.MissingColumns(df, col); len(m) > 0 {
			return nil, &enem.ConfigError{Column: col, Reason: op + " needs the income bracket and household size columns"}
		}
	}
	size, err := numeric(op, df, enem.ColHousehold)
	if err != nil {
		return nil, err
	}
	mid := enem.MidpointTable(topCap)
	brackets := df.Col(enem.ColIncome)
	out := make([]float64, len(size))
	for i := range out {
		out[i] = math.NaN()
		el := brackets.Elem(i)
		if el.IsNA() || math.IsNaN(size[i]) || size[i] <= 0 {
			continue
		}
		if m, ok := mid[strings.ToUpper(strings.TrimSpace(el.String()))]; ok {
			out[i] = m / size[i]
		}
	}
	return out, nil
}

// PerCapitaIncome returns the extra passthrough columns followed by
// "per_capita_income". topCap bounds bracket Q; zero selects
// enem.DefaultTopBracketCap.
func PerCapitaIncome(df dataframe.DataFrame, extra []string, topCap float64) (dataframe.DataFrame, error) {
	const op = "per capita income"
	income, err := perCapita(op, df, topCap)
	if err != nil {
		return df, err
	}
	col := series.New(income, series.Float, enem.ColPerCapitaIncome)
	if len(extra) == 0 {
		return build(op, col)
	}
	if err := enem.RequireColumns(op, df, extra...); err != nil {
		return df, err
	}
	out := df.Select(extra).Mutate(col)
	if out.Err != nil {
		return df, fmt.Errorf("%s: %w", op, out.Err)
	}
	return out, nil
}

// UnifiedIncomeByState averages "per_capita_income" per state, sorted by state.
func UnifiedIncomeByState(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const op = "unified income by state"
	if err := enem.RequireColumns(op, df, enem.ColState, enem.ColPerCapitaIncome); err != nil {
		return df, err
	}
	income, err := numeric(op, df, enem.ColPerCapitaIncome)
	if err != nil {
		return df, err
	}
	g := groupBy(labels(df, enem.ColState))
	keys := g.sorted()
	means := make([]float64, len(keys))
	for i, k := range keys {
		means[i] = meanOf(income, g.rows[k])
	}
	return build(op,
		series.New(keys, series.String, enem.ColState),
		series.New(means, series.Float, enem.ColUnifiedIncome),
	)
}

// IncomeScoreCorrelation computes, per year, the Pearson correlation between
// per capita income and composite score over candidates that have both.
func IncomeScoreCorrelation(df dataframe.DataFrame, topCap float64) (dataframe.DataFrame, error) {
	const op = "income score correlation"
	if err := enem.RequireColumns(op, df, enem.ColYear); err != nil {
		return df, err
	}
	income, err := perCapita(op, df, topCap)
	if err != nil {
		return df, err
	}
	avg, err := rowAverages(op, df)
	if err != nil {
		return df, err
	}
	g := groupBy(labels(df, enem.ColYear))
	keys := g.sorted()
	rs := make([]float64, len(keys))
	ns := make([]int, len(keys))
	for i, k := range keys {
		var x, y stats.Float64Data
		for _, r := range g.rows[k] {
			if math.IsNaN(income[r]) || math.IsNaN(avg[r]) {
				continue
			}
			x = append(x, income[r])
			y = append(y, avg[r])
		}
		ns[i] = len(x)
		rs[i] = math.NaN()
		if len(x) < 2 {
			continue
		}
		if r, err := stats.Pearson(x, y); err == nil {
			rs[i] = r
		}
	}
	return build(op,
		yearColumn(keys),
		series.New(ns, series.Int, "pairs"),
		series.New(rs, series.Float, "pearson_r"),
	)
}
