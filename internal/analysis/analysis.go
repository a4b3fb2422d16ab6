// Package analysis computes derived columns and grouped summaries over filtered
// ENEM tables. Every function returns a new table; inputs are never modified.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// numeric returns col as floats (NaN for missing) after checking it exists and
// holds numbers.
func numeric(op string, df dataframe.DataFrame, col string) ([]float64, error) {
	if err := enem.RequireColumns(op, df, col); err != nil {
		return nil, err
	}
	if err := enem.RequireNumeric(op, df, col); err != nil {
		return nil, err
	}
	return df.Col(col).Float(), nil
}

// labels returns the canonical string of each cell of col ("" for missing).
func labels(df dataframe.DataFrame, col string) []string {
	s := df.Col(col)
	out := make([]string, s.Len())
	for i := range out {
		v, _ := enem.ElementValue(s.Elem(i))
		out[i] = v
	}
	return out
}

// present drops NaN values.
func present(vals []float64) stats.Float64Data {
	out := make(stats.Float64Data, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// nanMean is the mean of the non-missing values, NaN when there are none.
func nanMean(vals []float64) float64 {
	m, err := stats.Mean(present(vals))
	if err != nil {
		return math.NaN()
	}
	return m
}

// groups partitions row indexes by key, keeping first-appearance order. Rows
// with an empty key are left out.
type groups struct {
	keys []string
	rows map[string][]int
}

func groupBy(keys []string) groups {
	g := groups{rows: make(map[string][]int)}
	for i, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := g.rows[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.rows[k] = append(g.rows[k], i)
	}
	return g
}

// sorted orders group keys, numerically when every key is a number.
func (g groups) sorted() []string {
	out := append([]string(nil), g.keys...)
	sort.SliceStable(out, func(i, j int) bool { return lessKey(out[i], out[j]) })
	return out
}

func lessKey(a, b string) bool {
	fa, ea := strconv.ParseFloat(a, 64)
	fb, eb := strconv.ParseFloat(b, 64)
	if ea == nil && eb == nil {
		return fa < fb
	}
	return a < b
}

// meanOf averages vals over the given rows.
func meanOf(vals []float64, rows []int) float64 {
	picked := make([]float64, len(rows))
	for i, r := range rows {
		picked[i] = vals[r]
	}
	return nanMean(picked)
}

// yearColumn converts sorted year keys into an Int series.
func yearColumn(keys []string) series.Series {
	years := make([]int, len(keys))
	for i, k := range keys {
		f, err := strconv.ParseFloat(k, 64)
		if err != nil {
			years[i] = 0
			continue
		}
		years[i] = int(f)
	}
	return series.New(years, series.Int, enem.ColYear)
}

// build assembles a result table.
func build(op string, cols ...series.Series) (dataframe.DataFrame, error) {
	df := dataframe.New(cols...)
	if df.Err != nil {
		return df, fmt.Errorf("%s: %w", op, df.Err)
	}
	return df, nil
}

// keep subsets df to the rows where pick returns true.
func keep(op string, df dataframe.DataFrame, pick []bool) (dataframe.DataFrame, error) {
	var idx []int
	for i, ok := range pick {
		if ok {
			idx = append(idx, i)
		}
	}
	if idx == nil {
		idx = []int{}
	}
	out := df.Subset(idx)
	if out.Err != nil {
		return out, fmt.Errorf("%s: %w", op, out.Err)
	}
	return out, nil
}
