package analysis

import (
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// UnifiedScoreByStateYear averages the "average" column per (state, year),
// sorted by state then year.
func UnifiedScoreByStateYear(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const op = "unified score by state and year"
	if err := enem.RequireColumns(op, df, enem.ColState, enem.ColYear, enem.ColAverage); err != nil {
		return df, err
	}
	avg, err := numeric(op, df, enem.ColAverage)
	if err != nil {
		return df, err
	}
	states := labels(df, enem.ColState)
	years := labels(df, enem.ColYear)
	type key struct{ state, year string }
	rows := make(map[key][]int)
	var keys []key
	for i := range states {
		if states[i] == "" || years[i] == "" {
			continue
		}
		k := key{states[i], years[i]}
		if _, ok := rows[k]; !ok {
			keys = append(keys, k)
		}
		rows[k] = append(rows[k], i)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].state != keys[j].state {
			return keys[i].state < keys[j].state
		}
		return lessKey(keys[i].year, keys[j].year)
	})
	outStates := make([]string, len(keys))
	outYears := make([]string, len(keys))
	means := make([]float64, len(keys))
	for i, k := range keys {
		outStates[i], outYears[i] = k.state, k.year
		means[i] = meanOf(avg, rows[k])
	}
	return build(op,
		series.New(outStates, series.String, enem.ColState),
		yearColumn(outYears),
		series.New(means, series.Float, enem.ColUnifiedScore),
	)
}

// RegionalYearlyAverage returns one row per year with the mean "average" of
// each macro-region and the nationwide mean. Regions without candidates in a
// year are NaN.
func RegionalYearlyAverage(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const op = "regional yearly average"
	if err := enem.RequireColumns(op, df, enem.ColYear, enem.ColState, enem.ColAverage); err != nil {
		return df, err
	}
	avg, err := numeric(op, df, enem.ColAverage)
	if err != nil {
		return df, err
	}
	states := labels(df, enem.ColState)
	g := groupBy(labels(df, enem.ColYear))
	keys := g.sorted()

	regional := make(map[string][]float64, len(enem.Regions))
	for _, r := range enem.Regions {
		regional[r.Label] = make([]float64, len(keys))
	}
	national := make([]float64, len(keys))
	for i, k := range keys {
		byRegion := make(map[string][]int)
		for _, r := range g.rows[k] {
			if label := enem.RegionOf(states[r]); label != "" {
				byRegion[label] = append(byRegion[label], r)
			}
		}
		for _, r := range enem.Regions {
			regional[r.Label][i] = meanOf(avg, byRegion[r.Label])
		}
		national[i] = meanOf(avg, g.rows[k])
	}

	out := []series.Series{yearColumn(keys)}
	for _, r := range enem.Regions {
		out = append(out, series.New(regional[r.Label], series.Float, r.Label))
	}
	out = append(out, series.New(national, series.Float, enem.ColNationwide))
	return build(op, out...)
}

// StateFrequency counts candidates per state, most frequent first.
func StateFrequency(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const op = "state frequency"
	if err := enem.RequireColumns(op, df, enem.ColState); err != nil {
		return df, err
	}
	g := groupBy(upperAll(labels(df, enem.ColState)))
	keys := g.sorted()
	sort.SliceStable(keys, func(i, j int) bool { return len(g.rows[keys[i]]) > len(g.rows[keys[j]]) })
	counts := make([]int, len(keys))
	for i, k := range keys {
		counts[i] = len(g.rows[k])
	}
	return build(op,
		series.New(keys, series.String, enem.ColState),
		series.New(counts, series.Int, "candidates"),
	)
}

// ValueShares counts each distinct non-missing value of col and its share of
// the answered rows.
func ValueShares(df dataframe.DataFrame, col string) (dataframe.DataFrame, error) {
	const op = "value shares"
	if strings.TrimSpace(col) == "" {
		return df, &enem.ConfigError{Reason: "no column given"}
	}
	if err := enem.RequireColumns(op, df, col); err != nil {
		return df, err
	}
	g := groupBy(labels(df, col))
	keys := g.sorted()
	total := 0
	for _, rows := range g.rows {
		total += len(rows)
	}
	counts := make([]int, len(keys))
	shares := make([]float64, len(keys))
	for i, k := range keys {
		counts[i] = len(g.rows[k])
		shares[i] = float64(counts[i]) / float64(total)
	}
	return build(op,
		series.New(keys, series.String, col),
		series.New(counts, series.Int, "count"),
		series.New(shares, series.Float, "share"),
	)
}
