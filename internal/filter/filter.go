// Package filter implements the cleaning stage of the microdata pipeline:
// column projection, row removal and entry validation, plus the chunked
// per-year pipeline that chains them.
package filter

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// Project narrows df to exactly cols, in the given order.
func Project(df dataframe.DataFrame, cols []string) (dataframe.DataFrame, error) {
	if err := enem.RequireColumns("project", df, cols...); err != nil {
		return df, err
	}
	out := df.Select(cols)
	if out.Err != nil {
		return df, fmt.Errorf("project: %w", out.Err)
	}
	return out, nil
}

// Drop removes cols from df. Absent columns are a schema error.
func Drop(df dataframe.DataFrame, cols []string) (dataframe.DataFrame, error) {
	if len(cols) == 0 {
		return df, nil
	}
	if err := enem.RequireColumns("drop", df, cols...); err != nil {
		return df, err
	}
	out := df.Drop(cols)
	if out.Err != nil {
		return df, fmt.Errorf("drop: %w", out.Err)
	}
	return out, nil
}

// RemoveRows drops every row matching any exclusion. Each exclusion is applied
// as its own pass; missing cells never match.
func RemoveRows(df dataframe.DataFrame, exclusions []enem.Exclusion) (dataframe.DataFrame, error) {
	cols := make([]string, len(exclusions))
	for i, ex := range exclusions {
		cols[i] = ex.Column
	}
	if err := enem.RequireColumns("remove rows", df, cols...); err != nil {
		return df, err
	}
	out := df
	for _, ex := range exclusions {
		if len(ex.Values) == 0 || out.Nrow() == 0 {
			continue
		}
		excluded := valueSet(ex.Values)
		keep := func(el series.Element) bool {
			v, ok := enem.ElementValue(el)
			if !ok {
				return true
			}
			_, hit := excluded[v]
			return !hit
		}
		out = out.Filter(dataframe.F{Colname: ex.Column, Comparator: series.CompFunc, Comparando: keep})
		if out.Err != nil {
			return df, fmt.Errorf("remove rows on %s: %w", ex.Column, out.Err)
		}
	}
	return out, nil
}

func valueSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[enem.CanonicalValue(v)] = struct{}{}
	}
	return m
}
