package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// TopNByAverage adds the composite "average" column and returns the n best
// candidates (or the n worst when ascending). Ties keep their input order and
// candidates without any score come last.
func TopNByAverage(df dataframe.DataFrame, n int, ascending bool) (dataframe.DataFrame, error) {
	const op = "top n by average"
	if n < 0 {
		return df, &enem.ConfigError{Reason: fmt.Sprintf("n must not be negative, got %d", n)}
	}
	withAvg, err := AddRowAverage(df)
	if err != nil {
		return df, err
	}
	avg := withAvg.Col(enem.ColAverage).Float()
	idx := make([]int, len(avg))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := avg[idx[i]], avg[idx[j]]
		switch {
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case ascending:
			return a < b
		default:
			return a > b
		}
	})
	if n < len(idx) {
		idx = idx[:n]
	}
	out := withAvg.Subset(idx)
	if out.Err != nil {
		return df, fmt.Errorf("%s: %w", op, out.Err)
	}
	return out, nil
}
