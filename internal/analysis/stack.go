package analysis

import (
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// Synthetic key columns added by Stack.
const (
	ColStackKey = "stack_key"
	ColStackRow = "stack_row"
)

// Stack aligns tables on the union of their columns (first-appearance order,
// missing cells as NaN) and stacks them. Numeric columns are copied in their
// final type; a column mixing Int and Float becomes Float, any other mix
// becomes String. Each row is labelled with stack_key, the table's first
// NU_ANO value or its position when it has none, and stack_row, its row number
// inside that table.
func Stack(tables ...dataframe.DataFrame) (dataframe.DataFrame, error) {
	const op = "stack"
	if len(tables) == 0 {
		return dataframe.DataFrame{}, &enem.ConfigError{Reason: "nothing to stack"}
	}
	var names []string
	types := make(map[string]series.Type)
	for i, t := range tables {
		if t.Err != nil {
			return t, t.Err
		}
		for _, c := range t.Names() {
			if c == ColStackKey || c == ColStackRow {
				return t, &enem.ConfigError{Column: c, Reason: "table " + strconv.Itoa(i) + " already carries a stack column"}
			}
			ct := t.Col(c).Type()
			prev, seen := types[c]
			switch {
			case !seen:
				names = append(names, c)
				types[c] = ct
			case prev != ct && enem.IsNumeric(prev) && enem.IsNumeric(ct):
				types[c] = series.Float
			case prev != ct:
				types[c] = series.String
			}
		}
	}

	var keys, rows []int
	cols := make([]series.Series, len(names))
	for j, c := range names {
		cols[j] = series.New([]string{}, types[c], c)
	}
	for i, t := range tables {
		key := stackKey(t, i)
		n := t.Nrow()
		for r := 0; r < n; r++ {
			keys = append(keys, key)
			rows = append(rows, r)
		}
		have := make(map[string]bool, t.Ncol())
		for _, c := range t.Names() {
			have[c] = true
		}
		for j, c := range names {
			switch {
			case !have[c]:
				cols[j].Append(missingCells(types[c], n))
			case types[c] == series.String:
				cols[j].Append(stringCells(t.Col(c)))
			default:
				// Int into Int, or Int/Float widened into Float; NA survives both.
				cols[j].Append(t.Col(c))
			}
		}
	}

	out := append([]series.Series{
		series.New(keys, series.Int, ColStackKey),
		series.New(rows, series.Int, ColStackRow),
	}, cols...)
	return build(op, out...)
}

func stackKey(t dataframe.DataFrame, pos int) int {
	if len(enem.MissingColumns(t, enem.ColYear)) > 0 || t.Nrow() == 0 {
		return pos
	}
	s := t.Col(enem.ColYear)
	for i := 0; i < s.Len(); i++ {
		if v, ok := enem.ElementValue(s.Elem(i)); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return int(f)
			}
		}
	}
	return pos
}

// missingCells is n NA values for a column of type t.
func missingCells(t series.Type, n int) any {
	if t == series.Float {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = math.NaN()
		}
		return vals
	}
	vals := make([]string, n)
	for i := range vals {
		vals[i] = "NaN"
	}
	return vals
}

// stringCells renders s for a String column. Copying string elements directly
// would turn NA into the literal "NaN", so they go through their records.
func stringCells(s series.Series) []string {
	out := make([]string, s.Len())
	for i := range out {
		el := s.Elem(i)
		switch {
		case el.IsNA():
			out[i] = "NaN"
		case el.Type() == series.Float:
			out[i] = strconv.FormatFloat(el.Float(), 'g', -1, 64)
		default:
			out[i] = el.String()
		}
	}
	return out
}
