package enem

import (
	"github.com/go-gota/gota/dataframe"
)

// MissingColumns returns the names in cols that df does not have.
func MissingColumns(df dataframe.DataFrame, cols ...string) []string {
	have := make(map[string]struct{}, df.Ncol())
	for _, n := range df.Names() {
		have[n] = struct{}{}
	}
	var missing []string
	for _, c := range cols {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// RequireColumns returns a *SchemaError naming op if any column is absent.
func RequireColumns(op string, df dataframe.DataFrame, cols ...string) error {
	if m := MissingColumns(df, cols...); len(m) > 0 {
		return &SchemaError{Op: op, Columns: m}
	}
	return nil
}

// RequireNumeric returns a *TypeError if the column does not hold numbers.
func RequireNumeric(op string, df dataframe.DataFrame, col string) error {
	if t := df.Col(col).Type(); !IsNumeric(t) {
		return &TypeError{Op: op, Column: col, Type: string(t)}
	}
	return nil
}
