package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// RuleSet is an ordered list of column rules. Order decides which column is
// reported when several hold invalid entries.
type RuleSet []enem.ColumnRule

// Validate checks that every rule is either a non-empty allow-list or a closed
// [min, max] range.
func (rs RuleSet) Validate() error {
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if strings.TrimSpace(r.Column) == "" {
			return &enem.ConfigError{Reason: "rule without column name"}
		}
		if _, dup := seen[r.Column]; dup {
			return &enem.ConfigError{Column: r.Column, Reason: "duplicate rule"}
		}
		seen[r.Column] = struct{}{}
		hasList, hasRange := len(r.Allowed) > 0, r.Range != nil
		switch {
		case hasList && hasRange:
			return &enem.ConfigError{Column: r.Column, Reason: "rule sets both allowed values and a range"}
		case hasList:
		case hasRange:
			if len(r.Range) != 2 {
				return &enem.ConfigError{Column: r.Column, Reason: fmt.Sprintf("range needs exactly 2 bounds, got %d", len(r.Range))}
			}
			if math.IsNaN(r.Range[0]) || math.IsNaN(r.Range[1]) || r.Range[0] > r.Range[1] {
				return &enem.ConfigError{Column: r.Column, Reason: fmt.Sprintf("invalid range [%g, %g]", r.Range[0], r.Range[1])}
			}
		default:
			return &enem.ConfigError{Column: r.Column, Reason: "rule is neither an allow-list nor a range"}
		}
	}
	return nil
}

// Columns returns the rule columns in order.
func (rs RuleSet) Columns() []string { return enem.RuleColumns(rs) }

// CheckEntries verifies every non-missing value of each rule column. It fails on
// the first column holding an out-of-domain value.
func CheckEntries(df dataframe.DataFrame, rules RuleSet) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	if err := enem.RequireColumns("check entries", df, rules.Columns()...); err != nil {
		return err
	}
	for _, r := range rules {
		if bad := offending(df.Col(r.Column), r); len(bad) > 0 {
			return &enem.InvalidEntryError{Column: r.Column, Values: bad}
		}
	}
	return nil
}

func offending(s series.Series, r enem.ColumnRule) []string {
	var accept func(series.Element) bool
	if len(r.Allowed) > 0 {
		allowed := valueSet(r.Allowed)
		accept = func(el series.Element) bool {
			v, _ := enem.ElementValue(el)
			_, ok := allowed[v]
			return ok
		}
	} else {
		lo, hi := r.Range[0], r.Range[1]
		accept = func(el series.Element) bool {
			f, ok := numericValue(el)
			return ok && f >= lo && f <= hi
		}
	}
	var bad []string
	seen := map[string]struct{}{}
	for i := 0; i < s.Len(); i++ {
		el := s.Elem(i)
		if el.IsNA() || accept(el) {
			continue
		}
		raw := rawValue(el)
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		bad = append(bad, raw)
	}
	return bad
}

func numericValue(el series.Element) (float64, bool) {
	if enem.IsNumeric(el.Type()) {
		f := el.Float()
		return f, !math.IsNaN(f)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(el.String()), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func rawValue(el series.Element) string {
	if el.Type() == series.Float {
		return strconv.FormatFloat(el.Float(), 'g', -1, 64)
	}
	return el.String()
}
