package enem

import "strconv"

// DefaultYears are the exam editions the pipeline was built around.
var DefaultYears = []int{2019, 2020, 2021, 2022}

// ColumnRule binds a validation rule to a column.
type ColumnRule struct {
	Column  string    `mapstructure:"column" yaml:"column"`
	Allowed []string  `mapstructure:"allowed" yaml:"allowed,omitempty"`
	Range   []float64 `mapstructure:"range" yaml:"range,omitempty"`
}

// Exclusion removes every row whose Column holds one of Values.
type Exclusion struct {
	Column string   `mapstructure:"column" yaml:"column"`
	Values []string `mapstructure:"values" yaml:"values"`
}

// AttendanceColumns are the per-day presence flags.
var AttendanceColumns = []string{ColPresentCN, ColPresentCH, ColPresentLC, ColPresentMT}

// DefaultRules returns the rule set of the filtered datasets, in column order.
// The rule columns double as the projected columns.
func DefaultRules(years []int) []ColumnRule {
	if len(years) == 0 {
		years = DefaultYears
	}
	yearVals := make([]string, len(years))
	for i, y := range years {
		yearVals[i] = strconv.Itoa(y)
	}
	presence := []string{"0", "1", "2"}
	score := []float64{0, PerfectScore}
	household := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		household = append(household, strconv.Itoa(i))
	}
	return []ColumnRule{
		{Column: ColYear, Allowed: yearVals},
		{Column: ColSchool, Allowed: []string{"1", "2", "3"}},
		{Column: ColTrainee, Allowed: []string{"0", "1"}},
		{Column: ColState, Allowed: append([]string(nil), States...)},
		{Column: ColPresentCN, Allowed: presence},
		{Column: ColPresentCH, Allowed: presence},
		{Column: ColPresentLC, Allowed: presence},
		{Column: ColPresentMT, Allowed: presence},
		{Column: ColScoreCN, Range: score},
		{Column: ColScoreCH, Range: score},
		{Column: ColScoreLC, Range: score},
		{Column: ColScoreMT, Range: score},
		{Column: ColEssay, Range: score},
		{Column: ColHousehold, Allowed: household},
		{Column: ColIncome, Allowed: BracketLetters()},
		{Column: ColInternet, Allowed: []string{InternetNo, InternetYes}},
	}
}

// DefaultExclusions drops trainees and anyone absent (0) or eliminated (2) in any
// exam session.
func DefaultExclusions() []Exclusion {
	return []Exclusion{
		{Column: ColTrainee, Values: []string{"1"}},
		{Column: ColPresentCN, Values: []string{"0", "2"}},
		{Column: ColPresentCH, Values: []string{"0", "2"}},
		{Column: ColPresentLC, Values: []string{"0", "2"}},
		{Column: ColPresentMT, Values: []string{"0", "2"}},
	}
}

// DefaultDropAfter are bookkeeping columns removed once validation passed.
func DefaultDropAfter() []string {
	return append([]string{ColTrainee}, AttendanceColumns...)
}

// RuleColumns returns the columns named by rules, in order.
func RuleColumns(rules []ColumnRule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Column
	}
	return out
}
