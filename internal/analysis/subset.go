package analysis

import (
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// StateSubset keeps the rows of the given states. Codes are case-insensitive and
// every requested state must occur in df.
func StateSubset(df dataframe.DataFrame, codes []string) (dataframe.DataFrame, error) {
	const op = "state subset"
	codes = normaliseStates(codes)
	if len(codes) == 0 {
		return df, &enem.ConfigError{Column: enem.ColState, Reason: "no states requested"}
	}
	if err := enem.RequireColumns(op, df, enem.ColState); err != nil {
		return df, err
	}
	states := labels(df, enem.ColState)
	want, err := requirePresent("state", codes, upperAll(states))
	if err != nil {
		return df, err
	}
	pick := make([]bool, len(states))
	for i, s := range states {
		_, pick[i] = want[strings.ToUpper(s)]
	}
	return keep(op, df, pick)
}

// RegionSubset keeps the rows whose state belongs to region.
func RegionSubset(df dataframe.DataFrame, region string) (dataframe.DataFrame, error) {
	const op = "region subset"
	r, ok := enem.LookupRegion(region)
	if !ok {
		keys := make([]string, len(enem.Regions))
		for i, r := range enem.Regions {
			keys[i] = r.Key
		}
		return df, &enem.DomainError{
			Field:  "region",
			Values: []string{region},
			Reason: "unknown region (expected one of " + strings.Join(keys, ", ") + ")",
		}
	}
	if err := enem.RequireColumns(op, df, enem.ColState); err != nil {
		return df, err
	}
	members := make(map[string]struct{}, len(r.States))
	for _, s := range r.States {
		members[s] = struct{}{}
	}
	states := labels(df, enem.ColState)
	pick := make([]bool, len(states))
	for i, s := range states {
		_, pick[i] = members[strings.ToUpper(s)]
	}
	return keep(op, df, pick)
}

// YearAndStateSubset keeps the rows matching both the states and the years. An
// empty list leaves that dimension unconstrained; a non-empty one must be fully
// present in df.
func YearAndStateSubset(df dataframe.DataFrame, codes []string, years []int) (dataframe.DataFrame, error) {
	const op = "year and state subset"
	if err := enem.RequireColumns(op, df, enem.ColState, enem.ColYear); err != nil {
		return df, err
	}
	states := upperAll(labels(df, enem.ColState))
	rowYears := labels(df, enem.ColYear)

	var wantStates, wantYears map[string]struct{}
	var err error
	if codes = normaliseStates(codes); len(codes) > 0 {
		if wantStates, err = requirePresent("state", codes, states); err != nil {
			return df, err
		}
	}
	if len(years) > 0 {
		ys := make([]string, len(years))
		for i, y := range years {
			ys[i] = strconv.Itoa(y)
		}
		if wantYears, err = requirePresent("year", ys, rowYears); err != nil {
			return df, err
		}
	}

	pick := make([]bool, df.Nrow())
	for i := range pick {
		ok := true
		if wantStates != nil {
			_, ok = wantStates[states[i]]
		}
		if ok && wantYears != nil {
			_, ok = wantYears[rowYears[i]]
		}
		pick[i] = ok
	}
	return keep(op, df, pick)
}

// requirePresent returns want as a set, failing with a DomainError listing the
// values that never occur in have.
func requirePresent(field string, want, have []string) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, len(have))
	for _, h := range have {
		seen[h] = struct{}{}
	}
	set := make(map[string]struct{}, len(want))
	var missing []string
	for _, w := range want {
		if _, dup := set[w]; dup {
			continue
		}
		set[w] = struct{}{}
		if _, ok := seen[w]; !ok {
			missing = append(missing, w)
		}
	}
	if len(missing) > 0 {
		return nil, &enem.DomainError{Field: field, Values: missing, Reason: "not present in the data"}
	}
	return set, nil
}

func normaliseStates(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func upperAll(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strings.ToUpper(v)
	}
	return out
}
