package enem

import (
	"strings"
)

// Region is one of the five Brazilian macro-regions.
type Region struct {
	Key    string
	Label  string
	States []string
}

// Regions in IBGE order.
var Regions = []Region{
	{Key: "norte", Label: "Norte", States: []string{"AM", "RR", "AP", "PA", "TO", "RO", "AC"}},
	{Key: "nordeste", Label: "Nordeste", States: []string{"MA", "PI", "CE", "RN", "PE", "PB", "SE", "AL", "BA"}},
	{Key: "centro_oeste", Label: "Centro-Oeste", States: []string{"MT", "MS", "GO", "DF"}},
	{Key: "sudeste", Label: "Sudeste", States: []string{"SP", "RJ", "ES", "MG"}},
	{Key: "sul", Label: "Sul", States: []string{"PR", "SC", "RS"}},
}

var stateRegion = func() map[string]string {
	m := make(map[string]string, len(States))
	for _, r := range Regions {
		for _, s := range r.States {
			m[s] = r.Label
		}
	}
	return m
}()

// LookupRegion finds a region by key or label. "Centro-Oeste", "centro oeste"
// and "centro_oeste" all resolve to the same region.
func LookupRegion(name string) (Region, bool) {
	k := strings.ToLower(strings.TrimSpace(name))
	k = strings.NewReplacer("-", "_", " ", "_").Replace(k)
	for _, r := range Regions {
		if r.Key == k {
			return r, true
		}
	}
	return Region{}, false
}

// RegionOf returns the region label of a state code, or "" if unknown.
func RegionOf(state string) string {
	return stateRegion[strings.ToUpper(strings.TrimSpace(state))]
}
