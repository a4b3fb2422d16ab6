package enem

// DefaultTopBracketCap is the upper bound assumed for bracket Q ("above 19961").
// The published questionnaire leaves Q open ended, so the cap is configurable
// (income_top_cap) and only its midpoint is ever used.
const DefaultTopBracketCap = 50000.0

// TopBracketFloor is the lower bound of bracket Q.
const TopBracketFloor = 19961.0

// Bracket is one household income range of question Q006, in BRL per month.
type Bracket struct {
	Letter string
	Low    float64
	High   float64
}

// Midpoint is the value substituted for every household in the bracket.
func (b Bracket) Midpoint() float64 { return (b.Low + b.High) / 2 }

// Brackets A through P. Q depends on the configured cap, see IncomeBrackets.
var fixedBrackets = []Bracket{
	{"A", 0, 0},
	{"B", 0, 998},
	{"C", 998, 1497},
	{"D", 1497, 1996},
	{"E", 1996, 2495},
	{"F", 2495, 2994},
	{"G", 2994, 3992},
	{"H", 3992, 4990},
	{"I", 4990, 5988},
	{"J", 5988, 6986},
	{"K", 6986, 7984},
	{"L", 7984, 8982},
	{"M", 8982, 9980},
	{"N", 9980, 11976},
	{"O", 11976, 14970},
	{"P", 14970, 19960},
}

// IncomeBrackets returns the ordered bracket table with Q bounded by topCap.
// A non-positive cap falls back to DefaultTopBracketCap.
func IncomeBrackets(topCap float64) []Bracket {
	if topCap <= 0 {
		topCap = DefaultTopBracketCap
	}
	out := make([]Bracket, 0, len(fixedBrackets)+1)
	out = append(out, fixedBrackets...)
	return append(out, Bracket{"Q", TopBracketFloor, topCap})
}

// BracketLetters returns A..Q in order.
func BracketLetters() []string {
	bs := IncomeBrackets(0)
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Letter
	}
	return out
}

// MidpointTable maps bracket letters to midpoints for the given cap.
func MidpointTable(topCap float64) map[string]float64 {
	bs := IncomeBrackets(topCap)
	m := make(map[string]float64, len(bs))
	for _, b := range bs {
		m[b.Letter] = b.Midpoint()
	}
	return m
}
