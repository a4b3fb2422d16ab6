// Package enem describes the ENEM microdata schema: column names, the state and
// region domains, the household income brackets and the error taxonomy shared by
// the filter and analysis layers.
package enem

import (
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"
)

// Column names as published by INEP.
const (
	ColYear      = "NU_ANO"
	ColSchool    = "TP_ESCOLA"
	ColTrainee   = "IN_TREINEIRO"
	ColState     = "SG_UF_PROVA"
	ColPresentCN = "TP_PRESENCA_CN"
	ColPresentCH = "TP_PRESENCA_CH"
	ColPresentLC = "TP_PRESENCA_LC"
	ColPresentMT = "TP_PRESENCA_MT"
	ColScoreCN   = "NU_NOTA_CN"
	ColScoreCH   = "NU_NOTA_CH"
	ColScoreLC   = "NU_NOTA_LC"
	ColScoreMT   = "NU_NOTA_MT"
	ColEssay     = "NU_NOTA_REDACAO"
	ColHousehold = "Q005"
	ColIncome    = "Q006"
	ColInternet  = "Q025"
)

// Derived columns. They only ever appear in aggregation outputs.
const (
	ColAverage         = "average"
	ColPerCapitaIncome = "per_capita_income"
	ColUnifiedScore    = "unified_score"
	ColUnifiedIncome   = "unified_income"
	ColPerfectEssays   = "perfect_essays"
	ColNoInternet      = "average_without_internet"
	ColWithInternet    = "average_with_internet"
	ColNationwide      = "Brasil"
)

// Internet access answers (Q025).
const (
	InternetNo  = "A"
	InternetYes = "B"
)

// PerfectScore is the maximum score of any exam area.
const PerfectScore = 1000.0

// ScoreColumns lists the five columns averaged into the composite score.
var ScoreColumns = []string{ColScoreCN, ColScoreCH, ColScoreLC, ColScoreMT, ColEssay}

// KnowledgeAreaLabels maps each score column to its report label.
var KnowledgeAreaLabels = map[string]string{
	ColScoreCN: "Ciências da Natureza",
	ColScoreCH: "Ciências Humanas",
	ColScoreLC: "Linguagens e Códigos",
	ColScoreMT: "Matemática",
	ColEssay:   "Redação",
}

// States are the 26 states plus the Federal District.
var States = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO",
	"MA", "MT", "MS", "MG", "PA", "PB", "PR", "PE", "PI",
	"RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

// ColumnTypes are the gota types used when loading filtered datasets. Columns
// not listed load as strings.
var ColumnTypes = map[string]series.Type{
	ColYear:      series.Int,
	ColSchool:    series.Int,
	ColScoreCN:   series.Float,
	ColScoreCH:   series.Float,
	ColScoreLC:   series.Float,
	ColScoreMT:   series.Float,
	ColEssay:     series.Float,
	ColHousehold: series.Int,
	ColIncome:    series.String,
	ColInternet:  series.String,
	ColState:     series.String,
}

// MissingValues are the raw cell values treated as missing.
var MissingValues = []string{"", "NA", "NaN", "nan", "<nil>"}

// IsNumeric reports whether a gota series holds numbers.
func IsNumeric(t series.Type) bool {
	return t == series.Int || t == series.Float
}

// CanonicalValue normalises a raw cell so "1", "1.0" and " 1 " compare equal.
func CanonicalValue(raw string) string {
	s := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return s
}

// ElementValue returns the canonical form of a gota element and whether it holds
// a value at all.
func ElementValue(el series.Element) (string, bool) {
	if el.IsNA() {
		return "", false
	}
	if IsNumeric(el.Type()) {
		return strconv.FormatFloat(el.Float(), 'g', -1, 64), true
	}
	return CanonicalValue(el.String()), true
}
