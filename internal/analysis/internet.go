package analysis

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/pandenem/internal/enem"
)

// internetSplit returns the composite averages and the internet answers.
func internetSplit(op string, df dataframe.DataFrame) ([]float64, []string, error) {
	if err := enem.RequireColumns(op, df, enem.ColInternet); err != nil {
		return nil, nil, err
	}
	avg, err := rowAverages(op, df)
	if err != nil {
		return nil, nil, err
	}
	return avg, upperAll(labels(df, enem.ColInternet)), nil
}

func internetMeans(avg []float64, answers []string, rows []int) (without, with float64) {
	var no, yes []int
	for _, r := range rows {
		switch answers[r] {
		case enem.InternetNo:
			no = append(no, r)
		case enem.InternetYes:
			yes = append(yes, r)
		}
	}
	return meanOf(avg, no), meanOf(avg, yes)
}

// InternetAccessComparison returns a single row with the mean composite score
// of candidates without and with internet at home.
func InternetAccessComparison(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const op = "internet access comparison"
	avg, answers, err := internetSplit(op, df)
	if err != nil {
		return df, err
	}
	all := make([]int, len(avg))
	for i := range all {
		all[i] = i
	}
	without, with := internetMeans(avg, answers, all)
	return build(op,
		series.New([]float64{without}, series.Float, enem.ColNoInternet),
		series.New([]float64{with}, series.Float, enem.ColWithInternet),
	)
}

// InternetAccessByYear is InternetAccessComparison computed for every year.
func InternetAccessByYear(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const op = "internet access by year"
	if err := enem.RequireColumns(op, df, enem.ColYear); err != nil {
		return df, err
	}
	avg, answers, err := internetSplit(op, df)
	if err != nil {
		return df, err
	}
	g := groupBy(labels(df, enem.ColYear))
	keys := g.sorted()
	without := make([]float64, len(keys))
	with := make([]float64, len(keys))
	for i, k := range keys {
		without[i], with[i] = internetMeans(avg, answers, g.rows[k])
	}
	return build(op,
		yearColumn(keys),
		series.New(without, series.Float, enem.ColNoInternet),
		series.New(with, series.Float, enem.ColWithInternet),
	)
}
