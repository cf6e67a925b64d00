// Package report renders wait-time results: JSON and CSV exports, summary
// statistics, an HTML chart and a histogram image.
package report

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of per-track wait times in seconds.
type Summary struct {
	Count  int     `json:"count"`
	Total  float64 `json:"total_seconds"`
	Mean   float64 `json:"mean_seconds"`
	Median float64 `json:"median_seconds"`
	P95    float64 `json:"p95_seconds"`
	Max    float64 `json:"max_seconds"`
}

// Summarize computes the distribution of waits. Empty input yields the zero
// Summary. Quantiles are empirical: they are always one of the inputs.
func Summarize(waits []float64) Summary {
	if len(waits) == 0 {
		return Summary{}
	}
	x := append([]float64(nil), waits...)
	sort.Float64s(x)
	return Summary{
		Count:  len(x),
		Total:  floats.Sum(x),
		Mean:   stat.Mean(x, nil),
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, x, nil),
		Max:    floats.Max(x),
	}
}
