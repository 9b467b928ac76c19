// FilePath: internal/export/export.analytics.go
package export

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary is the per-metric aggregate attached to exports.
type Summary struct {
	Metric Metric  `json:"metric" msgpack:"metric"`
	Min    float64 `json:"min" msgpack:"min"`
	Max    float64 `json:"max" msgpack:"max"`
	Avg    float64 `json:"avg" msgpack:"avg"`
	Count  int     `json:"count" msgpack:"count"`
}

// ExtendedSummary adds distribution figures, rounded to the metric's precision.
type ExtendedSummary struct {
	Summary
	Median float64 `json:"median" msgpack:"median"`
	StdDev float64 `json:"stdDev" msgpack:"stdDev"`
	P25    float64 `json:"p25" msgpack:"p25"`
	P75    float64 `json:"p75" msgpack:"p75"`
	P95    float64 `json:"p95" msgpack:"p95"`
}

// Summarize aggregates each metric over the dataset. Non-finite and missing values are
// dropped first; a metric left with no values is omitted rather than reported as zeros.
// The result is never nil.
func Summarize(dataset []Record, metrics []Metric) []Summary {
	out := make([]Summary, 0, len(metrics))
	for _, m := range metrics {
		values := finiteValues(dataset, m)
		if len(values) == 0 {
			continue
		}
		out = append(out, summarizeValues(m, values))
	}
	return out
}

// SummarizeExtended is Summarize plus median, population standard deviation and
// the 25th/75th/95th percentiles.
func SummarizeExtended(dataset []Record, metrics []Metric) []ExtendedSummary {
	out := make([]ExtendedSummary, 0, len(metrics))
	for _, m := range metrics {
		values := finiteValues(dataset, m)
		if len(values) == 0 {
			continue
		}
		precision := m.Info().Precision
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		_, std := meanStdDev(values)

		out = append(out, ExtendedSummary{
			Summary: summarizeValues(m, values),
			Median:  Round(Percentile(sorted, 50), precision),
			StdDev:  Round(std, precision),
			P25:     Round(Percentile(sorted, 25), precision),
			P75:     Round(Percentile(sorted, 75), precision),
			P95:     Round(Percentile(sorted, 95), precision),
		})
	}
	return out
}

func summarizeValues(m Metric, values []float64) Summary {
	mean, _ := meanStdDev(values)
	return Summary{
		Metric: m,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Avg:    Round(mean, 3),
		Count:  len(values),
	}
}

// meanStdDev is the population mean and standard deviation. Values near the float64
// limit overflow the running sums, so those are computed on a scaled copy.
func meanStdDev(values []float64) (float64, float64) {
	mean, std := stat.PopMeanStdDev(values, nil)
	if !math.IsInf(mean, 0) && !math.IsNaN(mean) && !math.IsInf(std, 0) && !math.IsNaN(std) {
		return mean, std
	}
	scale := math.Max(math.Abs(floats.Min(values)), math.Abs(floats.Max(values)))
	scaled := make([]float64, len(values))
	floats.ScaleTo(scaled, 1/scale, values)
	mean, std = stat.PopMeanStdDev(scaled, nil)
	return mean * scale, std * scale
}

func finiteValues(dataset []Record, m Metric) []float64 {
	values := make([]float64, 0, len(dataset))
	for _, rec := range dataset {
		v := rec.Value(m)
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		values = append(values, *v)
	}
	return values
}

// Percentile interpolates linearly between the two ranks around (p/100)*(n-1).
// sorted must be ascending.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Round rounds v to the given number of decimal places. Magnitudes too large to
// scale are returned unchanged; they carry no fractional digits anyway.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	if math.IsInf(v*p, 0) {
		return v
	}
	return math.Round(v*p) / p
}
