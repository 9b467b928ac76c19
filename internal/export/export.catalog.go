// FilePath: internal/export/export.catalog.go
package export

import (
	"strconv"
	"strings"

	"github.com/dosense/dohub/internal/models"
)

// Metric identifies one of the fixed sensor measurements.
type Metric string

const (
	DOConcentration Metric = "do_concentration"
	CorrectedDO     Metric = "corrected_do"
	Temperature     Metric = "temperature"
	Pressure        Metric = "pressure"
	DOSaturation    Metric = "do_saturation"
)

// MetricInfo is a catalog entry: display label, storage column and formatting precision.
type MetricInfo struct {
	Key       Metric
	Label     string
	Field     string
	Precision int
}

var catalog = [...]MetricInfo{
	{Key: DOConcentration, Label: "DO Concentration (mg/L)", Field: "do_concentration", Precision: 3},
	{Key: CorrectedDO, Label: "Corrected DO (mg/L)", Field: "corrected_do", Precision: 3},
	{Key: Temperature, Label: "Temperature (°C)", Field: "temperature", Precision: 2},
	{Key: Pressure, Label: "Pressure (kPa)", Field: "pressure", Precision: 2},
	{Key: DOSaturation, Label: "DO Saturation (%)", Field: "do_saturation", Precision: 1},
}

// AllMetrics returns every catalog metric in catalog order.
func AllMetrics() []Metric {
	out := make([]Metric, len(catalog))
	for i, info := range catalog {
		out[i] = info.Key
	}
	return out
}

// Lookup returns the catalog entry for m.
func Lookup(m Metric) (MetricInfo, bool) {
	for _, info := range catalog {
		if info.Key == m {
			return info, true
		}
	}
	return MetricInfo{}, false
}

// Info returns the catalog entry, or a bare entry labelled with the key for unknown metrics.
func (m Metric) Info() MetricInfo {
	if info, ok := Lookup(m); ok {
		return info
	}
	return MetricInfo{Key: m, Label: string(m), Field: string(m), Precision: 3}
}

func (m Metric) Label() string {
	return m.Info().Label
}

// Valid reports whether m is part of the catalog.
func (m Metric) Valid() bool {
	_, ok := Lookup(m)
	return ok
}

// Value extracts the metric from a stored reading. Nil means the device did not report it.
func (m Metric) Value(r *models.Reading) *float64 {
	if r == nil {
		return nil
	}
	switch m {
	case DOConcentration:
		return r.DOConcentration
	case CorrectedDO:
		return r.CorrectedDO
	case Temperature:
		return r.Temperature
	case Pressure:
		return r.Pressure
	case DOSaturation:
		return r.DOSaturation
	}
	return nil
}

// Format renders v with the metric's precision. Nil renders as an empty string.
func (m Metric) Format(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', m.Info().Precision, 64)
}

// FilterMetrics keeps the requested keys that exist in the catalog, in request order
// and without duplicates. An empty request, or one naming no known metric, selects
// the whole catalog.
func FilterMetrics(requested []string) []Metric {
	if len(requested) == 0 {
		return AllMetrics()
	}
	out := make([]Metric, 0, len(requested))
	seen := make(map[Metric]bool, len(requested))
	for _, key := range requested {
		m := Metric(strings.TrimSpace(key))
		if !m.Valid() || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	if len(out) == 0 {
		return AllMetrics()
	}
	return out
}

// ParseMetricList splits a comma separated metrics parameter and filters it.
func ParseMetricList(param string) []Metric {
	param = strings.TrimSpace(param)
	if param == "" {
		return AllMetrics()
	}
	return FilterMetrics(strings.Split(param, ","))
}

// MetricKeys converts metrics back to their string keys.
func MetricKeys(metrics []Metric) []string {
	keys := make([]string, len(metrics))
	for i, m := range metrics {
		keys[i] = string(m)
	}
	return keys
}
