// FilePath: internal/export/export.dataset.go
package export

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/dosense/dohub/internal/models"
)

// Record is one exported row: both timestamp forms plus one value per requested
// metric. A nil value means the reading did not carry that metric.
type Record struct {
	Timestamp int64
	ISO8601   string
	Metrics   []Metric
	Values    []*float64
}

// Value returns the record's value for m, or nil when m was not requested or is absent.
func (r Record) Value(m Metric) *float64 {
	for i, key := range r.Metrics {
		if key == m {
			return r.Values[i]
		}
	}
	return nil
}

// Keys lists the record's keys in output order.
func (r Record) Keys() []string {
	keys := make([]string, 0, 2+len(r.Metrics))
	keys = append(keys, "timestamp", "iso8601")
	return append(keys, MetricKeys(r.Metrics)...)
}

// Cells renders the record as strings in Keys order, metric values at catalog precision.
func (r Record) Cells() []string {
	cells := make([]string, 0, 2+len(r.Metrics))
	cells = append(cells, strconv.FormatInt(r.Timestamp, 10), r.ISO8601)
	for i, m := range r.Metrics {
		cells = append(cells, m.Format(r.Values[i]))
	}
	return cells
}

// MarshalJSON keeps the key order stable and writes metric values at catalog precision.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"timestamp":`)
	buf.WriteString(strconv.FormatInt(r.Timestamp, 10))
	buf.WriteString(`,"iso8601":`)
	iso, err := json.Marshal(r.ISO8601)
	if err != nil {
		return nil, err
	}
	buf.Write(iso)
	for i, m := range r.Metrics {
		key, err := json.Marshal(string(m))
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		if v := r.Values[i]; v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(m.Format(r.Values[i]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// BuildDataset maps readings to records, preserving input order.
func BuildDataset(rows []*models.Reading, metrics []Metric) []Record {
	dataset := make([]Record, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		values := make([]*float64, len(metrics))
		for i, m := range metrics {
			if v := m.Value(row); v != nil {
				val := *v
				values[i] = &val
			}
		}
		dataset = append(dataset, Record{
			Timestamp: row.CapturedAt,
			ISO8601:   FormatISO(row.CapturedAt),
			Metrics:   metrics,
			Values:    values,
		})
	}
	return dataset
}
