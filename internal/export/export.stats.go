// FilePath: internal/export/export.stats.go
package export

import (
	"math"
	"time"

	"github.com/dosense/dohub/internal/models"
)

const (
	// approxBytesPerValue is a display heuristic, not a storage measurement
	approxBytesPerValue  = 16
	DefaultRetentionDays = 30
)

// DataPoint counts the finite values stored for one metric.
type DataPoint struct {
	Parameter Metric `json:"parameter" msgpack:"parameter"`
	Count     int    `json:"count" msgpack:"count"`
}

// Stats is the read-only aggregate returned by the export stats endpoint.
type Stats struct {
	SensorID             string      `json:"sensor_id" msgpack:"sensor_id"`
	TotalRecords         int         `json:"total_records" msgpack:"total_records"`
	TotalSizeBytes       int64       `json:"total_size_bytes" msgpack:"total_size_bytes"`
	OldestRecord         *string     `json:"oldest_record" msgpack:"oldest_record"`
	NewestRecord         *string     `json:"newest_record" msgpack:"newest_record"`
	AverageRecordsPerDay int64       `json:"average_records_per_day" msgpack:"average_records_per_day"`
	RetentionDays        int         `json:"retention_days" msgpack:"retention_days"`
	DataPoints           []DataPoint `json:"data_points" msgpack:"data_points"`
	LastUpdated          string      `json:"last_updated" msgpack:"last_updated"`
}

// BuildStats aggregates rows over r. The per-day average divides by the range span
// in days, floored at one day.
func BuildStats(sensorID string, rows []*models.Reading, r Range, retentionDays int, now time.Time) *Stats {
	metrics := AllMetrics()
	stats := &Stats{
		SensorID:       sensorID,
		TotalRecords:   len(rows),
		TotalSizeBytes: int64(len(rows)) * int64(len(metrics)) * approxBytesPerValue,
		RetentionDays:  retentionDays,
		DataPoints:     []DataPoint{},
		LastUpdated:    now.UTC().Format(isoLayout),
	}
	if len(rows) == 0 {
		return stats
	}

	oldest, newest := rows[0].CapturedAt, rows[0].CapturedAt
	for _, row := range rows[1:] {
		if row.CapturedAt < oldest {
			oldest = row.CapturedAt
		}
		if row.CapturedAt > newest {
			newest = row.CapturedAt
		}
	}
	oldestISO, newestISO := FormatISO(oldest), FormatISO(newest)
	stats.OldestRecord = &oldestISO
	stats.NewestRecord = &newestISO
	stats.AverageRecordsPerDay = int64(math.Round(float64(len(rows)) / r.Days()))

	for _, s := range Summarize(BuildDataset(rows, metrics), metrics) {
		stats.DataPoints = append(stats.DataPoints, DataPoint{Parameter: s.Metric, Count: s.Count})
	}
	return stats
}
