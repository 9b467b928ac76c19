// FilePath: internal/models/models.reading.go
package models

import "encoding/json"

// Reading is a single immutable sample pushed by a sensor.
// CapturedAt is the device-side epoch second and is not monotonic with insertion order.
type Reading struct {
	ID              string   `json:"id" db:"id" msgpack:"id"`
	SensorID        string   `json:"sensor_id" db:"sensor_id" msgpack:"sensor_id"`
	CapturedAt      int64    `json:"captured_at" db:"captured_at" msgpack:"captured_at"`
	DOConcentration *float64 `json:"do_concentration" db:"do_concentration" msgpack:"do_concentration"`
	CorrectedDO     *float64 `json:"corrected_do" db:"corrected_do" msgpack:"corrected_do"`
	Temperature     *float64 `json:"temperature" db:"temperature" msgpack:"temperature"`
	Pressure        *float64 `json:"pressure" db:"pressure" msgpack:"pressure"`
	DOSaturation    *float64 `json:"do_saturation" db:"do_saturation" msgpack:"do_saturation"`
	Metadata        *string  `json:"metadata" db:"metadata" msgpack:"metadata"`
	CreatedAt       int64    `json:"created_at" db:"created_at" msgpack:"created_at"`
}

// ReadingInput is the ingest payload accepted over HTTP and MQTT
type ReadingInput struct {
	DOConcentration *float64        `json:"do_concentration"`
	CorrectedDO     *float64        `json:"corrected_do"`
	Temperature     *float64        `json:"temperature"`
	Pressure        *float64        `json:"pressure"`
	DOSaturation    *float64        `json:"do_saturation"`
	Timestamp       *float64        `json:"timestamp"`
	Metadata        json.RawMessage `json:"metadata"`
}

// ReadingStats is the count and time span of a sensor's stored readings
type ReadingStats struct {
	SensorID          string `json:"sensor_id" db:"-" msgpack:"sensor_id"`
	TotalReadings     int64  `json:"total_readings" db:"total_readings" msgpack:"total_readings"`
	EarliestTimestamp *int64 `json:"earliest_timestamp" db:"earliest_timestamp" msgpack:"earliest_timestamp"`
	LatestTimestamp   *int64 `json:"latest_timestamp" db:"latest_timestamp" msgpack:"latest_timestamp"`
}

// StorageInfo is an approximate storage footprint; it assumes a fixed 1 KiB per reading.
type StorageInfo struct {
	TotalReadings   int64   `json:"totalReadings" msgpack:"totalReadings"`
	EstimatedSizeGB float64 `json:"estimatedSizeGB" msgpack:"estimatedSizeGB"`
}

// ReadingHistory is the payload of the history endpoint
type ReadingHistory struct {
	SensorID string     `json:"sensor_id" msgpack:"sensor_id"`
	Points   []*Reading `json:"points" msgpack:"points"`
	Count    int        `json:"count" msgpack:"count"`
}

// ReadingBucket is an interval average used by dashboard charts
type ReadingBucket struct {
	Timestamp       int64    `json:"timestamp" db:"bucket" msgpack:"timestamp"`
	DOConcentration *float64 `json:"do_concentration" db:"do_concentration" msgpack:"do_concentration"`
	Temperature     *float64 `json:"temperature" db:"temperature" msgpack:"temperature"`
	Pressure        *float64 `json:"pressure" db:"pressure" msgpack:"pressure"`
	Count           int64    `json:"count" db:"reading_count" msgpack:"count"`
}
