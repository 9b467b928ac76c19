// FilePath: internal/hubservice/hubservice.reading.go
package hubservice

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/export"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultHistoryLimit = 500
	maxHistoryLimit     = 10000

	defaultBucketInterval = 3600
	minBucketInterval     = 60

	// approxBytesPerReading is a display heuristic for storage-info
	approxBytesPerReading = 1024
	bytesPerGB            = 1024 * 1024 * 1024
)

// ReadingSummary is the extended per-metric statistics of a range
type ReadingSummary struct {
	SensorID string                   `json:"sensor_id" msgpack:"sensor_id"`
	From     string                   `json:"from" msgpack:"from"`
	To       string                   `json:"to" msgpack:"to"`
	Records  int                      `json:"records" msgpack:"records"`
	Metrics  []export.ExtendedSummary `json:"metrics" msgpack:"metrics"`
}

// IngestReading stores a reading pushed by sensor. A missing or non-positive timestamp
// means now; timestamps above 1e12 are taken as milliseconds.
func (s *HubService) IngestReading(ctx context.Context, sensor *models.Sensor, in *models.ReadingInput) (*models.Reading, error) {
	now := s.now().Unix()

	capturedAt := now
	if in.Timestamp != nil {
		capturedAt = export.ParseEpoch(strconv.FormatFloat(*in.Timestamp, 'f', -1, 64), now)
	}

	metadata, err := encodeMetadata(in.Metadata)
	if err != nil {
		return nil, err
	}

	reading := &models.Reading{
		ID:              nuts.NID("rd", 12),
		SensorID:        sensor.ID,
		CapturedAt:      capturedAt,
		DOConcentration: in.DOConcentration,
		CorrectedDO:     in.CorrectedDO,
		Temperature:     in.Temperature,
		Pressure:        in.Pressure,
		DOSaturation:    in.DOSaturation,
		Metadata:        metadata,
		CreatedAt:       now,
	}
	if err := s.Readings.Insert(ctx, reading); err != nil {
		return nil, err
	}
	if err := s.Sensors.UpdateLastSeen(ctx, sensor.ID, capturedAt); err != nil {
		nuts.L.Warnf("[ReadingService] Failed to update last seen of sensor %s: %v", sensor.ID, err)
	}
	s.refreshCache(ctx, reading)
	return reading, nil
}

// LatestReading returns the newest reading by capture time, or nil when the sensor has none
func (s *HubService) LatestReading(ctx context.Context, sensorID string) (*models.Reading, error) {
	if _, err := s.authorizeSensor(ctx, sensorID); err != nil {
		return nil, err
	}

	if s.Cache != nil {
		cached, err := s.Cache.GetLatest(ctx, sensorID)
		if err != nil {
			nuts.L.Warnf("[ReadingService] Cache read failed for sensor %s: %v", sensorID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	reading, err := s.Readings.Latest(ctx, sensorID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetLatest(ctx, reading); err != nil {
			nuts.L.Warnf("[ReadingService] Cache write failed for sensor %s: %v", sensorID, err)
		}
	}
	return reading, nil
}

// History returns up to limit readings from the last limit minutes, oldest first
func (s *HubService) History(ctx context.Context, q *models.HistoryQuery) (*models.ReadingHistory, error) {
	if _, err := s.authorizeSensor(ctx, q.SensorID); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	since := s.now().Unix() - int64(limit)*60
	points, err := s.Readings.ListRecent(ctx, q.SensorID, since, limit)
	if err != nil {
		return nil, err
	}
	return &models.ReadingHistory{SensorID: q.SensorID, Points: points, Count: len(points)}, nil
}

// ReadingStats counts the stored readings of a sensor. A sensor the caller does not own
// reports zeros instead of an error.
func (s *HubService) ReadingStats(ctx context.Context, sensorID string) (*models.ReadingStats, error) {
	if _, err := s.authorizeSensor(ctx, sensorID); err != nil {
		if errors.IsAuthorization(err) {
			return &models.ReadingStats{SensorID: sensorID}, nil
		}
		return nil, err
	}
	stats, err := s.Readings.Stats(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	stats.SensorID = sensorID
	return stats, nil
}

// StorageInfo estimates the storage used by all of the caller's readings
func (s *HubService) StorageInfo(ctx context.Context) (*models.StorageInfo, error) {
	userID := GetUserID(ctx)
	if userID == "" {
		return nil, errors.NewAuthError("no user context found", nil)
	}
	total, err := s.Readings.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.StorageInfo{
		TotalReadings:   total,
		EstimatedSizeGB: float64(total*approxBytesPerReading) / bytesPerGB,
	}, nil
}

// Summary computes extended statistics for every metric over the requested range
func (s *HubService) Summary(ctx context.Context, q *models.RangeQuery) (*ReadingSummary, error) {
	if _, err := s.authorizeSensor(ctx, q.SensorID); err != nil {
		return nil, err
	}
	r := export.ResolveRange(q.Start, q.End, s.config.StatsWindow, s.now())

	key := statsCacheKey("summary", q.SensorID, r)
	summary := &ReadingSummary{}
	if s.cacheGet(ctx, key, summary) {
		return summary, nil
	}

	rows, err := s.Readings.ListRange(ctx, q.SensorID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	metrics := export.AllMetrics()
	summary = &ReadingSummary{
		SensorID: q.SensorID,
		From:     r.FromISO(),
		To:       r.ToISO(),
		Records:  len(rows),
		Metrics:  export.SummarizeExtended(export.BuildDataset(rows, metrics), metrics),
	}
	s.cacheSet(ctx, key, summary)
	return summary, nil
}

// Buckets averages readings into fixed intervals of q.Interval seconds
func (s *HubService) Buckets(ctx context.Context, q *models.RangeQuery) ([]*models.ReadingBucket, error) {
	if _, err := s.authorizeSensor(ctx, q.SensorID); err != nil {
		return nil, err
	}
	interval := q.Interval
	if interval <= 0 {
		interval = defaultBucketInterval
	}
	if interval < minBucketInterval {
		interval = minBucketInterval
	}
	r := export.ResolveRange(q.Start, q.End, s.config.ExportWindow, s.now())
	return s.Readings.Buckets(ctx, q.SensorID, r.From, r.To, interval)
}

func (s *HubService) refreshCache(ctx context.Context, reading *models.Reading) {
	if s.Cache == nil {
		return
	}
	prev, err := s.Cache.GetLatest(ctx, reading.SensorID)
	if err != nil {
		nuts.L.Warnf("[ReadingService] Cache read failed for sensor %s: %v", reading.SensorID, err)
	}
	if err := s.Cache.InvalidateSensor(ctx, reading.SensorID); err != nil {
		nuts.L.Warnf("[ReadingService] Cache invalidation failed for sensor %s: %v", reading.SensorID, err)
		return
	}
	// without a cached baseline the newest row is unknown; the next read repopulates it
	if prev == nil {
		return
	}
	// a backfilled reading must not replace a newer cached one
	latest := reading
	if prev.CapturedAt > reading.CapturedAt {
		latest = prev
	}
	if err := s.Cache.SetLatest(ctx, latest); err != nil {
		nuts.L.Warnf("[ReadingService] Cache write failed for sensor %s: %v", reading.SensorID, err)
	}
}

func encodeMetadata(raw json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, errors.NewValidationError("metadata must be a JSON object", err)
	}
	compact := &bytes.Buffer{}
	if err := json.Compact(compact, trimmed); err != nil {
		return nil, errors.NewValidationError("metadata must be a JSON object", err)
	}
	out := compact.String()
	return &out, nil
}
