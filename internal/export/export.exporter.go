// FilePath: internal/export/export.exporter.go
package export

import (
	"context"
	"time"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// SensorResolver answers the ownership question. A not-found error means deny.
type SensorResolver interface {
	GetByIDAndUser(ctx context.Context, sensorID, userID string) (*models.Sensor, error)
}

// ReadingSource returns readings in [from, to] ordered by captured_at ascending.
type ReadingSource interface {
	ListRange(ctx context.Context, sensorID string, from, to int64) ([]*models.Reading, error)
}

// Options configures an Exporter.
type Options struct {
	Encoder       EncoderOptions
	RetentionDays int
	Now           func() time.Time
}

// Exporter runs the export pipeline: ownership check, range query, dataset,
// optional analytics, encoding and compression.
type Exporter struct {
	sensors  SensorResolver
	readings ReadingSource
	opts     Options
}

// Result is a delivered export plus what produced it.
type Result struct {
	*Payload
	Request *Request
	Records int
}

func NewExporter(sensors SensorResolver, readings ReadingSource, opts Options) *Exporter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = DefaultRetentionDays
	}
	return &Exporter{sensors: sensors, readings: readings, opts: opts}
}

// Now is the exporter's clock.
func (e *Exporter) Now() time.Time {
	return e.opts.Now()
}

// Authorize rejects callers that do not own sensorID before any reading is touched.
func (e *Exporter) Authorize(ctx context.Context, sensorID, userID string) (*models.Sensor, error) {
	sensor, err := e.sensors.GetByIDAndUser(ctx, sensorID, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthorizationError("access denied", nil)
		}
		return nil, err
	}
	if sensor == nil {
		return nil, errors.NewAuthorizationError("access denied", nil)
	}
	return sensor, nil
}

// Export produces the file for req on behalf of userID.
func (e *Exporter) Export(ctx context.Context, userID string, req *Request) (*Result, error) {
	if _, err := e.Authorize(ctx, req.SensorID, userID); err != nil {
		return nil, err
	}

	rows, err := e.readings.ListRange(ctx, req.SensorID, req.Range.From, req.Range.To)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Meta:       req.Meta(),
		Metrics:    req.Metrics,
		Dataset:    BuildDataset(rows, req.Metrics),
		IncludeRaw: req.IncludeRaw,
	}
	if req.IncludeAnalytics {
		doc.Summaries = Summarize(doc.Dataset, req.Metrics)
	}

	body, err := Encode(req.Format, doc, e.opts.Encoder)
	if err != nil {
		return nil, err
	}
	payload, err := Wrap(body, req.BaseName(), req.Compression, req.Format.ContentType())
	if err != nil {
		return nil, err
	}

	nuts.L.Infof("[Exporter] Exported %d records for sensor %s as %s (%d bytes, compressed=%t)",
		len(doc.Dataset), req.SensorID, req.Format, len(payload.Body), payload.Compressed)
	return &Result{Payload: payload, Request: req, Records: len(doc.Dataset)}, nil
}

// Stats aggregates the readings of sensorID over r.
func (e *Exporter) Stats(ctx context.Context, userID, sensorID string, r Range) (*Stats, error) {
	if _, err := e.Authorize(ctx, sensorID, userID); err != nil {
		return nil, err
	}
	rows, err := e.readings.ListRange(ctx, sensorID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	return BuildStats(sensorID, rows, r, e.opts.RetentionDays, e.Now()), nil
}
