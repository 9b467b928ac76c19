package export

import (
	"context"
	"testing"
	"time"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

type fakeSensors struct {
	owner string
}

func (f fakeSensors) GetByIDAndUser(_ context.Context, sensorID, userID string) (*models.Sensor, error) {
	if userID != f.owner {
		return nil, errors.NewNotFoundError("sensor not found", nil)
	}
	return &models.Sensor{ID: sensorID, UserID: userID}, nil
}

type fakeReadings struct {
	rows    []*models.Reading
	queries int
}

func (f *fakeReadings) ListRange(_ context.Context, sensorID string, from, to int64) ([]*models.Reading, error) {
	f.queries++
	out := []*models.Reading{}
	for _, r := range f.rows {
		if r.SensorID == sensorID && r.CapturedAt >= from && r.CapturedAt <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func scenarioReadings() *fakeReadings {
	return &fakeReadings{rows: []*models.Reading{
		{SensorID: "S1", CapturedAt: 1000, DOConcentration: f64(8.123)},
		{SensorID: "S1", CapturedAt: 2000, DOConcentration: f64(8.877)},
	}}
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestExporterScenarioCSVWithAnalytics(t *testing.T) {
	readings := scenarioReadings()
	exp := NewExporter(fakeSensors{owner: "u1"}, readings, Options{Now: fixedClock})

	req, err := ParseRequest(models.ExportQuery{
		SensorID:         "S1",
		Start:            "3000",
		End:              "1",
		Metrics:          "do_concentration",
		IncludeAnalytics: "true",
	}, DefaultExportWindow, fixedClock())
	require.NoError(t, err)
	require.Equal(t, Range{From: 1, To: 3000}, req.Range)

	res, err := exp.Export(context.Background(), "u1", req)
	require.NoError(t, err)
	require.Equal(t, 2, res.Records)
	require.Equal(t, "text/csv", res.ContentType)
	require.Equal(t, "do-sensor-data_1970-01-01_1970-01-01.csv", res.FileName)

	body := string(res.Body)
	assert.Contains(t, body, "timestamp,iso8601,do_concentration\n")
	assert.Contains(t, body, "1000,1970-01-01T00:16:40.000Z,8.123\n")
	assert.Contains(t, body, "\nmetric,average,min,max,count\n")
	assert.Contains(t, body, "do_concentration,8.5,8.123,8.877,2\n")
}

func TestExporterDeniesForeignSensorBeforeQuery(t *testing.T) {
	readings := scenarioReadings()
	exp := NewExporter(fakeSensors{owner: "u1"}, readings, Options{Now: fixedClock})

	req, err := ParseRequest(models.ExportQuery{SensorID: "S1"}, DefaultExportWindow, fixedClock())
	require.NoError(t, err)

	_, err = exp.Export(context.Background(), "intruder", req)
	require.Error(t, err)
	require.True(t, errors.IsAuthorization(err))
	require.Zero(t, readings.queries)

	_, err = exp.Stats(context.Background(), "intruder", "S1", Range{From: 0, To: 3000})
	require.True(t, errors.IsAuthorization(err))
	require.Zero(t, readings.queries)
}

func TestExporterCompressedDownloadName(t *testing.T) {
	exp := NewExporter(fakeSensors{owner: "u1"}, scenarioReadings(), Options{Now: fixedClock})
	req, err := ParseRequest(models.ExportQuery{
		SensorID:    "S1",
		Start:       "1",
		End:         "86400",
		Format:      "excel",
		Compression: "1",
	}, DefaultExportWindow, fixedClock())
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, req.Format)

	res, err := exp.Export(context.Background(), "u1", req)
	require.NoError(t, err)
	require.True(t, res.Compressed)
	require.Equal(t, "application/gzip", res.ContentType)
	require.Equal(t, "do-sensor-data_1970-01-01_1970-01-02.xlsx.gz", res.FileName)
	require.Equal(t, `attachment; filename="do-sensor-data_1970-01-01_1970-01-02.xlsx.gz"`, res.ContentDisposition())
}

func TestExporterStats(t *testing.T) {
	readings := &fakeReadings{rows: []*models.Reading{
		{SensorID: "S1", CapturedAt: 100, DOConcentration: f64(8), Temperature: f64(20)},
		{SensorID: "S1", CapturedAt: 500, DOConcentration: f64(9)},
		{SensorID: "S1", CapturedAt: 300, DOConcentration: f64(7)},
	}}
	exp := NewExporter(fakeSensors{owner: "u1"}, readings, Options{Now: fixedClock})

	stats, err := exp.Stats(context.Background(), "u1", "S1", Range{From: 0, To: 1000})
	require.NoError(t, err)
	require.Equal(t, "S1", stats.SensorID)
	require.Equal(t, 3, stats.TotalRecords)
	require.Equal(t, int64(3*5*16), stats.TotalSizeBytes)
	require.Equal(t, "1970-01-01T00:01:40.000Z", *stats.OldestRecord)
	require.Equal(t, "1970-01-01T00:08:20.000Z", *stats.NewestRecord)
	// sub-day span counts as one day
	require.Equal(t, int64(3), stats.AverageRecordsPerDay)
	require.Equal(t, DefaultRetentionDays, stats.RetentionDays)
	require.Equal(t, []DataPoint{
		{Parameter: DOConcentration, Count: 3},
		{Parameter: Temperature, Count: 1},
	}, stats.DataPoints)
	require.Equal(t, "2024-03-01T12:00:00.000Z", stats.LastUpdated)
}

func TestBuildStatsEmptyAndMultiDay(t *testing.T) {
	empty := BuildStats("S1", nil, Range{From: 0, To: 10}, 30, fixedClock())
	require.Zero(t, empty.TotalRecords)
	require.Nil(t, empty.OldestRecord)
	require.Nil(t, empty.NewestRecord)
	require.Zero(t, empty.AverageRecordsPerDay)
	require.NotNil(t, empty.DataPoints)

	rows := make([]*models.Reading, 0, 40)
	for i := 0; i < 40; i++ {
		rows = append(rows, &models.Reading{SensorID: "S1", CapturedAt: int64(i) * 3600, Pressure: f64(101.3)})
	}
	stats := BuildStats("S1", rows, Range{From: 0, To: 4 * 86400}, 30, fixedClock())
	require.Equal(t, int64(10), stats.AverageRecordsPerDay)
}
