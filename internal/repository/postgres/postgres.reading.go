// FilePath: internal/repository/postgres/postgres.reading.go
package postgres

import (
	"context"

	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const readingColumns = `id, sensor_id, captured_at, do_concentration, corrected_do, temperature,
	pressure, do_saturation, metadata, created_at`

type ReadingRepo struct {
	PostgresBaseRepo
}

func NewReadingRepository(db database.DB) *ReadingRepo {
	repo := &PostgresBaseRepo{db: db}
	return &ReadingRepo{PostgresBaseRepo: *repo}
}

func (r *ReadingRepo) Insert(ctx context.Context, reading *models.Reading) error {
	query := `
		INSERT INTO readings (
			id, sensor_id, captured_at, do_concentration, corrected_do,
			temperature, pressure, do_saturation, metadata, created_at
		) VALUES (
			:id, :sensor_id, :captured_at, :do_concentration, :corrected_do,
			:temperature, :pressure, :do_saturation, :metadata, :created_at
		)`

	if reading.ID == "" {
		reading.ID = nuts.NID("rd", 12)
	}
	_, err := r.db.GetDB().NamedExecContext(ctx, query, reading)
	if err != nil {
		return errors.NewDatabaseError("failed to insert reading", err)
	}
	return nil
}

func (r *ReadingRepo) ListRange(ctx context.Context, sensorID string, from, to int64) ([]*models.Reading, error) {
	readings := []*models.Reading{}
	query := `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE sensor_id = ? AND captured_at >= ? AND captured_at <= ?
		ORDER BY captured_at ASC, created_at ASC`

	err := r.db.GetDB().SelectContext(ctx, &readings, r.rebind(query), sensorID, from, to)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list readings", err)
	}
	return readings, nil
}

func (r *ReadingRepo) ListRecent(ctx context.Context, sensorID string, since int64, limit int) ([]*models.Reading, error) {
	readings := []*models.Reading{}
	query := `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE sensor_id = ? AND captured_at >= ?
		ORDER BY captured_at DESC, created_at DESC
		LIMIT ?`

	err := r.db.GetDB().SelectContext(ctx, &readings, r.rebind(query), sensorID, since, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list recent readings", err)
	}
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}

func (r *ReadingRepo) Latest(ctx context.Context, sensorID string) (*models.Reading, error) {
	reading := &models.Reading{}
	query := `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE sensor_id = ?
		ORDER BY captured_at DESC, created_at DESC
		LIMIT 1`
	if err := r.get(ctx, reading, "reading", query, sensorID); err != nil {
		return nil, err
	}
	return reading, nil
}

func (r *ReadingRepo) Stats(ctx context.Context, sensorID string) (*models.ReadingStats, error) {
	stats := &models.ReadingStats{}
	query := `
		SELECT COUNT(*) AS total_readings,
			MIN(captured_at) AS earliest_timestamp,
			MAX(captured_at) AS latest_timestamp
		FROM readings
		WHERE sensor_id = ?`
	if err := r.get(ctx, stats, "reading stats", query, sensorID); err != nil {
		return nil, err
	}
	stats.SensorID = sensorID
	return stats, nil
}

func (r *ReadingRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	query := `
		SELECT COUNT(*)
		FROM readings rd
		JOIN sensors s ON s.id = rd.sensor_id
		WHERE s.user_id = ?`
	if err := r.db.GetDB().GetContext(ctx, &count, r.rebind(query), userID); err != nil {
		return 0, errors.NewDatabaseError("failed to count readings", err)
	}
	return count, nil
}

// Buckets averages readings over fixed intervals of epoch seconds using integer division.
func (r *ReadingRepo) Buckets(ctx context.Context, sensorID string, from, to, interval int64) ([]*models.ReadingBucket, error) {
	buckets := []*models.ReadingBucket{}
	query := `
		SELECT (captured_at / ?) * ? AS bucket,
			AVG(do_concentration) AS do_concentration,
			AVG(temperature) AS temperature,
			AVG(pressure) AS pressure,
			COUNT(*) AS reading_count
		FROM readings
		WHERE sensor_id = ? AND captured_at >= ? AND captured_at <= ?
		GROUP BY bucket
		ORDER BY bucket ASC`

	err := r.db.GetDB().SelectContext(ctx, &buckets, r.rebind(query), interval, interval, sensorID, from, to)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to aggregate readings", err)
	}
	return buckets, nil
}

func (r *ReadingRepo) DeleteOlderThan(ctx context.Context, before int64) (int64, error) {
	result, err := r.db.GetDB().ExecContext(ctx, r.rebind(`DELETE FROM readings WHERE captured_at < ?`), before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete old readings", err)
	}
	rows, err := rowsAffected(result)
	if err != nil {
		return 0, err
	}

	nuts.L.Infof("[ReadingRepo] Deleted %d readings captured before %d", rows, before)
	return rows, nil
}

func (r *ReadingRepo) DeleteBySensorIDs(ctx context.Context, sensorIDs []string, tx database.Transaction) error {
	rows, err := execIn(ctx, tx, `DELETE FROM readings WHERE sensor_id IN (?)`, sensorIDs)
	if err != nil {
		return err
	}
	nuts.L.Infof("[ReadingRepo] Deleted %d readings for %d sensors", rows, len(sensorIDs))
	return nil
}
