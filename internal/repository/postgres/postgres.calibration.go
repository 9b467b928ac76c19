// FilePath: internal/repository/postgres/postgres.calibration.go
package postgres

import (
	"context"

	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type CalibrationRepo struct {
	PostgresBaseRepo
}

func NewCalibrationRepository(db database.DB) *CalibrationRepo {
	repo := &PostgresBaseRepo{db: db}
	return &CalibrationRepo{PostgresBaseRepo: *repo}
}

func (r *CalibrationRepo) CreateEvent(ctx context.Context, event *models.CalibrationEvent) error {
	query := `
		INSERT INTO calibration_events (id, sensor_id, mode, value, timestamp, created_at)
		VALUES (:id, :sensor_id, :mode, :value, :timestamp, :created_at)`

	if event.ID == "" {
		event.ID = nuts.NID("cal", 12)
	}
	_, err := r.db.GetDB().NamedExecContext(ctx, query, event)
	if err != nil {
		return errors.NewDatabaseError("failed to create calibration event", err)
	}
	return nil
}

// ListEvents returns the most recent events first.
func (r *CalibrationRepo) ListEvents(ctx context.Context, sensorID string, limit int) ([]*models.CalibrationEvent, error) {
	events := []*models.CalibrationEvent{}
	query := `
		SELECT id, sensor_id, mode, value, timestamp, created_at
		FROM calibration_events
		WHERE sensor_id = ?
		ORDER BY timestamp DESC
		LIMIT ?`

	err := r.db.GetDB().SelectContext(ctx, &events, r.rebind(query), sensorID, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list calibration events", err)
	}
	return events, nil
}

// UpsertDAC keeps one setting per sensor.
func (r *CalibrationRepo) UpsertDAC(ctx context.Context, setting *models.DACSetting) error {
	query := `
		INSERT INTO dac_settings (sensor_id, corrected_do, updated_at)
		VALUES (:sensor_id, :corrected_do, :updated_at)
		ON CONFLICT (sensor_id) DO UPDATE SET
			corrected_do = excluded.corrected_do,
			updated_at = excluded.updated_at`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, setting)
	if err != nil {
		return errors.NewDatabaseError("failed to save dac setting", err)
	}
	return nil
}

func (r *CalibrationRepo) GetDAC(ctx context.Context, sensorID string) (*models.DACSetting, error) {
	setting := &models.DACSetting{}
	query := `SELECT sensor_id, corrected_do, updated_at FROM dac_settings WHERE sensor_id = ?`
	if err := r.get(ctx, setting, "dac setting", query, sensorID); err != nil {
		return nil, err
	}
	return setting, nil
}

func (r *CalibrationRepo) DeleteBySensorIDs(ctx context.Context, sensorIDs []string, tx database.Transaction) error {
	if _, err := execIn(ctx, tx, `DELETE FROM calibration_events WHERE sensor_id IN (?)`, sensorIDs); err != nil {
		return err
	}
	if _, err := execIn(ctx, tx, `DELETE FROM dac_settings WHERE sensor_id IN (?)`, sensorIDs); err != nil {
		return err
	}
	return nil
}
