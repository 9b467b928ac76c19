// FilePath: internal/repository/postgres/postgres.sensor.go
package postgres

import (
	"context"

	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const sensorColumns = `id, user_id, name, api_key, sensor_type, location, created_at, updated_at, last_seen`

type SensorRepo struct {
	PostgresBaseRepo
}

func NewSensorRepository(db database.DB) *SensorRepo {
	repo := &PostgresBaseRepo{db: db}
	return &SensorRepo{PostgresBaseRepo: *repo}
}

func (r *SensorRepo) Create(ctx context.Context, sensor *models.Sensor) error {
	query := `
		INSERT INTO sensors (
			id, user_id, name, api_key, sensor_type, location,
			created_at, updated_at, last_seen
		) VALUES (
			:id, :user_id, :name, :api_key, :sensor_type, :location,
			:created_at, :updated_at, :last_seen
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, sensor)
	if err != nil {
		return errors.NewDatabaseError("failed to create sensor", err)
	}
	return nil
}

func (r *SensorRepo) Get(ctx context.Context, id string) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	if err := r.get(ctx, sensor, "sensor", `SELECT `+sensorColumns+` FROM sensors WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return sensor, nil
}

func (r *SensorRepo) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE id = ? AND user_id = ?`
	if err := r.get(ctx, sensor, "sensor", query, id, userID); err != nil {
		return nil, err
	}
	return sensor, nil
}

func (r *SensorRepo) GetByAPIKey(ctx context.Context, apiKey string) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	if err := r.get(ctx, sensor, "sensor", `SELECT `+sensorColumns+` FROM sensors WHERE api_key = ?`, apiKey); err != nil {
		return nil, err
	}
	return sensor, nil
}

func (r *SensorRepo) ListByUser(ctx context.Context, userID string) ([]*models.Sensor, error) {
	sensors := []*models.Sensor{}
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE user_id = ? ORDER BY created_at DESC, id DESC`

	err := r.db.GetDB().SelectContext(ctx, &sensors, r.rebind(query), userID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list sensors", err)
	}
	return sensors, nil
}

func (r *SensorRepo) UpdateAPIKey(ctx context.Context, id, apiKey string, updatedAt int64) error {
	result, err := r.db.GetDB().ExecContext(ctx,
		r.rebind(`UPDATE sensors SET api_key = ?, updated_at = ? WHERE id = ?`), apiKey, updatedAt, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update api key", err)
	}
	return expectOne(result, "sensor")
}

func (r *SensorRepo) UpdateLastSeen(ctx context.Context, id string, lastSeen int64) error {
	result, err := r.db.GetDB().ExecContext(ctx,
		r.rebind(`UPDATE sensors SET last_seen = ? WHERE id = ?`), lastSeen, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update last seen", err)
	}
	return expectOne(result, "sensor")
}

func (r *SensorRepo) DeleteWithTx(ctx context.Context, id string, tx database.Transaction) error {
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sensors WHERE id = ?`), id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete sensor", err)
	}
	return expectOne(result, "sensor")
}

func (r *SensorRepo) DeleteByUser(ctx context.Context, userID string, tx database.Transaction) error {
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sensors WHERE user_id = ?`), userID)
	if err != nil {
		return errors.NewDatabaseError("failed to delete sensors", err)
	}
	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	nuts.L.Infof("[SensorRepo] Deleted %d sensors for user %s", rows, userID)
	return nil
}
