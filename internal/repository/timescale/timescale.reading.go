// FilePath: internal/repository/timescale/timescale.reading.go
package timescale

import (
	"context"
	"fmt"

	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	"github.com/dosense/dohub/internal/repository/postgres"
	nuts "github.com/vaudience/go-nuts"
)

// ReadingRepo stores readings in a hypertable. Everything except bucketing is
// plain SQL shared with the postgres repository.
type ReadingRepo struct {
	*postgres.ReadingRepo
	db database.DB
}

func NewReadingRepository(db database.DB, retentionDays int) (*ReadingRepo, error) {
	repo := &ReadingRepo{ReadingRepo: postgres.NewReadingRepository(db), db: db}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	repo.setupRetentionPolicy(retentionDays)
	return repo, nil
}

func (r *ReadingRepo) initializeSchema() error {
	queries := []string{
		`SELECT create_hypertable('readings', 'captured_at',
			chunk_time_interval => 86400,
			if_not_exists => TRUE,
			migrate_data => TRUE
		)`,
		// integer time columns need a notion of "now" for policies
		`CREATE OR REPLACE FUNCTION dohub_unix_now() RETURNS BIGINT
			LANGUAGE SQL STABLE AS $$ SELECT EXTRACT(EPOCH FROM NOW())::BIGINT $$`,
		`SELECT set_integer_now_func('readings', 'dohub_unix_now', replace_if_exists => TRUE)`,
	}

	for _, query := range queries {
		if _, err := r.db.GetDB().Exec(query); err != nil {
			return errors.NewDatabaseError("failed to initialize hypertable", err)
		}
	}
	return nil
}

func (r *ReadingRepo) setupRetentionPolicy(days int) {
	if days <= 0 {
		return
	}
	query := fmt.Sprintf(`SELECT add_retention_policy('readings', drop_after => BIGINT '%d', if_not_exists => TRUE)`,
		int64(days)*86400)
	if _, err := r.db.GetDB().Exec(query); err != nil {
		nuts.L.Errorf("[TimescaleDB] Failed to set up retention policy (%d days): %v", days, err)
	}
}

// Buckets uses time_bucket on the integer epoch column.
func (r *ReadingRepo) Buckets(ctx context.Context, sensorID string, from, to, interval int64) ([]*models.ReadingBucket, error) {
	buckets := []*models.ReadingBucket{}
	query := `
		SELECT time_bucket(CAST(? AS BIGINT), captured_at) AS bucket,
			AVG(do_concentration) AS do_concentration,
			AVG(temperature) AS temperature,
			AVG(pressure) AS pressure,
			COUNT(*) AS reading_count
		FROM readings
		WHERE sensor_id = ? AND captured_at >= ? AND captured_at <= ?
		GROUP BY bucket
		ORDER BY bucket ASC`

	db := r.db.GetDB()
	err := db.SelectContext(ctx, &buckets, db.Rebind(query), interval, sensorID, from, to)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to aggregate readings", err)
	}
	return buckets, nil
}
