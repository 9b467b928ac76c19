// FilePath: internal/database/schema.go
package database

import (
	"context"
	"fmt"

	nuts "github.com/vaudience/go-nuts"
)

// schema is written in the subset of SQL that PostgreSQL and SQLite share.
// Timestamps are epoch seconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		reset_token TEXT,
		reset_expires BIGINT,
		role TEXT NOT NULL DEFAULT 'operator',
		timezone TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sensors (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		api_key TEXT NOT NULL UNIQUE,
		sensor_type TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		last_seen BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensors_user ON sensors (user_id)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id TEXT NOT NULL,
		sensor_id TEXT NOT NULL REFERENCES sensors(id),
		captured_at BIGINT NOT NULL,
		do_concentration DOUBLE PRECISION,
		corrected_do DOUBLE PRECISION,
		temperature DOUBLE PRECISION,
		pressure DOUBLE PRECISION,
		do_saturation DOUBLE PRECISION,
		metadata TEXT,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (id, captured_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_sensor_time ON readings (sensor_id, captured_at)`,
	`CREATE TABLE IF NOT EXISTS calibration_events (
		id TEXT PRIMARY KEY,
		sensor_id TEXT NOT NULL REFERENCES sensors(id),
		mode TEXT NOT NULL,
		value DOUBLE PRECISION,
		timestamp BIGINT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dac_settings (
		sensor_id TEXT PRIMARY KEY REFERENCES sensors(id),
		corrected_do DOUBLE PRECISION,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS export_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		sensor_id TEXT NOT NULL,
		format TEXT NOT NULL,
		from_time BIGINT NOT NULL,
		to_time BIGINT NOT NULL,
		records INTEGER NOT NULL,
		size_bytes BIGINT NOT NULL,
		compressed BOOLEAN NOT NULL,
		file_name TEXT NOT NULL,
		content_type TEXT NOT NULL,
		archive_path TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_export_logs_user ON export_logs (user_id, created_at)`,
}

// Migrate creates any missing tables. It is idempotent. Hypertable setup lives in
// the timescale repository.
func Migrate(ctx context.Context, db DB) error {
	for i, stmt := range schema {
		if _, err := db.GetDB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema statement %d: %w", i, err)
		}
	}
	nuts.L.Infof("[Database] Schema ready (%s, %d statements)", db.Driver(), len(schema))
	return nil
}
