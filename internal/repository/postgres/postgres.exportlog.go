// FilePath: internal/repository/postgres/postgres.exportlog.go
package postgres

import (
	"context"

	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const exportLogColumns = `id, user_id, sensor_id, format, from_time, to_time, records, size_bytes,
	compressed, file_name, content_type, archive_path, created_at`

type ExportLogRepo struct {
	PostgresBaseRepo
}

func NewExportLogRepository(db database.DB) *ExportLogRepo {
	repo := &PostgresBaseRepo{db: db}
	return &ExportLogRepo{PostgresBaseRepo: *repo}
}

func (r *ExportLogRepo) Create(ctx context.Context, log *models.ExportLog) error {
	query := `
		INSERT INTO export_logs (
			id, user_id, sensor_id, format, from_time, to_time, records, size_bytes,
			compressed, file_name, content_type, archive_path, created_at
		) VALUES (
			:id, :user_id, :sensor_id, :format, :from_time, :to_time, :records, :size_bytes,
			:compressed, :file_name, :content_type, :archive_path, :created_at
		)`

	if log.ID == "" {
		log.ID = nuts.NID("exp", 12)
	}
	_, err := r.db.GetDB().NamedExecContext(ctx, query, log)
	if err != nil {
		return errors.NewDatabaseError("failed to create export log", err)
	}
	return nil
}

func (r *ExportLogRepo) Get(ctx context.Context, id string) (*models.ExportLog, error) {
	log := &models.ExportLog{}
	if err := r.get(ctx, log, "export log", `SELECT `+exportLogColumns+` FROM export_logs WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return log, nil
}

// ListByUser returns a page of the user's exports, newest first.
func (r *ExportLogRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.ExportLog, error) {
	logs := []*models.ExportLog{}
	query := `
		SELECT ` + exportLogColumns + `
		FROM export_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	err := r.db.GetDB().SelectContext(ctx, &logs, r.rebind(query), userID, limit, offset)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list export logs", err)
	}
	return logs, nil
}

func (r *ExportLogRepo) DeleteByUser(ctx context.Context, userID string, tx database.Transaction) error {
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM export_logs WHERE user_id = ?`), userID)
	if err != nil {
		return errors.NewDatabaseError("failed to delete export logs", err)
	}
	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	nuts.L.Infof("[ExportLogRepo] Deleted %d export logs for user %s", rows, userID)
	return nil
}
