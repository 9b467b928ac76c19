// FilePath: internal/repository/postgres/postgres.baserepo.go
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/errors"
	"github.com/jmoiron/sqlx"
)

// PostgresBaseRepo carries the shared plumbing. Queries are written with ? and
// rebound for the connected driver, so the same repositories serve SQLite.
type PostgresBaseRepo struct {
	db database.DB
}

func (r *PostgresBaseRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to begin transaction", err)
	}
	return tx, nil
}
func (r *PostgresBaseRepo) Commit(tx database.Transaction) error {
	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit transaction", err)
	}
	return nil
}
func (r *PostgresBaseRepo) Rollback(tx database.Transaction) error {
	if err := tx.Rollback(); err != nil {
		return errors.NewDatabaseError("failed to rollback transaction", err)
	}
	return nil
}
func (r *PostgresBaseRepo) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := r.db.GetDB().ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to execute query", err)
	}
	return result, nil
}
func (r *PostgresBaseRepo) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := r.db.GetDB().QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to execute query", err)
	}
	return rows, nil
}
func (r *PostgresBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.GetDB().PingContext(ctx); err != nil {
		return errors.NewDatabaseError("failed to ping database", err)
	}
	return nil
}
func (r *PostgresBaseRepo) Close() error {
	if err := r.db.GetDB().Close(); err != nil {
		return errors.NewDatabaseError("failed to close database", err)
	}
	return nil
}

func (r *PostgresBaseRepo) rebind(query string) string {
	return r.db.GetDB().Rebind(query)
}

// get loads a single row into dest, mapping sql.ErrNoRows to a not-found error.
func (r *PostgresBaseRepo) get(ctx context.Context, dest interface{}, entity, query string, args ...interface{}) error {
	err := r.db.GetDB().GetContext(ctx, dest, r.rebind(query), args...)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError(entity+" not found", err)
		}
		return errors.NewDatabaseError("failed to get "+entity, err)
	}
	return nil
}

// execIn runs a statement with a single IN (?) list inside tx.
func execIn(ctx context.Context, tx database.Transaction, query string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return 0, errors.NewInternalError("failed to expand query", err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(q), args...)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to execute query", err)
	}
	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (int64, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}
	return rows, nil
}

// expectOne turns a zero-row update or delete into a not-found error.
func expectOne(result sql.Result, entity string) error {
	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NewNotFoundError(entity+" not found", nil)
	}
	return nil
}
