// FilePath: internal/repository/postgres/postgres.user.go
package postgres

import (
	"context"

	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
)

const userColumns = `id, email, name, password_hash, reset_token, reset_expires, role,
	timezone, language, country, created_at, updated_at`

type UserRepo struct {
	PostgresBaseRepo
}

func NewUserRepository(db database.DB) *UserRepo {
	repo := &PostgresBaseRepo{db: db}
	return &UserRepo{PostgresBaseRepo: *repo}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, email, name, password_hash, reset_token, reset_expires, role,
			timezone, language, country, created_at, updated_at
		) VALUES (
			:id, :email, :name, :password_hash, :reset_token, :reset_expires, :role,
			:timezone, :language, :country, :created_at, :updated_at
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, user)
	if err != nil {
		return errors.NewDatabaseError("failed to create user", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	if err := r.get(ctx, user, "user", `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail matches case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	if err := r.get(ctx, user, "user", `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?)`, email); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	user := &models.User{}
	if err := r.get(ctx, user, "user", `SELECT `+userColumns+` FROM users WHERE reset_token = ?`, token); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetDB().GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, errors.NewDatabaseError("failed to count users", err)
	}
	return count, nil
}

// Update writes every mutable column. Callers filter writable fields before this.
func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			email = :email,
			name = :name,
			password_hash = :password_hash,
			reset_token = :reset_token,
			reset_expires = :reset_expires,
			role = :role,
			timezone = :timezone,
			language = :language,
			country = :country,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, user)
	if err != nil {
		return errors.NewDatabaseError("failed to update user", err)
	}
	return expectOne(result, "user")
}

func (r *UserRepo) DeleteWithTx(ctx context.Context, id string, tx database.Transaction) error {
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete user", err)
	}
	return expectOne(result, "user")
}
