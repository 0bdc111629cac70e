package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/dbx"
	"github.com/dmitrijs2005/gearhub/internal/server/models"
)

const userColumns = `id, email, role, profile, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Role, &u.Profile, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, email string, profile models.Document) (*models.User, error) {
	query :=
		`INSERT INTO users (email, profile)
		 VALUES ($1, $2)
		 ON CONFLICT (email) DO UPDATE
		 SET profile = users.profile || EXCLUDED.profile, updated_at = now()
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email, profile))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, email string, profile models.Document) (*models.User, error) {
	query :=
		`UPDATE users SET profile = profile || $2, updated_at = now()
		 WHERE email = $1
		 RETURNING ` + userColumns

	return r.one(ctx, query, email, profile)
}

func (r *PostgresRepository) SetRole(ctx context.Context, email string, role string) (*models.User, error) {
	query :=
		`UPDATE users SET role = $2, updated_at = now()
		 WHERE email = $1
		 RETURNING ` + userColumns

	return r.one(ctx, query, email, role)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return r.one(ctx, query, email)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
