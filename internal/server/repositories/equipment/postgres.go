package equipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/dbx"
	"github.com/dmitrijs2005/gearhub/internal/server/models"
)

const equipmentColumns = `id, name, description, image, price, available_quantity, min_order_quantity, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row rowScanner) (*models.Equipment, error) {
	e := &models.Equipment{}
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Image, &e.Price,
		&e.AvailableQuantity, &e.MinOrderQuantity, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.Equipment) (*models.Equipment, error) {
	query :=
		`INSERT INTO equipment (name, description, image, price, available_quantity, min_order_quantity)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		item.Name, item.Description, item.Image, item.Price, item.AvailableQuantity, item.MinOrderQuantity,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, dbx.Err(err)
	}

	return item, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return dbx.Err(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`

	e, err := scanEquipment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Err(err)
	}

	return e, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbx.Err(err)
	}
	defer rows.Close()

	var result []*models.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, dbx.Err(err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Err(err)
	}

	return result, nil
}

// AdjustQuantity is a single conditional UPDATE, so concurrent adjustments on
// the same row serialize on the row lock and none of them is lost.
func (r *PostgresRepository) AdjustQuantity(ctx context.Context, id string, delta int64) (int64, error) {
	query :=
		`UPDATE equipment
		 SET available_quantity = available_quantity + $2, updated_at = now()
		 WHERE id = $1 AND available_quantity + $2 >= 0
		 RETURNING available_quantity`

	var quantity int64
	err := r.db.QueryRowContext(ctx, query, id, delta).Scan(&quantity)
	if err == nil {
		return quantity, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, dbx.Err(err)
	}

	// No row matched: either the item is gone or the guard rejected the delta.
	err = r.db.QueryRowContext(ctx, `SELECT available_quantity FROM equipment WHERE id = $1`, id).Scan(&quantity)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, common.ErrorNotFound
	case err != nil:
		return 0, dbx.Err(err)
	default:
		return quantity, common.ErrInsufficientStock
	}
}

func (r *PostgresRepository) SetImage(ctx context.Context, id string, storageKey string) error {
	query := `UPDATE equipment SET image = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, storageKey)
	if err != nil {
		return dbx.Err(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
