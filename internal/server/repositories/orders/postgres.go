package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/dbx"
	"github.com/dmitrijs2005/gearhub/internal/server/models"
)

const orderColumns = `id, email, equipment_id, quantity, paid, payment_id, details, total, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	var paymentID sql.NullString
	err := row.Scan(&o.ID, &o.Email, &o.EquipmentID, &o.Quantity, &o.Paid, &paymentID,
		&o.Details, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if paymentID.Valid {
		o.PaymentID = &paymentID.String
	}
	return o, nil
}

func (r *PostgresRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	query :=
		`INSERT INTO orders (email, equipment_id, quantity, details, total)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, paid, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		order.Email, order.EquipmentID, order.Quantity, order.Details, order.Total,
	).Scan(&order.ID, &order.Paid, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, dbx.Err(err)
	}

	order.PaymentID = nil
	return order, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Order, error) {
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) ListByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	return r.many(ctx, `SELECT `+orderColumns+` FROM orders WHERE email = $1 ORDER BY created_at`, email)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Order, error) {
	return r.many(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at`)
}

// UpdateUnpaid sets quantity and total and merges order.Details into the
// stored details, so keys written by a concurrent update are kept.
func (r *PostgresRepository) UpdateUnpaid(ctx context.Context, order *models.Order) (*models.Order, error) {
	query :=
		`UPDATE orders SET quantity = $2, details = details || $3::jsonb, total = $4, updated_at = now()
		 WHERE id = $1 AND paid = false
		 RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, order.ID, order.Quantity, order.Details, order.Total))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.rejected(ctx, order.ID)
		}
		return nil, dbx.Err(err)
	}

	return o, nil
}

// MarkPaid flips the order to paid. Exactly one row must be affected.
func (r *PostgresRepository) MarkPaid(ctx context.Context, id string, paymentID string) error {
	query :=
		`UPDATE orders SET paid = true, payment_id = $2, updated_at = now()
		 WHERE id = $1 AND paid = false`

	result, err := r.db.ExecContext(ctx, query, id, paymentID)
	if err != nil {
		return dbx.Err(err)
	}

	return r.expectOne(ctx, id, result)
}

func (r *PostgresRepository) DeleteUnpaid(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1 AND paid = false`, id)
	if err != nil {
		// A recorded payment still references the order.
		if dbx.PgCode(err) == dbx.PgForeignKeyViolation {
			return common.ErrAlreadySettled
		}
		return dbx.Err(err)
	}

	return r.expectOne(ctx, id, result)
}

func (r *PostgresRepository) expectOne(ctx context.Context, id string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return r.rejected(ctx, id)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// rejected tells apart the two reasons a "paid = false" guarded write can
// match nothing.
func (r *PostgresRepository) rejected(ctx context.Context, id string) error {
	var paid bool
	err := r.db.QueryRowContext(ctx, `SELECT paid FROM orders WHERE id = $1`, id).Scan(&paid)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrorNotFound
	case err != nil:
		return dbx.Err(err)
	case paid:
		return common.ErrAlreadySettled
	default:
		return fmt.Errorf("order %s matched no rows while unpaid", id)
	}
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Err(err)
	}
	return o, nil
}

func (r *PostgresRepository) many(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.Err(err)
	}
	defer rows.Close()

	var result []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, dbx.Err(err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Err(err)
	}

	return result, nil
}
