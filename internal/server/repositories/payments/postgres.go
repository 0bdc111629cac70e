package payments

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/dbx"
	"github.com/dmitrijs2005/gearhub/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	query :=
		`INSERT INTO payments (transaction_id, order_id, amount, currency)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, p.TransactionID, p.OrderID, p.Amount, p.Currency).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if dbx.PgCode(err) == dbx.PgUniqueViolation {
			return nil, common.ErrAlreadySettled
		}
		return nil, dbx.Err(err)
	}

	return p, nil
}

func (r *PostgresRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	query :=
		`SELECT id, transaction_id, order_id, amount, currency, created_at
		 FROM payments WHERE order_id = $1`

	p := &models.Payment{}
	err := r.db.QueryRowContext(ctx, query, orderID).
		Scan(&p.ID, &p.TransactionID, &p.OrderID, &p.Amount, &p.Currency, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Err(err)
	}

	return p, nil
}

func (r *PostgresRepository) ListOrphaned(ctx context.Context) ([]*models.Payment, error) {
	query :=
		`SELECT p.id, p.transaction_id, p.order_id, p.amount, p.currency, p.created_at
		 FROM payments p JOIN orders o ON o.id = p.order_id
		 WHERE o.paid = false
		 ORDER BY p.created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbx.Err(err)
	}
	defer rows.Close()

	var result []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.TransactionID, &p.OrderID, &p.Amount, &p.Currency, &p.CreatedAt); err != nil {
			return nil, dbx.Err(err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Err(err)
	}

	return result, nil
}
