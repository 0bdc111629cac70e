package payments

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const insertQuery = `^INSERT INTO payments \(transaction_id, order_id, amount, currency\) VALUES \(\$1, \$2, \$3, \$4\) RETURNING id, created_at$`

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("T1", "O1", int64(500), "usd").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("p1", time.Now()))

	got, err := repo.Create(context.Background(), &models.Payment{TransactionID: "T1", OrderID: "O1", Amount: 500, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("T1", "O1", int64(500), "usd").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "payments_order_id_key"})

	_, err := repo.Create(context.Background(), &models.Payment{TransactionID: "T1", OrderID: "O1", Amount: 500, Currency: "usd"})
	assert.ErrorIs(t, err, common.ErrAlreadySettled)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("down"))

	_, err := repo.Create(context.Background(), &models.Payment{TransactionID: "T1", OrderID: "O1"})
	assert.ErrorContains(t, err, "db error: down")
}

func TestGetByOrderID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^SELECT id, transaction_id, order_id, amount, currency, created_at FROM payments WHERE order_id = \$1$`
	mock.ExpectQuery(q).WithArgs("O1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "order_id", "amount", "currency", "created_at"}).
			AddRow("p1", "T1", "O1", int64(500), "usd", time.Now()))
	mock.ExpectQuery(q).WithArgs("O2").WillReturnError(sql.ErrNoRows)

	p, err := repo.GetByOrderID(context.Background(), "O1")
	require.NoError(t, err)
	assert.Equal(t, "T1", p.TransactionID)

	_, err = repo.GetByOrderID(context.Background(), "O2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListOrphaned(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM payments p JOIN orders o ON o\.id = p\.order_id WHERE o\.paid = false`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "order_id", "amount", "currency", "created_at"}).
			AddRow("p1", "T1", "O1", int64(500), "usd", time.Now()))

	got, err := repo.ListOrphaned(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "O1", got[0].OrderID)
}
