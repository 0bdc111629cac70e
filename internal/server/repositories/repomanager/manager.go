package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gearhub/internal/dbx"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/equipment"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/orders"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/payments"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a handle, so the same code
// runs against the pool or inside a transaction opened with dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Equipment(db dbx.DBTX) equipment.Repository
	Orders(db dbx.DBTX) orders.Repository
	Payments(db dbx.DBTX) payments.Repository
}
