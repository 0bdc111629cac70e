package orders

import (
	"context"

	"github.com/dmitrijs2005/gearhub/internal/server/models"
)

// Repository persists orders. Every mutation of an existing order is
// conditional on paid = false; when that guard rejects a write the methods
// return common.ErrAlreadySettled, and common.ErrorNotFound when the order
// does not exist at all.
type Repository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Order, error)
	ListByEmail(ctx context.Context, email string) ([]*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
	UpdateUnpaid(ctx context.Context, order *models.Order) (*models.Order, error)
	MarkPaid(ctx context.Context, id string, paymentID string) error
	DeleteUnpaid(ctx context.Context, id string) error
}
