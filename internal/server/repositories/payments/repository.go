package payments

import (
	"context"

	"github.com/dmitrijs2005/gearhub/internal/server/models"
)

// Repository stores settlement records. Rows are append-only.
type Repository interface {
	// Create inserts the payment. A second payment for the same order or a
	// reused transaction id fails with common.ErrAlreadySettled.
	Create(ctx context.Context, p *models.Payment) (*models.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	// ListOrphaned returns payments whose order is still marked unpaid.
	ListOrphaned(ctx context.Context) ([]*models.Payment, error)
}
