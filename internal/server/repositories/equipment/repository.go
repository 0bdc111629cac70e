package equipment

import (
	"context"

	"github.com/dmitrijs2005/gearhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item *models.Equipment) (*models.Equipment, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Equipment, error)
	List(ctx context.Context) ([]*models.Equipment, error)
	// AdjustQuantity atomically adds delta to the available quantity and
	// returns the new value. It fails with common.ErrInsufficientStock,
	// leaving the row untouched, when the result would be negative.
	AdjustQuantity(ctx context.Context, id string, delta int64) (int64, error)
	SetImage(ctx context.Context, id string, storageKey string) error
}
