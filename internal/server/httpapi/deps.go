package httpapi

import (
	"context"

	"github.com/dmitrijs2005/gearhub/internal/server/models"
	"github.com/shopspring/decimal"
)

// TokenVerifier resolves a bearer token to the subject email.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Users interface {
	UpsertProfile(ctx context.Context, email string, profile models.Document) (*models.User, string, error)
	UpdateProfile(ctx context.Context, email string, profile models.Document) (*models.User, error)
	PromoteToAdmin(ctx context.Context, email string) (*models.User, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
	Get(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

type Inventory interface {
	Create(ctx context.Context, item *models.Equipment) (*models.Equipment, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Equipment, error)
	ListAll(ctx context.Context) ([]*models.Equipment, error)
	AdjustQuantity(ctx context.Context, id string, delta int64) (int64, error)
	Restock(ctx context.Context, id string, amount int64) (int64, error)
	ImageUploadURL(ctx context.Context, id string) (*models.ImageUploadTask, error)
}

type Orders interface {
	Create(ctx context.Context, owner string, equipmentID string, quantity int64, details models.Document) (*models.Order, error)
	GetByID(ctx context.Context, subject string, id string) (*models.Order, error)
	ListByOwner(ctx context.Context, email string) ([]*models.Order, error)
	ListAll(ctx context.Context) ([]*models.Order, error)
	Update(ctx context.Context, subject string, id string, upd models.OrderUpdate) (*models.Order, error)
	Settle(ctx context.Context, subject string, id string, rec models.PaymentRecord) (*models.Order, error)
	Cancel(ctx context.Context, subject string, id string) error
}

type Payments interface {
	CreateIntent(ctx context.Context, price decimal.Decimal, currency string) (*models.PaymentIntent, error)
}

// Pinger reports store liveness for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}
