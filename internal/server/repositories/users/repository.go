package users

import (
	"context"

	"github.com/dmitrijs2005/gearhub/internal/server/models"
)

// Repository persists principals. Email is the unique key.
type Repository interface {
	// Upsert creates the principal with role "user" or merges profile into
	// the existing one. The role is never touched.
	Upsert(ctx context.Context, email string, profile models.Document) (*models.User, error)
	UpdateProfile(ctx context.Context, email string, profile models.Document) (*models.User, error)
	SetRole(ctx context.Context, email string, role string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}
