// Package services contains server-side business logic: the user directory,
// the inventory ledger, the order ledger and the payment bridge. Services
// own timeouts, retries of idempotent reads and transactions; repositories
// only run statements.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/dbx"
	"github.com/dmitrijs2005/gearhub/internal/logging"
	"github.com/dmitrijs2005/gearhub/internal/server/auth"
	"github.com/dmitrijs2005/gearhub/internal/server/config"
	"github.com/dmitrijs2005/gearhub/internal/server/models"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/repomanager"
)

// UserService owns principal records and role escalation, and mints
// identity tokens at login.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	tokens                      *auth.TokenAuthority
	accessTokenValidityDuration time.Duration
	storeTimeout                time.Duration
	log                         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenAuthority,
	cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		tokens:                      tokens,
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		storeTimeout:                cfg.StoreTimeout,
		log:                         log,
	}
}

// NormalizeEmail lower-cases and trims email and rejects values that are
// clearly not addresses.
func NormalizeEmail(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	at := strings.IndexByte(e, '@')
	if at <= 0 || at == len(e)-1 || strings.ContainsAny(e, " \t/") {
		return "", fmt.Errorf("%w: invalid email %q", common.ErrorValidation, email)
	}
	return e, nil
}

// UpsertProfile creates the principal on first login or merges profile into
// the existing record, and returns it together with a fresh identity token.
// Calling it twice with the same input leaves the same record.
func (s *UserService) UpsertProfile(ctx context.Context, email string, profile models.Document) (*models.User, string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, "", err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repomanager.Users(s.db).Upsert(ctx, email, profile)
	if err != nil {
		return nil, "", storeErr("upsert user", err)
	}

	token, err := s.tokens.Issue(user.Email, s.accessTokenValidityDuration)
	if err != nil {
		s.log.Error(ctx, "token issue failed", "email", user.Email, "error", err)
		return nil, "", common.ErrorInternal
	}

	s.log.Info(ctx, "user logged in", "email", user.Email)
	return user, token, nil
}

// UpdateProfile merges profile into an existing principal.
func (s *UserService) UpdateProfile(ctx context.Context, email string, profile models.Document) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repomanager.Users(s.db).UpdateProfile(ctx, email, profile)
	if err != nil {
		return nil, storeErr("update profile", err)
	}
	return user, nil
}

// PromoteToAdmin grants the admin role. Callers must have passed the admin
// gate. There is no demotion.
func (s *UserService) PromoteToAdmin(ctx context.Context, email string) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repomanager.Users(s.db).SetRole(ctx, email, models.RoleAdmin)
	if err != nil {
		return nil, storeErr("promote user", err)
	}

	s.log.Info(ctx, "user promoted to admin", "email", email)
	return user, nil
}

// IsAdmin reports whether email has the admin role. An unknown email yields
// common.ErrorNotFound, never a plain false.
func (s *UserService) IsAdmin(ctx context.Context, email string) (bool, error) {
	user, err := s.Get(ctx, email)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

func (s *UserService) Get(ctx context.Context, email string) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := dbx.RetryRead(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.db).GetByEmail(ctx, email)
	})
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	users, err := dbx.RetryRead(ctx, func(ctx context.Context) ([]*models.User, error) {
		return s.repomanager.Users(s.db).List(ctx)
	})
	if err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}
