package dbx

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories translate to domain errors.
const (
	PgUniqueViolation           = "23505"
	PgForeignKeyViolation       = "23503"
	PgInvalidTextRepresentation = "22P02"
)

// PgCode returns the SQLSTATE of err, or "" for non-Postgres errors.
func PgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Err wraps a driver error for the service layer. A key the store cannot
// even parse (a non-UUID id) names no row, so it is common.ErrorNotFound.
func Err(err error) error {
	if PgCode(err) == PgInvalidTextRepresentation {
		return fmt.Errorf("%w: malformed id", common.ErrorNotFound)
	}
	return fmt.Errorf("db error: %w", err)
}
