package dbx

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"malformed uuid", &pgconn.PgError{Code: PgInvalidTextRepresentation}, true},
		{"wrapped malformed uuid", fmt.Errorf("scan: %w", &pgconn.PgError{Code: "22P02"}), true},
		{"unique violation", &pgconn.PgError{Code: PgUniqueViolation}, false},
		{"plain", errors.New("conn reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Err(tt.err)
			assert.Equal(t, tt.notFound, errors.Is(got, common.ErrorNotFound))
			if !tt.notFound {
				assert.ErrorIs(t, got, tt.err)
				assert.ErrorContains(t, got, "db error")
			}
		})
	}
}

func TestRetryRead_MalformedIDNotRetried(t *testing.T) {
	calls := 0
	_, err := RetryRead(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, Err(&pgconn.PgError{Code: PgInvalidTextRepresentation})
	})

	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 1, calls)
}

func TestPgCode(t *testing.T) {
	assert.Equal(t, PgForeignKeyViolation, PgCode(fmt.Errorf("delete: %w", &pgconn.PgError{Code: "23503"})))
	assert.Empty(t, PgCode(errors.New("x")))
}
