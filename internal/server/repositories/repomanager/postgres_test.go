package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return db, mock
}

func TestFactories_ReturnRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManager()

	assert.NotNil(t, m.Users(db))
	assert.NotNil(t, m.Equipment(db))
	assert.NotNil(t, m.Orders(db))
	assert.NotNil(t, m.Payments(db))
}

func TestRunMigrations(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	t.Run("success", func(t *testing.T) {
		gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
			if dir != "." {
				return errors.New("unexpected dir")
			}
			return nil
		}
		assert.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	})

	t.Run("error", func(t *testing.T) {
		gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
			return errors.New("boom")
		}
		err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
		assert.ErrorContains(t, err, "migration error: boom")
	})
}

func TestOpenDB(t *testing.T) {
	orig := sqlOpen
	defer func() { sqlOpen = orig }()

	t.Run("ping ok", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectPing()
		sqlOpen = func(driver, dsn string) (*sql.DB, error) {
			assert.Equal(t, "pgx", driver)
			return db, nil
		}

		got, err := OpenDB(context.Background(), "postgres://x")
		require.NoError(t, err)
		assert.Same(t, db, got)
		_ = got.Close()
	})

	t.Run("ping fails", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectPing().WillReturnError(errors.New("refused"))
		mock.ExpectClose()
		sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }

		_, err := OpenDB(context.Background(), "postgres://x")
		assert.ErrorContains(t, err, "db ping error: refused")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open fails", func(t *testing.T) {
		sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("bad dsn") }

		_, err := OpenDB(context.Background(), "::")
		assert.ErrorContains(t, err, "db open error: bad dsn")
	})
}
