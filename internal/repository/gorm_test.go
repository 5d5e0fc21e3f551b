package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Payphone-Digital/auth-service/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Set POSTGRES_TEST_DSN to run these tests against a scratch database.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping PostgreSQL tests")
	}

	db, err := database.OpenPostgres(dsn, database.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, GormModels()...))

	t.Cleanup(func() {
		db.Exec("DELETE FROM tokens")
		db.Exec("DELETE FROM users")
		_ = database.CloseDB(db)
	})
	return db
}

func TestGormUserStore_Contract(t *testing.T) {
	testUserStoreContract(t, NewGormUserStore(setupPostgres(t)))
}

func TestGormTokenStore_Contract(t *testing.T) {
	testTokenStoreContract(t, NewGormTokenStore(setupPostgres(t)))
}

func TestGormTokenStore_ConcurrentRotate(t *testing.T) {
	testConcurrentRotate(t, NewGormTokenStore(setupPostgres(t)), "00000000-0000-0000-0000-000000000001")
}

func TestGormTokenStore_PurgeExpired(t *testing.T) {
	store := NewGormTokenStore(setupPostgres(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, newTestRecord("u-1", now.Add(-time.Minute))))
	require.NoError(t, store.Insert(ctx, newTestRecord("u-1", now.Add(time.Hour))))

	n, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
