package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Payphone-Digital/auth-service/config"
	"github.com/Payphone-Digital/auth-service/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Set MONGO_TEST_URI (e.g. mongodb://localhost:27017) to run these tests.
func setupMongo(t *testing.T) *database.Mongo {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping MongoDB tests")
	}

	m, err := database.NewMongo(config.MongoConfig{
		URI:     uri,
		Name:    "auth_test_" + uuid.NewString()[:8],
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, m.EnsureIndexes(context.Background()))

	t.Cleanup(func() {
		_ = m.DB.Drop(context.Background())
		_ = m.Close()
	})
	return m
}

func TestMongoUserStore_Contract(t *testing.T) {
	testUserStoreContract(t, NewMongoUserStore(setupMongo(t)))
}

func TestMongoTokenStore_Contract(t *testing.T) {
	testTokenStoreContract(t, NewMongoTokenStore(setupMongo(t)))
}

func TestMongoTokenStore_ConcurrentRotate(t *testing.T) {
	m := setupMongo(t)
	if !m.Transactions {
		t.Skip("deployment has no transaction support")
	}

	u := newTestUser(uuid.NewString() + "@example.com")
	require.NoError(t, NewMongoUserStore(m).Create(context.Background(), u))
	testConcurrentRotate(t, NewMongoTokenStore(m), u.ID)
}
