package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UserContract(t *testing.T) {
	testUserStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_TokenContract(t *testing.T) {
	testTokenStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_ConcurrentRotate(t *testing.T) {
	testConcurrentRotate(t, NewMemoryStore(), "u-concurrent")
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	u := newTestUser("copy@example.com")
	require.NoError(t, store.Create(ctx, u))

	got, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Role = model.RoleAdmin
	got.IsActive = false

	again, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, again.Role)
	assert.True(t, again.IsActive)
}

func TestMemoryStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()

	live := newTestRecord("u-1", now.Add(time.Hour))
	dead := newTestRecord("u-1", now.Add(-time.Minute))
	require.NoError(t, store.Insert(ctx, live))
	require.NoError(t, store.Insert(ctx, dead))

	n, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rec, err := store.FindValid(ctx, live.Token, model.TokenRefresh, now)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	_, err := store.FindByEmail(ctx, "x@example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_InvalidateAllValidCountsOnlyOwnRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, newTestRecord("u-1", now.Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, newTestRecord("u-1", now.Add(time.Hour))))
	other := newTestRecord("u-2", now.Add(time.Hour))
	require.NoError(t, store.Insert(ctx, other))

	n, err := store.InvalidateAllValid(ctx, "u-1", model.TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.InvalidateAllValid(ctx, "u-1", model.TokenRefresh)
	require.NoError(t, err)
	assert.Zero(t, n)

	rec, err := store.FindValid(ctx, other.Token, model.TokenRefresh, now)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}
