package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The helpers below run the same behaviour checks against every backend.

func newTestUser(email string) *model.User {
	return &model.User{
		Email:        email,
		PasswordHash: "$2a$04$hash",
		Name:         "Test",
		Role:         model.RoleUser,
		IsActive:     true,
	}
}

func testUserStoreContract(t *testing.T, store UserStore) {
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"

	got, err := store.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Nil(t, got, "absent user must be (nil, nil)")

	u := newTestUser(email)
	require.NoError(t, store.Create(ctx, u))
	require.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	exists, err := store.Exists(ctx, email)
	require.NoError(t, err)
	assert.True(t, exists)

	err = store.Create(ctx, newTestUser(email))
	assert.ErrorIs(t, err, ErrDuplicate)

	byID, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, email, byID.Email)
	assert.Equal(t, "$2a$04$hash", byID.PasswordHash)
	assert.True(t, byID.IsActive)

	require.NoError(t, store.AddPushTarget(ctx, u.ID, "device-a"))
	require.NoError(t, store.AddPushTarget(ctx, u.ID, "device-a"))
	require.NoError(t, store.AddPushTarget(ctx, u.ID, "device-b"))

	byEmail, err := store.FindByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.ElementsMatch(t, []string{"device-a", "device-b"}, byEmail.PushTargets)

	missing, err := store.FindByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func newTestRecord(userID string, expiresAt time.Time) *model.TokenRecord {
	return &model.TokenRecord{
		UserID:    userID,
		Token:     uuid.NewString(),
		Kind:      model.TokenRefresh,
		ExpiresAt: expiresAt,
		Valid:     true,
	}
}

func testTokenStoreContract(t *testing.T, store TokenStore) {
	ctx := context.Background()
	now := time.Now().UTC()
	userID := uuid.NewString()

	first := newTestRecord(userID, now.Add(time.Hour))
	require.NoError(t, store.Insert(ctx, first))

	rec, err := store.FindValid(ctx, first.Token, model.TokenRefresh, now)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, userID, rec.UserID)

	rec, err = store.FindValid(ctx, first.Token, model.TokenAccess, now)
	require.NoError(t, err)
	assert.Nil(t, rec, "kind must match")

	rec, err = store.FindValid(ctx, first.Token, model.TokenRefresh, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, rec, "expired record must not be returned")

	second := newTestRecord(userID, now.Add(time.Hour))
	require.NoError(t, store.Rotate(ctx, second))

	rec, err = store.FindValid(ctx, first.Token, model.TokenRefresh, now)
	require.NoError(t, err)
	assert.Nil(t, rec, "rotation must invalidate the predecessor")

	rec, err = store.FindValid(ctx, second.Token, model.TokenRefresh, now)
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.NoError(t, store.InvalidateByToken(ctx, second.Token, model.TokenRefresh))
	require.NoError(t, store.InvalidateByToken(ctx, second.Token, model.TokenRefresh))
	require.NoError(t, store.InvalidateByToken(ctx, "unknown", model.TokenRefresh))

	rec, err = store.FindValid(ctx, second.Token, model.TokenRefresh, now)
	require.NoError(t, err)
	assert.Nil(t, rec)

	third := newTestRecord(userID, now.Add(time.Hour))
	require.NoError(t, store.Insert(ctx, third))
	n, err := store.InvalidateAllValid(ctx, userID, model.TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func testConcurrentRotate(t *testing.T, store TokenStore, userID string) {
	ctx := context.Background()
	now := time.Now().UTC()

	records := make([]*model.TokenRecord, 8)
	for i := range records {
		records[i] = newTestRecord(userID, now.Add(time.Hour))
	}

	var wg sync.WaitGroup
	for _, r := range records {
		wg.Add(1)
		go func(r *model.TokenRecord) {
			defer wg.Done()
			_ = store.Rotate(ctx, r)
		}(r)
	}
	wg.Wait()

	valid := 0
	for _, r := range records {
		rec, err := store.FindValid(ctx, r.Token, model.TokenRefresh, now)
		require.NoError(t, err)
		if rec != nil {
			valid++
		}
	}
	assert.Equal(t, 1, valid, "exactly one login must survive concurrent rotation")
}
