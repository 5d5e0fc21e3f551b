package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/pkg/circuit"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/redis"
)

// CacheRecorder receives the outcome of each cache lookup.
type CacheRecorder interface {
	CacheResult(result string)
}

type nopCacheRecorder struct{}

func (nopCacheRecorder) CacheResult(string) {}

// cachedUser is the cached projection of a user. The credential hash is never
// cached: only FindByID is served from Redis and no caller of FindByID
// compares passwords.
type cachedUser struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        model.Role `json:"role"`
	IsActive    bool       `json:"isActive"`
	PushTargets []string   `json:"fcmTokens"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CachedUserStore is a read-through Redis cache in front of a UserStore.
// Redis failures never fail a request: the breaker opens and lookups go
// straight to the backing store.
type CachedUserStore struct {
	UserStore
	cache    *redis.Client
	breaker  *circuit.Breaker
	ttl      time.Duration
	recorder CacheRecorder
}

func NewCachedUserStore(store UserStore, cache *redis.Client, breaker *circuit.Breaker, ttl time.Duration, recorder CacheRecorder) *CachedUserStore {
	if recorder == nil {
		recorder = nopCacheRecorder{}
	}
	return &CachedUserStore{
		UserStore: store,
		cache:     cache,
		breaker:   breaker,
		ttl:       ttl,
		recorder:  recorder,
	}
}

func userKey(id string) string {
	return constants.CacheKeyUser + id
}

func isMiss(err error) bool {
	return errors.Is(err, redis.ErrCacheMiss)
}

func (s *CachedUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	var cached cachedUser
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.cache.GetJSON(ctx, userKey(id), &cached)
	}, isMiss)

	switch {
	case err == nil:
		s.recorder.CacheResult("hit")
		return &model.User{
			ID:          cached.ID,
			Email:       cached.Email,
			Name:        cached.Name,
			Role:        cached.Role,
			IsActive:    cached.IsActive,
			PushTargets: cached.PushTargets,
			CreatedAt:   cached.CreatedAt,
			UpdatedAt:   cached.UpdatedAt,
		}, nil
	case isMiss(err):
		s.recorder.CacheResult("miss")
	case errors.Is(err, circuit.ErrCircuitOpen), errors.Is(err, circuit.ErrTooManyRequests):
		s.recorder.CacheResult("bypass")
	default:
		s.recorder.CacheResult("error")
		logger.WarnWithContext(ctx, "User cache read failed").
			String("user_id", id).
			Err(err).
			Log()
	}

	user, err := s.UserStore.FindByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}

	entry := cachedUser{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		IsActive:    user.IsActive,
		PushTargets: user.PushTargets,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
	_ = s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.cache.SetJSON(ctx, userKey(id), entry, s.ttl)
	})
	return user, nil
}

func (s *CachedUserStore) AddPushTarget(ctx context.Context, userID, target string) error {
	if err := s.UserStore.AddPushTarget(ctx, userID, target); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	return nil
}

// Invalidate drops the cached entry for userID
func (s *CachedUserStore) Invalidate(ctx context.Context, userID string) {
	_ = s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.cache.Delete(ctx, userKey(userID))
	})
}

// Ping reports the backing store's connectivity
func (s *CachedUserStore) Ping(ctx context.Context) error {
	if p, ok := s.UserStore.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
