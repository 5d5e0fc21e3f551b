package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/google/uuid"
)

// MemoryStore keeps users and token records in process memory. It backs the
// "memory" store driver and the service tests.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*model.User
	byEmail map[string]string
	tokens  map[string]*model.TokenRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		tokens:  make(map[string]*model.TokenRecord),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.PushTargets = slices.Clone(u.PushTargets)
	return &c
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	return cloneUser(s.users[id]), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return ErrDuplicate
	}

	user.ID = uuid.NewString()
	stamp(&user.CreatedAt, &user.UpdatedAt)
	s.users[user.ID] = cloneUser(user)
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *MemoryStore) AddPushTarget(ctx context.Context, userID, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if !u.HasPushTarget(target) {
		u.PushTargets = append(u.PushTargets, target)
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// SetActive toggles the active flag. There is no HTTP surface for it; the
// service tests use it to deactivate accounts.
func (s *MemoryStore) SetActive(userID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (s *MemoryStore) Insert(ctx context.Context, record *model.TokenRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(record)
}

func (s *MemoryStore) insertLocked(record *model.TokenRecord) error {
	if _, taken := s.tokens[record.Token]; taken {
		return ErrDuplicate
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	stamp(&record.CreatedAt, &record.UpdatedAt)
	c := *record
	s.tokens[record.Token] = &c
	return nil
}

func (s *MemoryStore) invalidateLocked(userID string, kind model.TokenKind) int64 {
	var n int64
	now := time.Now().UTC()
	for _, rec := range s.tokens {
		if rec.UserID == userID && rec.Kind == kind && rec.Valid {
			rec.Valid = false
			rec.UpdatedAt = now
			n++
		}
	}
	return n
}

func (s *MemoryStore) Rotate(ctx context.Context, record *model.TokenRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.tokens[record.Token]; taken {
		return ErrDuplicate
	}
	s.invalidateLocked(record.UserID, record.Kind)
	return s.insertLocked(record)
}

func (s *MemoryStore) InvalidateAllValid(ctx context.Context, userID string, kind model.TokenKind) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidateLocked(userID, kind), nil
}

func (s *MemoryStore) FindValid(ctx context.Context, token string, kind model.TokenKind, now time.Time) (*model.TokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tokens[token]
	if !ok || rec.Kind != kind || !rec.Usable(now) {
		return nil, nil
	}
	c := *rec
	return &c, nil
}

func (s *MemoryStore) InvalidateByToken(ctx context.Context, token string, kind model.TokenKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.tokens[token]; ok && rec.Kind == kind && rec.Valid {
		rec.Valid = false
		rec.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// PurgeExpired drops records whose expiry is at or before now, mirroring the
// TTL index of the document store.
func (s *MemoryStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for tok, rec := range s.tokens {
		if !rec.ExpiresAt.After(now) {
			delete(s.tokens, tok)
			n++
		}
	}
	return n, nil
}
