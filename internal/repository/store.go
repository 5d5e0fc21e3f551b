package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// UserStore persists user records. Lookups return (nil, nil) when no record
// matches so callers can tell absence from failure.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// Create assigns user.ID and timestamps. A taken email yields ErrDuplicate.
	Create(ctx context.Context, user *model.User) error
	Exists(ctx context.Context, email string) (bool, error)
	// AddPushTarget adds target to the user's set; adding twice is a no-op.
	AddPushTarget(ctx context.Context, userID, target string) error
}

// TokenStore persists refresh-token records.
type TokenStore interface {
	Insert(ctx context.Context, record *model.TokenRecord) error
	// Rotate invalidates every valid record of record.UserID with the same
	// kind and inserts record, as one atomic step.
	Rotate(ctx context.Context, record *model.TokenRecord) error
	InvalidateAllValid(ctx context.Context, userID string, kind model.TokenKind) (int64, error)
	FindValid(ctx context.Context, token string, kind model.TokenKind, now time.Time) (*model.TokenRecord, error)
	InvalidateByToken(ctx context.Context, token string, kind model.TokenKind) error
}

// Purger is implemented by token stores without a server-side TTL.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Pinger is implemented by stores that can report backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
