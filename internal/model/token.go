package model

import "time"

// TokenKind distinguishes the signing secret and expiry policy of a token.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
	// TokenReset is reserved; no current flow issues it.
	TokenReset TokenKind = "reset"
)

// TokenRecord is the persisted state of an issued refresh token.
type TokenRecord struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Token     string    `bson:"token" json:"-"`
	Kind      TokenKind `bson:"type" json:"type"`
	ExpiresAt time.Time `bson:"expires_at" json:"expiresAt"`
	Valid     bool      `bson:"is_valid" json:"isValid"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Usable reports whether the record may still authorize a refresh at now.
func (r *TokenRecord) Usable(now time.Time) bool {
	return r != nil && r.Valid && r.ExpiresAt.After(now)
}
