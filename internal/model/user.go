package model

import (
	"slices"
	"strings"
	"time"
)

// Role is the authorization level attached to a user and carried in tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Roles lists every recognised role.
var Roles = []Role{RoleUser, RoleAdmin}

// ParseRole returns the role named by s. Matching is exact.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// User is the stored identity record. PasswordHash is never serialized to JSON.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password" json:"-"`
	Name         string    `bson:"name" json:"name"`
	Role         Role      `bson:"role" json:"role"`
	IsActive     bool      `bson:"is_active" json:"isActive"`
	PushTargets  []string  `bson:"fcm_tokens" json:"fcmTokens"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// NormalizeEmail applies the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasPushTarget reports whether target is already registered for the user.
func (u *User) HasPushTarget(target string) bool {
	return slices.Contains(u.PushTargets, target)
}

// Sanitized returns a copy of the user without the credential hash.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	clone.PushTargets = slices.Clone(u.PushTargets)
	if clone.PushTargets == nil {
		clone.PushTargets = []string{}
	}
	return &clone
}
