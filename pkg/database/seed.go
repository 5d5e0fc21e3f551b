package database

import (
	"context"
	"errors"
	"fmt"
)

// DefaultAdmin defines the bootstrap admin account
type DefaultAdmin struct {
	Name     string
	Email    string
	Password string
}

// AdminRegistrar creates an admin account; it reports created=false when the
// email is already taken.
type AdminRegistrar interface {
	RegisterAdmin(ctx context.Context, name, email, password string) (created bool, err error)
}

// Seed creates the bootstrap admin if it does not exist yet
func Seed(ctx context.Context, r AdminRegistrar, admin DefaultAdmin) (bool, error) {
	if admin.Email == "" || admin.Password == "" {
		return false, errors.New("seed admin requires email and password")
	}

	created, err := r.RegisterAdmin(ctx, admin.Name, admin.Email, admin.Password)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return created, nil
}
