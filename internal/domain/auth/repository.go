package auth

import (
	"context"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user; a taken email is a Duplicate business rule.
	Create(ctx context.Context, user *User) error

	// GetByEmail retrieves an active or inactive user by normalized email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateLoginState stores failed attempts, lock and last login.
	UpdateLoginState(ctx context.Context, user *User) error
}
