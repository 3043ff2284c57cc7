package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"hesap/internal/domain/auth"
	"hesap/internal/infrastructure/storage/postgres"
)

const usersTable = "users"

var userColumns = postgres.ExtractDBColumns[auth.User]()

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	base
}

var _ auth.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{base: newBase(txm)}
}

// Create implements auth.UserRepository.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	return r.insert(ctx, usersTable, "user", userColumns, user)
}

// GetByEmail implements auth.UserRepository.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	q := psql.Select(userColumns...).
		From(usersTable).
		Where(squirrel.Eq{"email": auth.NormalizeEmail(email)})

	var user auth.User
	if err := r.get(ctx, &user, q); err != nil {
		return nil, postgres.NotFoundOr(err, "user", email)
	}
	return &user, nil
}

// loginStateQuery writes only the columns a login attempt changes.
func loginStateQuery(user *auth.User) squirrel.UpdateBuilder {
	return psql.Update(usersTable).
		Set("failed_login_attempts", user.FailedLoginAttempts).
		Set("locked_until", user.LockedUntil).
		Set("last_login_at", user.LastLoginAt).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"id": user.ID})
}

// UpdateLoginState implements auth.UserRepository.
func (r *UserRepo) UpdateLoginState(ctx context.Context, user *auth.User) error {
	if _, err := r.exec(ctx, loginStateQuery(user)); err != nil {
		return fmt.Errorf("update login state: %w", err)
	}
	return nil
}
