package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hesap/internal/core/apperror"
	"hesap/internal/core/id"
)

type memUsers struct {
	byEmail map[string]*User
	updates int
}

func (m *memUsers) Create(_ context.Context, u *User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return apperror.NewDuplicate("user", "email", u.Email)
	}
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("user", email)
}

func (m *memUsers) UpdateLoginState(_ context.Context, u *User) error {
	m.updates++
	m.byEmail[u.Email] = u
	return nil
}

func newTestService(t *testing.T) (*Service, *memUsers, id.ID) {
	t.Helper()
	users := &memUsers{byEmail: map[string]*User{}}
	svc := NewService(users, NewJWTService(DefaultJWTConfig("test-secret")), DefaultServiceConfig())
	branchID := id.New()
	_, err := svc.CreateUser(context.Background(), CreateUserCommand{
		BranchID: branchID, Email: " Clerk@Example.com ", Password: "correct-horse", Roles: []string{"clerk"},
	})
	require.NoError(t, err)
	return svc, users, branchID
}

func TestLogin_IssuesBranchToken(t *testing.T) {
	svc, _, branchID := newTestService(t)

	token, user, err := svc.Login(context.Background(), Credentials{Email: "clerk@example.com", Password: "correct-horse"})

	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NotNil(t, user.LastLoginAt)

	claims, err := svc.jwtService.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	sc, err := claims.Scope()
	require.NoError(t, err)
	assert.Equal(t, branchID, sc.BranchID)
	assert.Equal(t, user.ID.String(), sc.UserID)
	assert.True(t, sc.HasRole("clerk"))
}

func TestLogin_WrongPasswordLocksAfterMaxAttempts(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	for range DefaultServiceConfig().MaxLoginAttempts {
		_, _, err := svc.Login(ctx, Credentials{Email: "clerk@example.com", Password: "wrong"})
		assert.True(t, apperror.IsUnauthorized(err))
	}

	_, _, err := svc.Login(ctx, Credentials{Email: "clerk@example.com", Password: "correct-horse"})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	assert.Equal(t, DefaultServiceConfig().MaxLoginAttempts, users.updates)

	svc.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	_, _, err = svc.Login(ctx, Credentials{Email: "clerk@example.com", Password: "correct-horse"})
	assert.NoError(t, err)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), Credentials{Email: "nobody@example.com", Password: "x"})

	assert.True(t, apperror.IsUnauthorized(err))
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _, branchID := newTestService(t)

	_, err := svc.CreateUser(context.Background(), CreateUserCommand{BranchID: branchID, Email: "a@b.c", Password: "short"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.CreateUser(context.Background(), CreateUserCommand{Email: "a@b.c", Password: "long-enough"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.CreateUser(context.Background(), CreateUserCommand{BranchID: branchID, Email: "CLERK@example.com", Password: "long-enough"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestValidateToken_Rejects(t *testing.T) {
	jwtSvc := NewJWTService(DefaultJWTConfig("secret-a"))
	other := NewJWTService(DefaultJWTConfig("secret-b"))
	token, err := other.IssueToken("u1", id.New(), "", nil)
	require.NoError(t, err)

	_, err = jwtSvc.ValidateToken(token.AccessToken)
	assert.True(t, apperror.IsUnauthorized(err))

	_, err = jwtSvc.ValidateToken("not-a-jwt")
	assert.True(t, apperror.IsUnauthorized(err))

	expired := NewJWTService(JWTConfig{Secret: "secret-a", Issuer: "hesap", AccessTokenTTL: -time.Minute})
	token, err = expired.IssueToken("u1", id.New(), "", nil)
	require.NoError(t, err)
	_, err = jwtSvc.ValidateToken(token.AccessToken)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestClaimsScope_RequiresBranch(t *testing.T) {
	_, err := (&Claims{UserID: "u1"}).Scope()

	assert.True(t, apperror.IsUnauthorized(err))
}
