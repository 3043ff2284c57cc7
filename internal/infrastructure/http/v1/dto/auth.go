package dto

import (
	"time"

	"hesap/internal/domain/auth"
)

// LoginRequest represents login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts the request.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Email: r.Email, Password: r.Password}
}

// LoginResponse carries the access token and the signed-in user.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// UserResponse is the public part of a user.
type UserResponse struct {
	ID       string   `json:"id"`
	BranchID string   `json:"branchId"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName,omitempty"`
	Roles    []string `json:"roles"`
}

// FromLogin maps a login result.
func FromLogin(t *auth.Token, u *auth.User) LoginResponse {
	return LoginResponse{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		ExpiresAt:   t.ExpiresAt,
		User: UserResponse{
			ID:       u.ID.String(),
			BranchID: u.BranchID.String(),
			Email:    u.Email,
			FullName: u.FullName,
			Roles:    u.Roles,
		},
	}
}
