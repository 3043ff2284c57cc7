package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hesap/internal/domain/auth"
	"hesap/internal/infrastructure/http/v1/dto"
)

// AuthService signs users in.
type AuthService interface {
	Login(ctx context.Context, creds auth.Credentials) (*auth.Token, *auth.User, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service AuthService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromLogin(token, user))
}
