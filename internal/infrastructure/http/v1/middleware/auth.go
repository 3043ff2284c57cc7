package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/apperror"
	"hesap/internal/domain/auth"
	"hesap/internal/infrastructure/policy"
	"hesap/pkg/logger"
)

// TokenValidator validates access tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// BranchPolicy decides whether validated claims may act on a request.
type BranchPolicy interface {
	Allow(claims *auth.Claims, req policy.Request) (bool, error)
}

// Auth middleware validates the bearer token and stores its claims.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWith(c, apperror.NewUnauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWith(c, apperror.NewUnauthorized("invalid authorization header format"))
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortWith(c, apperror.NewUnauthorized("invalid token"))
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// Scope middleware evaluates the branch policy and turns the claims into
// the request scope handed to every service call.
func Scope(p BranchPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abortWith(c, apperror.NewUnauthorized("authentication required"))
			return
		}

		allowed, err := p.Allow(claims, policy.Request{Method: c.Request.Method, Path: c.FullPath()})
		if err != nil {
			abortWith(c, apperror.NewInternal(err))
			return
		}
		if !allowed {
			abortWith(c, apperror.NewForbidden("branch access denied by policy"))
			return
		}

		sc, err := claims.Scope()
		if err != nil {
			abortWith(c, err)
			return
		}
		SetScope(c, sc)

		c.Request = c.Request.WithContext(logger.ContextWithScope(c.Request.Context(), sc.BranchID, sc.UserID))

		c.Next()
	}
}

// RequireRole middleware checks that the caller carries one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := GetScope(c)
		for _, role := range roles {
			if sc.HasRole(role) {
				c.Next()
				return
			}
		}
		abortWith(c, apperror.NewForbidden("insufficient permissions").WithDetail("required_roles", roles))
	}
}

func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
