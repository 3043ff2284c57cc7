// Package middleware provides HTTP middleware components.
package middleware

import (
	"github.com/gin-gonic/gin"

	"hesap/internal/core/scope"
	"hesap/internal/domain/auth"
)

// Gin context keys.
const (
	claimsKey    = "auth_claims"
	scopeKey     = "request_scope"
	requestIDKey = "request_id"
)

// SetClaims stores validated token claims.
func SetClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(claimsKey, claims)
}

// GetClaims returns the claims stored by Auth, or nil.
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// SetScope stores the request scope.
func SetScope(c *gin.Context, sc scope.Scope) {
	c.Set(scopeKey, sc)
}

// GetScope returns the scope built by Scope. The zero scope has no branch
// and is rejected by every domain operation.
func GetScope(c *gin.Context) scope.Scope {
	if v, ok := c.Get(scopeKey); ok {
		if sc, ok := v.(scope.Scope); ok {
			return sc
		}
	}
	return scope.Scope{}
}
