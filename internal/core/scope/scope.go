// Package scope defines the request-scoped caller identity that every domain
// operation receives explicitly. There is no process-wide "current branch".
package scope

import (
	"hesap/internal/core/apperror"
	"hesap/internal/core/id"
)

// Scope identifies who is calling and which branch the call is bound to.
type Scope struct {
	BranchID id.ID
	UserID   string
	Roles    []string
}

// New builds a scope for a branch and user.
func New(branchID id.ID, userID string, roles ...string) Scope {
	return Scope{BranchID: branchID, UserID: userID, Roles: roles}
}

// RequireBranch fails with Unauthorized when the caller has no branch.
func (s Scope) RequireBranch() error {
	if id.IsNil(s.BranchID) {
		return apperror.NewUnauthorized("branch context is required for this operation")
	}
	return nil
}

// Owns reports whether a row with the given branch is visible to the caller.
func (s Scope) Owns(branchID id.ID) bool {
	return !id.IsNil(s.BranchID) && s.BranchID == branchID
}

// HasRole checks if the caller carries role.
func (s Scope) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}
