package account

import (
	"context"

	"hesap/internal/core/id"
)

// Repository persists accounts. GetByID returns NotFound for rows outside
// the branch; a duplicate code is reported as a Duplicate business rule.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, branchID, accountID id.ID) (*Account, error)
}
