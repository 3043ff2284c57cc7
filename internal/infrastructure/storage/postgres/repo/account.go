package repo

import (
	"context"

	"hesap/internal/core/id"
	"hesap/internal/domain/account"
	"hesap/internal/infrastructure/storage/postgres"
)

const accountsTable = "cash_bank_accounts"

var accountColumns = postgres.ExtractDBColumns[account.Account]()

// AccountRepo implements account.Repository.
type AccountRepo struct {
	base
}

var _ account.Repository = (*AccountRepo)(nil)

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{base: newBase(txm)}
}

// Create implements account.Repository.
func (r *AccountRepo) Create(ctx context.Context, a *account.Account) error {
	return r.insert(ctx, accountsTable, "account", accountColumns, a)
}

// GetByID implements account.Repository.
func (r *AccountRepo) GetByID(ctx context.Context, branchID, accountID id.ID) (*account.Account, error) {
	var a account.Account
	if err := r.get(ctx, &a, branchRowQuery(accountsTable, accountColumns, branchID, accountID)); err != nil {
		return nil, postgres.NotFoundOr(err, "account", accountID)
	}
	return &a, nil
}
