package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/entity"
	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/core/types"
	"hesap/pkg/logger"
)

// Service manages cash and bank accounts.
type Service struct {
	repo Repository
}

// NewService creates a new account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateCommand describes a new account.
type CreateCommand struct {
	Code     string
	Name     string
	Type     string
	Currency string
	IBAN     *string
}

// Create opens an account with a zero balance.
func (s *Service) Create(ctx context.Context, sc scope.Scope, cmd CreateCommand) (*Account, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	currency, err := types.ParseCurrency("currency", cmd.Currency)
	if err != nil {
		return nil, err
	}

	a := &Account{
		BaseEntity: entity.NewBaseEntity(sc.BranchID),
		Code:       strings.TrimSpace(cmd.Code),
		Name:       strings.TrimSpace(cmd.Name),
		Type:       Type(cmd.Type),
		Currency:   currency,
		IBAN:       cmd.IBAN,
		Balance:    decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	logger.Info(ctx, "account created", "account_id", a.ID, "branch_id", sc.BranchID, "type", a.Type)
	return a, nil
}

// Get loads an account visible to the caller.
func (s *Service) Get(ctx context.Context, sc scope.Scope, accountID id.ID) (*Account, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, sc.BranchID, accountID)
}
