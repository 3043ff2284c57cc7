// Package account holds cash and bank accounts. Their balance is derived
// from payments and written only by the balance service.
package account

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
	"hesap/internal/core/entity"
)

// Type distinguishes cash drawers from bank accounts.
type Type string

const (
	TypeCash Type = "Cash"
	TypeBank Type = "Bank"
)

// IsValid reports whether t is a known account type.
func (t Type) IsValid() bool {
	return t == TypeCash || t == TypeBank
}

// Account is a cash or bank account.
type Account struct {
	entity.BaseEntity

	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
	Type     Type   `db:"account_type" json:"type"`
	Currency string `db:"currency" json:"currency"`

	// IBAN is set for bank accounts only.
	IBAN *string `db:"iban" json:"iban,omitempty"`

	Balance decimal.Decimal `db:"balance" json:"balance"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Validate checks the fields a caller supplies.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Code) == "" {
		return apperror.NewFieldValidation("code", "is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return apperror.NewFieldValidation("name", "is required")
	}
	if !a.Type.IsValid() {
		return apperror.NewFieldValidation("type", "must be Cash or Bank").
			WithDetail("value", string(a.Type))
	}
	if a.Type == TypeCash && a.IBAN != nil {
		return apperror.NewFieldValidation("iban", "cash accounts have no IBAN")
	}
	return nil
}
