package dto

import (
	"time"

	"hesap/internal/core/types"
	"hesap/internal/domain/account"
)

// CreateAccountRequest opens a cash or bank account.
type CreateAccountRequest struct {
	Code     string  `json:"code" binding:"required,max=50"`
	Name     string  `json:"name" binding:"required,max=200"`
	Type     string  `json:"type" binding:"required,oneof=Cash Bank"`
	Currency string  `json:"currency" binding:"required,len=3"`
	IBAN     *string `json:"iban,omitempty" binding:"omitempty,max=34"`
}

// ToCommand converts the request.
func (r *CreateAccountRequest) ToCommand() account.CreateCommand {
	return account.CreateCommand{Code: r.Code, Name: r.Name, Type: r.Type, Currency: r.Currency, IBAN: r.IBAN}
}

// AccountResponse is a cash or bank account with its derived balance.
type AccountResponse struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Currency   string    `json:"currency"`
	IBAN       *string   `json:"iban,omitempty"`
	Balance    string    `json:"balance"`
	RowVersion string    `json:"rowVersion"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromAccount maps an account.
func FromAccount(a *account.Account) AccountResponse {
	return AccountResponse{
		ID:         a.ID.String(),
		Code:       a.Code,
		Name:       a.Name,
		Type:       string(a.Type),
		Currency:   a.Currency,
		IBAN:       a.IBAN,
		Balance:    types.FormatMoney(a.Balance),
		RowVersion: a.RowVersion(),
		CreatedAt:  a.CreatedAt,
	}
}
