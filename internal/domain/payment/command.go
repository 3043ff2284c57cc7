package payment

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
	"hesap/internal/core/id"
	"hesap/internal/core/types"
)

// Fields is the editable part of a payment.
type Fields struct {
	AccountID id.ID
	ContactID *id.ID
	InvoiceID *id.ID
	Direction string
	Amount    string
	Currency  string
	Date      *string
	Reference *string
	Note      string
}

// CreateCommand records a new payment.
type CreateCommand struct {
	Fields
}

// UpdateCommand replaces a payment's fields under the row version guard.
type UpdateCommand struct {
	RowVersion string
	Fields
}

type parsedFields struct {
	in        Fields
	direction Direction
	amount    decimal.Decimal
	currency  string
	date      time.Time
	reference *string
}

// parse validates a command before any store access.
func (f Fields) parse(now time.Time) (parsedFields, error) {
	p := parsedFields{in: f, direction: Direction(f.Direction)}
	if id.IsNil(f.AccountID) {
		return p, apperror.NewFieldValidation("accountId", "is required")
	}
	if !p.direction.IsValid() {
		return p, apperror.NewFieldValidation("direction", "must be In or Out").
			WithDetail("value", f.Direction)
	}

	var err error
	if p.amount, err = types.ParseAtScale("amount", f.Amount, types.ScaleMoney); err != nil {
		return p, err
	}
	if !p.amount.IsPositive() {
		return p, apperror.NewFieldValidation("amount", "must be greater than zero")
	}
	if p.currency, err = types.ParseCurrency("currency", f.Currency); err != nil {
		return p, err
	}
	if p.date, err = types.ParseOptionalDate("date", f.Date, now); err != nil {
		return p, err
	}
	if f.Reference != nil {
		if ref := strings.TrimSpace(*f.Reference); ref != "" {
			p.reference = &ref
		}
	}
	if f.ContactID != nil && id.IsNil(*f.ContactID) {
		p.in.ContactID = nil
	}
	if f.InvoiceID != nil && id.IsNil(*f.InvoiceID) {
		p.in.InvoiceID = nil
	}
	return p, nil
}
