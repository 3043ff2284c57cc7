package expense

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
	"hesap/internal/core/diff"
	"hesap/internal/core/id"
	"hesap/internal/core/types"
)

// LineInput is a desired expense line.
type LineInput struct {
	ID          *id.ID
	Date        string
	Description string
	SupplierID  *id.ID
	Currency    string
	Amount      string
	VATRate     int
}

// CreateCommand creates a Draft list.
type CreateCommand struct {
	Title string
	Lines []LineInput
}

// PostCommand posts a Reviewed list as a purchase bill.
type PostCommand struct {
	ListID     id.ID
	SupplierID id.ID
	Currency   string

	// ItemID is the purchase item every bill line points at.
	ItemID id.ID

	// Date defaults to the latest line date.
	Date *string
}

// PostResult reports the created bill.
type PostResult struct {
	InvoiceID   id.ID `json:"createdInvoiceId"`
	PostedCount int   `json:"postedExpenseCount"`
}

type parsedLine struct {
	input    LineInput
	date     time.Time
	currency string
	amount   decimal.Decimal
}

func parseLines(inputs []LineInput) ([]parsedLine, error) {
	if dups := diff.Duplicates(inputs, func(in LineInput) *id.ID { return in.ID }); len(dups) > 0 {
		return nil, apperror.NewFieldValidation("lines", "line id appears more than once").
			WithDetail("id", dups[0].String())
	}

	out := make([]parsedLine, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("lines[%d]", i)
		p := parsedLine{input: in}
		p.input.Description = strings.TrimSpace(in.Description)
		if p.input.Description == "" {
			return nil, apperror.NewFieldValidation(field+".description", "is required")
		}
		if in.SupplierID != nil && id.IsNil(*in.SupplierID) {
			p.input.SupplierID = nil
		}

		var err error
		if p.date, err = types.ParseDate(field+".date", in.Date); err != nil {
			return nil, err
		}
		if p.currency, err = types.ParseCurrency(field+".currency", in.Currency); err != nil {
			return nil, err
		}
		if p.amount, err = types.ParseAtScale(field+".amount", in.Amount, types.ScaleMoney); err != nil {
			return nil, err
		}
		if !p.amount.IsPositive() {
			return nil, apperror.NewFieldValidation(field+".amount", "must be greater than zero")
		}
		if in.VATRate < 0 || in.VATRate > 100 {
			return nil, apperror.NewFieldValidation(field+".vatRate", "must be between 0 and 100")
		}
		out[i] = p
	}
	return out, nil
}

func (p parsedLine) applyTo(l *Line) {
	l.Date = p.date
	l.Description = p.input.Description
	l.SupplierID = p.input.SupplierID
	l.Currency = p.currency
	l.Amount = p.amount
	l.VATRate = p.input.VATRate
}
