package order

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

// LineInput is a desired order line.
type LineInput struct {
	ID     *id.ID
	ItemID *id.ID

	// Name labels lines without an item.
	Name string

	Quantity  string
	UnitPrice string
	VATRate   int
}

// CreateCommand creates a Draft order.
type CreateCommand struct {
	Type      string
	ContactID id.ID
	Date      string
	Currency  string
	Lines     []LineInput
}

// UpdateCommand replaces the header and syncs the lines of a Draft order.
type UpdateCommand struct {
	RowVersion string
	ContactID  id.ID
	Date       string
	Currency   string
	Lines      []LineInput
}

type parsedLine struct {
	input     LineInput
	quantity  decimal.Decimal
	unitPrice decimal.Decimal
}

type header struct {
	date     time.Time
	currency string
}

func parseHeader(contactID id.ID, date, currency string) (header, error) {
	var h header
	var err error
	if id.IsNil(contactID) {
		return h, apperror.NewFieldValidation("contactId", "is required")
	}
	if h.date, err = types.ParseDate("date", date); err != nil {
		return h, err
	}
	if h.currency, err = types.ParseCurrency("currency", currency); err != nil {
		return h, err
	}
	return h, nil
}

func parseLines(inputs []LineInput) ([]parsedLine, error) {
	if dups := diff.Duplicates(inputs, func(in LineInput) *id.ID { return in.ID }); len(dups) > 0 {
		return nil, apperror.NewFieldValidation("lines", "line id appears more than once").
			WithDetail("id", dups[0].String())
	}

	out := make([]parsedLine, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("lines[%d]", i)
		if in.ItemID != nil && id.IsNil(*in.ItemID) {
			in.ItemID = nil
		}
		in.Name = strings.TrimSpace(in.Name)
		if in.ItemID == nil && in.Name == "" {
			return nil, apperror.NewFieldValidation(field+".name", "is required for lines without an item")
		}
		qty, err := types.ParseAtScale(field+".quantity", in.Quantity, types.ScaleQuantity)
		if err != nil {
			return nil, err
		}
		if !qty.IsPositive() {
			return nil, apperror.NewFieldValidation(field+".quantity", "must be greater than zero")
		}
		price, err := types.ParseAtScale(field+".unitPrice", in.UnitPrice, types.ScalePrice)
		if err != nil {
			return nil, err
		}
		if price.IsNegative() {
			return nil, apperror.NewFieldValidation(field+".unitPrice", "must not be negative")
		}
		if in.VATRate < 0 || in.VATRate > 100 {
			return nil, apperror.NewFieldValidation(field+".vatRate", "must be between 0 and 100")
		}
		out[i] = parsedLine{input: in, quantity: qty, unitPrice: price}
	}
	return out, nil
}
