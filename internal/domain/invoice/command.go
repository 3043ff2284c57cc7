package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
	"hesap/internal/core/diff"
	"hesap/internal/core/id"
	"hesap/internal/core/types"
	"hesap/internal/domain/catalog"
)

// LineInput is a desired line as received from the caller. Amounts are
// invariant-culture decimal strings.
type LineInput struct {
	// ID is set for existing lines and empty for new ones.
	ID *id.ID

	ItemID              *id.ID
	ExpenseDefinitionID *id.ID

	Quantity  string
	UnitPrice string
	VATRate   int

	// Snapshot overrides the catalog labels; used when copying lines that
	// already carry captured labels.
	Snapshot *catalog.Snapshot
}

// CreateCommand creates an invoice with its lines.
type CreateCommand struct {
	ContactID id.ID
	Date      string
	Currency  string
	Type      string
	Lines     []LineInput

	// OrderID links the invoice to the order it was created from.
	OrderID *id.ID
}

// UpdateHeaderCommand edits header fields. Type must equal the stored type.
type UpdateHeaderCommand struct {
	RowVersion string
	ContactID  id.ID
	Date       string
	Currency   string
	Type       string
}

// UpdateLinesCommand replaces the line collection by differential sync.
type UpdateLinesCommand struct {
	RowVersion string
	Lines      []LineInput
}

// parsedLine is a validated line input with decoded amounts.
type parsedLine struct {
	input     LineInput
	quantity  decimal.Decimal
	unitPrice decimal.Decimal
}

func parseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", apperror.NewFieldValidation("type", "unknown invoice type").WithDetail("value", s)
	}
	return t, nil
}

type header struct {
	date     time.Time
	currency string
	typ      Type
}

func parseHeader(date, currency, typ string) (header, error) {
	var h header
	var err error
	if h.typ, err = parseType(typ); err != nil {
		return h, err
	}
	if h.date, err = types.ParseDate("date", date); err != nil {
		return h, err
	}
	if h.currency, err = types.ParseCurrency("currency", currency); err != nil {
		return h, err
	}
	return h, nil
}

// parseLines validates amounts and ids of every line before any store access.
func parseLines(inputs []LineInput) ([]parsedLine, error) {
	if len(inputs) == 0 {
		return nil, apperror.NewFieldValidation("lines", "at least one line is required")
	}
	if dups := diff.Duplicates(inputs, lineInputID); len(dups) > 0 {
		return nil, apperror.NewFieldValidation("lines", "line id appears more than once").
			WithDetail("id", dups[0].String())
	}

	out := make([]parsedLine, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("lines[%d]", i)
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
		if in.ItemID != nil && id.IsNil(*in.ItemID) {
			in.ItemID = nil
		}
		if in.ExpenseDefinitionID != nil && id.IsNil(*in.ExpenseDefinitionID) {
			in.ExpenseDefinitionID = nil
		}
		out[i] = parsedLine{input: in, quantity: qty, unitPrice: price}
	}
	return out, nil
}

// checkPairing enforces that Expense lines reference an expense definition
// and every other type references an item, never both.
func checkPairing(t Type, lines []parsedLine) error {
	for i, l := range lines {
		hasItem := l.input.ItemID != nil
		hasDef := l.input.ExpenseDefinitionID != nil

		var msg string
		switch {
		case hasItem && hasDef:
			msg = "a line references either an item or an expense definition, not both"
		case t.UsesItems() && !hasItem:
			msg = fmt.Sprintf("%s invoice lines require an item", t)
		case !t.UsesItems() && !hasDef:
			msg = "expense invoice lines require an expense definition"
		}
		if msg != "" {
			return apperror.NewBusinessRule(CodeLineReference, msg).
				WithDetail("line", i).
				WithDetail("type", string(t))
		}
	}
	return nil
}

func lineInputID(in LineInput) *id.ID {
	return in.ID
}

func parsedLineID(p parsedLine) *id.ID {
	return p.input.ID
}

func lineID(l *Line) id.ID {
	return l.ID
}
