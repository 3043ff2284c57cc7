// Package expense collects employee or petty-cash expenses into lists that
// are reviewed and then posted as a single purchase invoice.
package expense

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
	"hesap/internal/core/entity"
	"hesap/internal/core/id"
)

// Business rule codes.
const (
	CodeEmptyList        = "EXPENSE_LIST_EMPTY"
	CodeCurrencyMismatch = "EXPENSE_CURRENCY_MISMATCH"
	CodeSupplierMismatch = "EXPENSE_SUPPLIER_MISMATCH"
)

// Status is the expense list lifecycle state.
type Status string

const (
	StatusDraft    Status = "Draft"
	StatusReviewed Status = "Reviewed"
	StatusPosted   Status = "Posted"
)

// editable reports whether lines may still change.
func (s Status) editable() bool {
	return s == StatusDraft || s == StatusReviewed
}

// List is the aggregate root.
type List struct {
	entity.BaseDocument

	Number string `db:"number" json:"number"`
	Title  string `db:"title" json:"title"`
	Status Status `db:"status" json:"status"`

	// InvoiceID is the bill created on posting.
	InvoiceID *id.ID     `db:"invoice_id" json:"invoiceId,omitempty"`
	PostedAt  *time.Time `db:"posted_at" json:"postedAt,omitempty"`

	Lines []*Line `db:"-" json:"lines"`
}

// Line is a single expense.
type Line struct {
	ID     id.ID `db:"id" json:"id"`
	ListID id.ID `db:"expense_list_id" json:"listId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	Date        time.Time `db:"expense_date" json:"date"`
	Description string    `db:"description" json:"description"`

	// SupplierID is optional; posting requires every set supplier to agree.
	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	Currency string          `db:"currency" json:"currency"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	VATRate  int             `db:"vat_rate" json:"vatRate"`

	// InvoiceID is stamped when the list is posted.
	InvoiceID *id.ID `db:"invoice_id" json:"invoiceId,omitempty"`

	DeletionMark bool `db:"deletion_mark" json:"-"`
}

func (l *List) requireEditable(operation string) error {
	if !l.Status.editable() {
		return apperror.NewInvalidStatus("expense list", string(l.Status), operation)
	}
	return nil
}

// latestDate is the most recent line date, the default bill date.
func latestDate(lines []*Line) time.Time {
	var latest time.Time
	for _, l := range lines {
		if l.Date.After(latest) {
			latest = l.Date
		}
	}
	return latest
}

func (l *List) sortLines() {
	sort.SliceStable(l.Lines, func(i, j int) bool { return l.Lines[i].LineNo < l.Lines[j].LineNo })
}
