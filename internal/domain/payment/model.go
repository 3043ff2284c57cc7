// Package payment records money received from or paid to contacts through a
// cash or bank account, optionally settling an invoice.
package payment

import (
	"bytes"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/entity"
	"hesap/internal/core/id"
)

// Business rule codes.
const (
	CodeCurrencyMismatch = "PAYMENT_CURRENCY_MISMATCH"
	CodeContactMismatch  = "PAYMENT_CONTACT_MISMATCH"
)

// Direction tells whether money came in or went out.
type Direction string

const (
	DirectionIn  Direction = "In"
	DirectionOut Direction = "Out"
)

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Payment is a single money movement on an account.
type Payment struct {
	entity.BaseDocument

	AccountID id.ID     `db:"account_id" json:"accountId"`
	ContactID *id.ID    `db:"contact_id" json:"contactId,omitempty"`
	InvoiceID *id.ID    `db:"invoice_id" json:"invoiceId,omitempty"`
	Direction Direction `db:"direction" json:"direction"`
	Date      time.Time `db:"payment_date" json:"date"`
	Currency  string    `db:"currency" json:"currency"`

	// Amount is always positive; Direction carries the sign.
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// Reference is the cheque or transfer number, unique per branch when set.
	Reference *string `db:"reference" json:"reference,omitempty"`
	Note      string  `db:"note" json:"note,omitempty"`
}

// links captures what a payment touches so a write can refresh both the old
// and new invoice and account balances.
type links struct {
	invoices []id.ID
	accounts []id.ID
}

func (l *links) add(p *Payment) {
	l.accounts = appendUnique(l.accounts, p.AccountID)
	if p.InvoiceID != nil {
		l.invoices = appendUnique(l.invoices, *p.InvoiceID)
	}
}

// lockOrder sorts the linked ids so concurrent writers lock invoice rows,
// then account rows, in the same order.
func (l *links) lockOrder() {
	byBytes := func(a, b id.ID) int { return bytes.Compare(a[:], b[:]) }
	slices.SortFunc(l.invoices, byBytes)
	slices.SortFunc(l.accounts, byBytes)
}

func appendUnique(ids []id.ID, v id.ID) []id.ID {
	for _, x := range ids {
		if x == v {
			return ids
		}
	}
	return append(ids, v)
}
