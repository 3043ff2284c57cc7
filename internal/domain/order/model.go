// Package order implements sales and purchase orders and their conversion
// into invoices.
package order

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
	"hesap/internal/core/entity"
	"hesap/internal/core/id"
	"hesap/internal/core/types"
	"hesap/internal/domain/invoice"
)

// Business rule codes.
const (
	CodeEmptyOrder      = "ORDER_EMPTY"
	CodeLineWithoutItem = "ORDER_LINE_WITHOUT_ITEM"
)

// Type is the order direction.
type Type string

const (
	TypeSales    Type = "Sales"
	TypePurchase Type = "Purchase"
)

// IsValid reports whether t is a known order type.
func (t Type) IsValid() bool {
	return t == TypeSales || t == TypePurchase
}

// InvoiceType is the invoice type an order of this type converts to.
func (t Type) InvoiceType() invoice.Type {
	if t == TypePurchase {
		return invoice.TypePurchase
	}
	return invoice.TypeSales
}

// NumberPrefix is the order number prefix.
func (t Type) NumberPrefix() string {
	if t == TypePurchase {
		return "PO"
	}
	return "SO"
}

// Status is the order lifecycle state.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusApproved  Status = "Approved"
	StatusInvoiced  Status = "Invoiced"
	StatusCancelled Status = "Cancelled"
)

// transitions lists the states each state may move to.
var transitions = map[Status][]Status{
	StatusDraft:    {StatusApproved, StatusCancelled},
	StatusApproved: {StatusInvoiced, StatusCancelled},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Order is the aggregate root.
type Order struct {
	entity.BaseDocument

	Number    string    `db:"number" json:"number"`
	Type      Type      `db:"order_type" json:"type"`
	ContactID id.ID     `db:"contact_id" json:"contactId"`
	Date      time.Time `db:"order_date" json:"date"`
	Currency  string    `db:"currency" json:"currency"`
	Status    Status    `db:"status" json:"status"`

	TotalNet   decimal.Decimal `db:"total_net" json:"totalNet"`
	TotalVAT   decimal.Decimal `db:"total_vat" json:"totalVat"`
	TotalGross decimal.Decimal `db:"total_gross" json:"totalGross"`

	// InvoiceID is set once the order is invoiced.
	InvoiceID *id.ID `db:"invoice_id" json:"invoiceId,omitempty"`

	Lines []*Line `db:"-" json:"lines"`
}

// Line is an order line. Lines without an item carry a free-text name and
// block conversion to an invoice.
type Line struct {
	ID      id.ID  `db:"id" json:"id"`
	OrderID id.ID  `db:"order_id" json:"orderId"`
	LineNo  int    `db:"line_no" json:"lineNo"`
	ItemID  *id.ID `db:"item_id" json:"itemId,omitempty"`

	Code string `db:"snapshot_code" json:"code"`
	Name string `db:"snapshot_name" json:"name"`
	Unit string `db:"snapshot_unit" json:"unit"`

	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
	VATRate   int             `db:"vat_rate" json:"vatRate"`

	Net   decimal.Decimal `db:"net" json:"net"`
	VAT   decimal.Decimal `db:"vat" json:"vat"`
	Gross decimal.Decimal `db:"gross" json:"gross"`

	DeletionMark bool `db:"deletion_mark" json:"-"`
}

// Recompute derives net, VAT and gross.
func (l *Line) Recompute() {
	l.Net, l.VAT, l.Gross = types.LineAmounts(l.Quantity, l.UnitPrice, l.VATRate)
}

// RecalculateTotals sets header totals to the sums over live lines.
func (o *Order) RecalculateTotals() {
	net, vat, gross := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range o.Lines {
		if l.DeletionMark {
			continue
		}
		net, vat, gross = net.Add(l.Net), vat.Add(l.VAT), gross.Add(l.Gross)
	}
	o.TotalNet = types.RoundAtScale(net, types.ScaleMoney)
	o.TotalVAT = types.RoundAtScale(vat, types.ScaleMoney)
	o.TotalGross = types.RoundAtScale(gross, types.ScaleMoney)
}

// transition moves the order to status or reports INVALID_STATUS.
func (o *Order) transition(to Status, operation string) error {
	if !CanTransition(o.Status, to) {
		return apperror.NewInvalidStatus("order", string(o.Status), operation)
	}
	o.Status = to
	return nil
}

// requireDraft rejects edits outside Draft.
func (o *Order) requireDraft(operation string) error {
	if o.Status != StatusDraft {
		return apperror.NewInvalidStatus("order", string(o.Status), operation)
	}
	return nil
}

func (o *Order) sortLines() {
	sort.SliceStable(o.Lines, func(i, j int) bool { return o.Lines[i].LineNo < o.Lines[j].LineNo })
}
