// Package invoice is the invoice aggregate: a header plus owned lines whose
// net/VAT/gross amounts and header totals are derived, never accepted from
// the caller.
package invoice

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/entity"
	"hesap/internal/core/id"
	"hesap/internal/core/types"
	"hesap/internal/domain/stock"
)

// Business rule codes raised by the invoice engine.
const (
	CodeLineReference  = "INVALID_LINE_REFERENCE"
	CodeTypeImmutable  = "INVOICE_TYPE_IMMUTABLE"
	CodeHasPayments    = "INVOICE_HAS_PAYMENTS"
	CodeCurrencyLocked = "INVOICE_CURRENCY_LOCKED"
)

// Type is the invoice kind.
type Type string

const (
	TypeSales          Type = "Sales"
	TypePurchase       Type = "Purchase"
	TypeSalesReturn    Type = "SalesReturn"
	TypePurchaseReturn Type = "PurchaseReturn"
	TypeExpense        Type = "Expense"
)

// IsValid reports whether t is a known invoice type.
func (t Type) IsValid() bool {
	switch t {
	case TypeSales, TypePurchase, TypeSalesReturn, TypePurchaseReturn, TypeExpense:
		return true
	}
	return false
}

// UsesItems reports whether lines reference stock items. Expense invoices
// reference expense definitions instead.
func (t Type) UsesItems() bool {
	return t != TypeExpense
}

// StockMovement returns the movement type the invoice produces, or nil.
func (t Type) StockMovement() *stock.MovementType {
	var mt stock.MovementType
	switch t {
	case TypeSales:
		mt = stock.SalesOut
	case TypeSalesReturn:
		mt = stock.SalesReturn
	case TypePurchase:
		mt = stock.PurchaseIn
	case TypePurchaseReturn:
		mt = stock.PurchaseReturn
	default:
		return nil
	}
	return &mt
}

// NumberPrefix is the numbering series of the type.
func (t Type) NumberPrefix() string {
	switch t {
	case TypeSales:
		return "SI"
	case TypePurchase:
		return "PI"
	case TypeSalesReturn:
		return "SR"
	case TypePurchaseReturn:
		return "PR"
	default:
		return "EX"
	}
}

// Invoice is the aggregate root.
type Invoice struct {
	entity.BaseDocument

	Number    string    `db:"number" json:"number"`
	ContactID id.ID     `db:"contact_id" json:"contactId"`
	Type      Type      `db:"invoice_type" json:"type"`
	Date      time.Time `db:"invoice_date" json:"date"`
	Currency  string    `db:"currency" json:"currency"`

	TotalNet   decimal.Decimal `db:"total_net" json:"totalNet"`
	TotalVAT   decimal.Decimal `db:"total_vat" json:"totalVat"`
	TotalGross decimal.Decimal `db:"total_gross" json:"totalGross"`

	// Balance is gross minus live linked payments, kept by the balance service.
	Balance decimal.Decimal `db:"balance" json:"balance"`

	// OrderID links invoices created from an order.
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	Lines []*Line `db:"-" json:"lines"`
}

// Line is an invoice line. Exactly one of ItemID and ExpenseDefinitionID is set.
type Line struct {
	ID        id.ID `db:"id" json:"id"`
	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`
	LineNo    int   `db:"line_no" json:"lineNo"`

	ItemID              *id.ID `db:"item_id" json:"itemId,omitempty"`
	ExpenseDefinitionID *id.ID `db:"expense_definition_id" json:"expenseDefinitionId,omitempty"`

	// Catalog labels captured when the reference was written.
	Code string `db:"snapshot_code" json:"code"`
	Name string `db:"snapshot_name" json:"name"`
	Unit string `db:"snapshot_unit" json:"unit"`

	StockTracked bool `db:"stock_tracked" json:"stockTracked"`

	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
	VATRate   int             `db:"vat_rate" json:"vatRate"`

	Net   decimal.Decimal `db:"net" json:"net"`
	VAT   decimal.Decimal `db:"vat" json:"vat"`
	Gross decimal.Decimal `db:"gross" json:"gross"`

	DeletionMark bool `db:"deletion_mark" json:"-"`
}

// Recompute derives net, VAT and gross from quantity, price and rate.
func (l *Line) Recompute() {
	l.Net, l.VAT, l.Gross = types.LineAmounts(l.Quantity, l.UnitPrice, l.VATRate)
}

// RecalculateTotals sets header totals to the sums over live lines.
func (inv *Invoice) RecalculateTotals() {
	net, vat, gross := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range inv.Lines {
		if l.DeletionMark {
			continue
		}
		net = net.Add(l.Net)
		vat = vat.Add(l.VAT)
		gross = gross.Add(l.Gross)
	}
	inv.TotalNet = types.RoundAtScale(net, types.ScaleMoney)
	inv.TotalVAT = types.RoundAtScale(vat, types.ScaleMoney)
	inv.TotalGross = types.RoundAtScale(gross, types.ScaleMoney)
}

func (inv *Invoice) sortLines() {
	sort.SliceStable(inv.Lines, func(i, j int) bool { return inv.Lines[i].LineNo < inv.Lines[j].LineNo })
}

// StockDocument is the stock ledger's view of the invoice.
func (inv *Invoice) StockDocument(userID string) stock.InvoiceDocument {
	doc := stock.InvoiceDocument{
		InvoiceID:    inv.ID,
		BranchID:     inv.BranchID,
		Number:       inv.Number,
		Date:         inv.Date,
		UserID:       userID,
		MovementType: inv.Type.StockMovement(),
		Deleted:      inv.DeletionMark,
	}
	for _, l := range inv.Lines {
		if l.DeletionMark || !l.StockTracked || l.ItemID == nil {
			continue
		}
		doc.Lines = append(doc.Lines, stock.InvoiceLine{ItemID: *l.ItemID, Quantity: l.Quantity})
	}
	return doc
}
