package balance

import (
	"github.com/shopspring/decimal"

	"hesap/internal/domain/invoice"
	"hesap/internal/domain/payment"
)

// Effect is the signed contribution of an entry to a contact balance.
// A positive balance means the contact owes the branch.
func Effect(e Entry) decimal.Decimal {
	switch e.Source {
	case SourceInvoice:
		switch invoice.Type(e.DocType) {
		case invoice.TypeSales, invoice.TypePurchaseReturn:
			return e.Amount
		case invoice.TypePurchase, invoice.TypeSalesReturn, invoice.TypeExpense:
			return e.Amount.Neg()
		}
	case SourcePayment:
		switch payment.Direction(e.DocType) {
		case payment.DirectionOut:
			return e.Amount
		case payment.DirectionIn:
			return e.Amount.Neg()
		}
	}
	return decimal.Zero
}

// Split tags an entry with its debit or credit side.
func Split(e Entry) Transaction {
	eff := Effect(e)
	t := Transaction{Entry: e, Debit: decimal.Zero, Credit: decimal.Zero}
	if eff.IsNegative() {
		t.Credit = eff.Neg()
	} else {
		t.Debit = eff
	}
	return t
}
