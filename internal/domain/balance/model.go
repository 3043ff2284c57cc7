// Package balance recomputes derived balances from their ledgers: invoice
// balances from linked payments, account balances from payments, and contact
// balances and statements from invoices and payments.
package balance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/id"
	"hesap/internal/core/types"
)

// Source tells which ledger an entry comes from.
type Source string

const (
	SourceOpening Source = "opening"
	SourceInvoice Source = "invoice"
	SourcePayment Source = "payment"
)

// Entry is an invoice or payment affecting a contact.
type Entry struct {
	Source     Source    `db:"source" json:"source"`
	DocumentID id.ID     `db:"document_id" json:"documentId"`
	Reference  string    `db:"reference" json:"reference"`
	Date       time.Time `db:"doc_date" json:"date"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`

	// DocType is the invoice type or the payment direction.
	DocType string `db:"doc_type" json:"docType"`

	// Amount is the invoice gross or the payment amount, always positive.
	Amount decimal.Decimal `db:"amount" json:"amount"`
}

// EntryFilter bounds entries by date: From inclusive, Before exclusive.
type EntryFilter struct {
	From   *time.Time
	Before *time.Time
}

// Transaction is an entry tagged with its debit/credit contribution.
type Transaction struct {
	Entry
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// StatementRow is one line of a contact statement.
type StatementRow struct {
	Date       time.Time       `json:"date"`
	Source     Source          `json:"source"`
	DocumentID *id.ID          `json:"documentId,omitempty"`
	DocType    string          `json:"docType,omitempty"`
	Reference  string          `json:"reference"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Balance    decimal.Decimal `json:"balance"`
}

// Statement is a contact's opening balance followed by its transactions with
// a running balance.
type Statement struct {
	ContactID   id.ID           `json:"contactId"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Opening     decimal.Decimal `json:"opening"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Closing     decimal.Decimal `json:"closing"`
	Rows        []StatementRow  `json:"rows"`
}

// orderEntries sorts chronologically; on the same date invoices precede
// payments, then creation order.
func orderEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Source != b.Source {
			return a.Source == SourceInvoice
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.DocumentID.String() < b.DocumentID.String()
	})
}

// fold builds statement rows from an opening balance and ordered transactions.
func fold(opening decimal.Decimal, from time.Time, txs []Transaction) ([]StatementRow, decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	rows := make([]StatementRow, 0, len(txs)+1)
	rows = append(rows, StatementRow{
		Date:      from,
		Source:    SourceOpening,
		Reference: "Opening balance",
		Debit:     decimal.Zero,
		Credit:    decimal.Zero,
		Balance:   opening,
	})

	running := opening
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, t := range txs {
		running = types.RoundAtScale(running.Add(t.Debit).Sub(t.Credit), types.ScaleMoney)
		totalDebit = totalDebit.Add(t.Debit)
		totalCredit = totalCredit.Add(t.Credit)
		docID := t.DocumentID
		rows = append(rows, StatementRow{
			Date:       t.Date,
			Source:     t.Source,
			DocumentID: &docID,
			DocType:    t.DocType,
			Reference:  t.Reference,
			Debit:      t.Debit,
			Credit:     t.Credit,
			Balance:    running,
		})
	}
	return rows, running,
		types.RoundAtScale(totalDebit, types.ScaleMoney),
		types.RoundAtScale(totalCredit, types.ScaleMoney)
}
