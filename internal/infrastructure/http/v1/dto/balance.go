package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/id"
	"hesap/internal/core/types"
	"hesap/internal/domain/balance"
)

// StatementQuery bounds a statement. Both dates are inclusive days.
type StatementQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// Range parses the bounds.
func (q *StatementQuery) Range() (time.Time, time.Time, error) {
	from, err := types.ParseDate("from", q.From)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := types.ParseDate("to", q.To)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// ContactBalanceResponse is a contact's current balance.
type ContactBalanceResponse struct {
	ContactID string `json:"contactId"`
	Balance   string `json:"balance"`
}

// FromContactBalance maps a balance.
func FromContactBalance(contactID id.ID, bal decimal.Decimal) ContactBalanceResponse {
	return ContactBalanceResponse{ContactID: contactID.String(), Balance: types.FormatMoney(bal)}
}

// StatementRowResponse is one statement line.
type StatementRowResponse struct {
	Date       time.Time `json:"date"`
	Source     string    `json:"source"`
	DocumentID *string   `json:"documentId,omitempty"`
	DocType    string    `json:"docType,omitempty"`
	Reference  string    `json:"reference"`
	Debit      string    `json:"debit"`
	Credit     string    `json:"credit"`
	Balance    string    `json:"balance"`
}

// StatementResponse is a contact statement.
type StatementResponse struct {
	ContactID   string                 `json:"contactId"`
	From        time.Time              `json:"from"`
	To          time.Time              `json:"to"`
	Opening     string                 `json:"opening"`
	TotalDebit  string                 `json:"totalDebit"`
	TotalCredit string                 `json:"totalCredit"`
	Closing     string                 `json:"closing"`
	Rows        []StatementRowResponse `json:"rows"`
}

// FromStatement maps a statement.
func FromStatement(st *balance.Statement) StatementResponse {
	rows := make([]StatementRowResponse, len(st.Rows))
	for i, r := range st.Rows {
		rows[i] = StatementRowResponse{
			Date:       r.Date,
			Source:     string(r.Source),
			DocumentID: id.StringPtr(r.DocumentID),
			DocType:    r.DocType,
			Reference:  r.Reference,
			Debit:      types.FormatMoney(r.Debit),
			Credit:     types.FormatMoney(r.Credit),
			Balance:    types.FormatMoney(r.Balance),
		}
	}
	return StatementResponse{
		ContactID:   st.ContactID.String(),
		From:        st.From,
		To:          st.To,
		Opening:     types.FormatMoney(st.Opening),
		TotalDebit:  types.FormatMoney(st.TotalDebit),
		TotalCredit: types.FormatMoney(st.TotalCredit),
		Closing:     types.FormatMoney(st.Closing),
		Rows:        rows,
	}
}
