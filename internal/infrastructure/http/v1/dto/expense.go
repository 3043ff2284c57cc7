package dto

import (
	"fmt"
	"time"

	"hesap/internal/core/id"
	"hesap/internal/core/types"
	"hesap/internal/domain/expense"
)

// ExpenseLineRequest is a single expense.
type ExpenseLineRequest struct {
	ID          *string `json:"id,omitempty"`
	Date        string  `json:"date" binding:"required"`
	Description string  `json:"description" binding:"required,max=500"`
	SupplierID  *string `json:"supplierId,omitempty"`
	Currency    string  `json:"currency" binding:"required,len=3"`
	Amount      string  `json:"amount" binding:"required,decimal=2"`
	VATRate     int     `json:"vatRate" binding:"min=0,max=100"`
}

func expenseLines(in []ExpenseLineRequest) ([]expense.LineInput, error) {
	out := make([]expense.LineInput, len(in))
	for i, l := range in {
		lineID, err := id.ParseOptional(fmt.Sprintf("lines[%d].id", i), l.ID)
		if err != nil {
			return nil, err
		}
		supplierID, err := id.ParseOptional(fmt.Sprintf("lines[%d].supplierId", i), l.SupplierID)
		if err != nil {
			return nil, err
		}
		out[i] = expense.LineInput{
			ID:          lineID,
			Date:        l.Date,
			Description: l.Description,
			SupplierID:  supplierID,
			Currency:    l.Currency,
			Amount:      l.Amount,
			VATRate:     l.VATRate,
		}
	}
	return out, nil
}

// CreateExpenseListRequest creates a Draft expense list.
type CreateExpenseListRequest struct {
	Title string               `json:"title" binding:"required,max=200"`
	Lines []ExpenseLineRequest `json:"lines" binding:"dive"`
}

// ToCommand converts the request.
func (r *CreateExpenseListRequest) ToCommand() (expense.CreateCommand, error) {
	lines, err := expenseLines(r.Lines)
	if err != nil {
		return expense.CreateCommand{}, err
	}
	return expense.CreateCommand{Title: r.Title, Lines: lines}, nil
}

// UpdateExpenseLinesRequest replaces the lines of an editable list.
type UpdateExpenseLinesRequest struct {
	RowVersion string               `json:"rowVersion" binding:"required,rowversion"`
	Lines      []ExpenseLineRequest `json:"lines" binding:"dive"`
}

// Inputs converts the lines.
func (r *UpdateExpenseLinesRequest) Inputs() ([]expense.LineInput, error) {
	return expenseLines(r.Lines)
}

// PostExpenseListRequest posts a Reviewed list as a purchase bill.
type PostExpenseListRequest struct {
	SupplierID string  `json:"supplierId" binding:"required"`
	Currency   string  `json:"currency" binding:"required,len=3"`
	ItemID     string  `json:"itemId" binding:"required"`
	Date       *string `json:"date,omitempty"`
}

// ToCommand converts the request for list listID.
func (r *PostExpenseListRequest) ToCommand(listID id.ID) (expense.PostCommand, error) {
	supplierID, err := id.ParseField("supplierId", r.SupplierID)
	if err != nil {
		return expense.PostCommand{}, err
	}
	itemID, err := id.ParseField("itemId", r.ItemID)
	if err != nil {
		return expense.PostCommand{}, err
	}
	return expense.PostCommand{
		ListID:     listID,
		SupplierID: supplierID,
		Currency:   r.Currency,
		ItemID:     itemID,
		Date:       r.Date,
	}, nil
}

// ExpenseLineResponse is an expense line.
type ExpenseLineResponse struct {
	ID          string    `json:"id"`
	LineNo      int       `json:"lineNo"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	SupplierID  *string   `json:"supplierId,omitempty"`
	Currency    string    `json:"currency"`
	Amount      string    `json:"amount"`
	VATRate     int       `json:"vatRate"`
	InvoiceID   *string   `json:"invoiceId,omitempty"`
}

// ExpenseListResponse is an expense list with its live lines.
type ExpenseListResponse struct {
	DocumentMeta
	Number    string                `json:"number"`
	Title     string                `json:"title"`
	Status    string                `json:"status"`
	InvoiceID *string               `json:"invoiceId,omitempty"`
	PostedAt  *time.Time            `json:"postedAt,omitempty"`
	Lines     []ExpenseLineResponse `json:"lines"`
}

// FromExpenseList maps an expense list.
func FromExpenseList(l *expense.List) ExpenseListResponse {
	lines := make([]ExpenseLineResponse, 0, len(l.Lines))
	for _, ln := range l.Lines {
		if ln.DeletionMark {
			continue
		}
		lines = append(lines, ExpenseLineResponse{
			ID:          ln.ID.String(),
			LineNo:      ln.LineNo,
			Date:        ln.Date,
			Description: ln.Description,
			SupplierID:  id.StringPtr(ln.SupplierID),
			Currency:    ln.Currency,
			Amount:      types.FormatMoney(ln.Amount),
			VATRate:     ln.VATRate,
			InvoiceID:   id.StringPtr(ln.InvoiceID),
		})
	}
	return ExpenseListResponse{
		DocumentMeta: documentMeta(&l.BaseDocument),
		Number:       l.Number,
		Title:        l.Title,
		Status:       string(l.Status),
		InvoiceID:    id.StringPtr(l.InvoiceID),
		PostedAt:     l.PostedAt,
		Lines:        lines,
	}
}

// ExpenseListStatus maps a transitioned list.
func ExpenseListStatus(l *expense.List) StatusResponse {
	return StatusResponse{Success: true, ID: l.ID.String(), Status: string(l.Status), RowVersion: l.RowVersion()}
}

// PostExpenseListResponse reports the created bill.
type PostExpenseListResponse struct {
	CreatedInvoiceID   string `json:"createdInvoiceId"`
	PostedExpenseCount int    `json:"postedExpenseCount"`
}

// FromPostResult maps a posting result.
func FromPostResult(r *expense.PostResult) PostExpenseListResponse {
	return PostExpenseListResponse{CreatedInvoiceID: r.InvoiceID.String(), PostedExpenseCount: r.PostedCount}
}
