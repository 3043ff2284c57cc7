package dto

import (
	"fmt"
	"time"

	"hesap/internal/core/id"
	"hesap/internal/core/types"
	"hesap/internal/domain/invoice"
)

// InvoiceLineRequest is one line of a create or line-update request.
// Exactly one of ItemID and ExpenseDefinitionID must be set.
type InvoiceLineRequest struct {
	ID                  *string `json:"id,omitempty"`
	ItemID              *string `json:"itemId,omitempty"`
	ExpenseDefinitionID *string `json:"expenseDefinitionId,omitempty"`
	Quantity            string  `json:"quantity" binding:"required,decimal=3"`
	UnitPrice           string  `json:"unitPrice" binding:"required,decimal=4"`
	VATRate             int     `json:"vatRate" binding:"min=0,max=100"`
}

func invoiceLines(in []InvoiceLineRequest) ([]invoice.LineInput, error) {
	out := make([]invoice.LineInput, len(in))
	for i, l := range in {
		lineID, err := id.ParseOptional(fmt.Sprintf("lines[%d].id", i), l.ID)
		if err != nil {
			return nil, err
		}
		itemID, err := id.ParseOptional(fmt.Sprintf("lines[%d].itemId", i), l.ItemID)
		if err != nil {
			return nil, err
		}
		defID, err := id.ParseOptional(fmt.Sprintf("lines[%d].expenseDefinitionId", i), l.ExpenseDefinitionID)
		if err != nil {
			return nil, err
		}
		out[i] = invoice.LineInput{
			ID:                  lineID,
			ItemID:              itemID,
			ExpenseDefinitionID: defID,
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice,
			VATRate:             l.VATRate,
		}
	}
	return out, nil
}

// CreateInvoiceRequest creates an invoice.
type CreateInvoiceRequest struct {
	ContactID string               `json:"contactId" binding:"required"`
	Date      string               `json:"date" binding:"required"`
	Currency  string               `json:"currency" binding:"required,len=3"`
	Type      string               `json:"type" binding:"required"`
	Lines     []InvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToCommand converts the request.
func (r *CreateInvoiceRequest) ToCommand() (invoice.CreateCommand, error) {
	contactID, err := id.ParseField("contactId", r.ContactID)
	if err != nil {
		return invoice.CreateCommand{}, err
	}
	lines, err := invoiceLines(r.Lines)
	if err != nil {
		return invoice.CreateCommand{}, err
	}
	return invoice.CreateCommand{
		ContactID: contactID,
		Date:      r.Date,
		Currency:  r.Currency,
		Type:      r.Type,
		Lines:     lines,
	}, nil
}

// UpdateInvoiceHeaderRequest replaces the invoice header.
type UpdateInvoiceHeaderRequest struct {
	RowVersion string `json:"rowVersion" binding:"required,rowversion"`
	ContactID  string `json:"contactId" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Currency   string `json:"currency" binding:"required,len=3"`
	Type       string `json:"type" binding:"required"`
}

// ToCommand converts the request.
func (r *UpdateInvoiceHeaderRequest) ToCommand() (invoice.UpdateHeaderCommand, error) {
	contactID, err := id.ParseField("contactId", r.ContactID)
	if err != nil {
		return invoice.UpdateHeaderCommand{}, err
	}
	return invoice.UpdateHeaderCommand{
		RowVersion: r.RowVersion,
		ContactID:  contactID,
		Date:       r.Date,
		Currency:   r.Currency,
		Type:       r.Type,
	}, nil
}

// UpdateInvoiceLinesRequest replaces the line collection. Lines with an id
// are updated, lines without one are inserted, and missing lines are deleted.
type UpdateInvoiceLinesRequest struct {
	RowVersion string               `json:"rowVersion" binding:"required,rowversion"`
	Lines      []InvoiceLineRequest `json:"lines" binding:"required,dive"`
}

// ToCommand converts the request.
func (r *UpdateInvoiceLinesRequest) ToCommand() (invoice.UpdateLinesCommand, error) {
	lines, err := invoiceLines(r.Lines)
	if err != nil {
		return invoice.UpdateLinesCommand{}, err
	}
	return invoice.UpdateLinesCommand{RowVersion: r.RowVersion, Lines: lines}, nil
}

// InvoiceLineResponse is an invoice line.
type InvoiceLineResponse struct {
	ID                  string  `json:"id"`
	LineNo              int     `json:"lineNo"`
	ItemID              *string `json:"itemId,omitempty"`
	ExpenseDefinitionID *string `json:"expenseDefinitionId,omitempty"`
	Code                string  `json:"code"`
	Name                string  `json:"name"`
	Unit                string  `json:"unit"`
	StockTracked        bool    `json:"stockTracked"`
	Quantity            string  `json:"quantity"`
	UnitPrice           string  `json:"unitPrice"`
	VATRate             int     `json:"vatRate"`
	Net                 string  `json:"net"`
	VAT                 string  `json:"vat"`
	Gross               string  `json:"gross"`
}

// InvoiceResponse is the full invoice DTO.
type InvoiceResponse struct {
	DocumentMeta
	Number     string                `json:"number"`
	ContactID  string                `json:"contactId"`
	Type       string                `json:"type"`
	Date       time.Time             `json:"date"`
	Currency   string                `json:"currency"`
	TotalNet   string                `json:"totalNet"`
	TotalVAT   string                `json:"totalVat"`
	TotalGross string                `json:"totalGross"`
	Balance    string                `json:"balance"`
	OrderID    *string               `json:"orderId,omitempty"`
	Lines      []InvoiceLineResponse `json:"lines"`
}

// CreateInvoiceResponse adds the rounding policy the totals were computed with.
type CreateInvoiceResponse struct {
	InvoiceResponse
	RoundingPolicy string `json:"roundingPolicy"`
}

// FromInvoice maps an invoice with its live lines.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		if l.DeletionMark {
			continue
		}
		lines = append(lines, InvoiceLineResponse{
			ID:                  l.ID.String(),
			LineNo:              l.LineNo,
			ItemID:              id.StringPtr(l.ItemID),
			ExpenseDefinitionID: id.StringPtr(l.ExpenseDefinitionID),
			Code:                l.Code,
			Name:                l.Name,
			Unit:                l.Unit,
			StockTracked:        l.StockTracked,
			Quantity:            types.FormatQuantity(l.Quantity),
			UnitPrice:           types.FormatPrice(l.UnitPrice),
			VATRate:             l.VATRate,
			Net:                 types.FormatMoney(l.Net),
			VAT:                 types.FormatMoney(l.VAT),
			Gross:               types.FormatMoney(l.Gross),
		})
	}
	return InvoiceResponse{
		DocumentMeta: documentMeta(&inv.BaseDocument),
		Number:       inv.Number,
		ContactID:    inv.ContactID.String(),
		Type:         string(inv.Type),
		Date:         inv.Date,
		Currency:     inv.Currency,
		TotalNet:     types.FormatMoney(inv.TotalNet),
		TotalVAT:     types.FormatMoney(inv.TotalVAT),
		TotalGross:   types.FormatMoney(inv.TotalGross),
		Balance:      types.FormatMoney(inv.Balance),
		OrderID:      id.StringPtr(inv.OrderID),
		Lines:        lines,
	}
}

// FromCreatedInvoice maps a newly created invoice.
func FromCreatedInvoice(inv *invoice.Invoice) CreateInvoiceResponse {
	return CreateInvoiceResponse{InvoiceResponse: FromInvoice(inv), RoundingPolicy: types.RoundingPolicy}
}
