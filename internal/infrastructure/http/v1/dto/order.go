package dto

import (
	"fmt"
	"time"

	"hesap/internal/core/id"
	"hesap/internal/core/types"
	"hesap/internal/domain/order"
)

// OrderLineRequest is an order line. Lines without an item carry a name.
type OrderLineRequest struct {
	ID        *string `json:"id,omitempty"`
	ItemID    *string `json:"itemId,omitempty"`
	Name      string  `json:"name,omitempty" binding:"max=200"`
	Quantity  string  `json:"quantity" binding:"required,decimal=3"`
	UnitPrice string  `json:"unitPrice" binding:"required,decimal=4"`
	VATRate   int     `json:"vatRate" binding:"min=0,max=100"`
}

func orderLines(in []OrderLineRequest) ([]order.LineInput, error) {
	out := make([]order.LineInput, len(in))
	for i, l := range in {
		lineID, err := id.ParseOptional(fmt.Sprintf("lines[%d].id", i), l.ID)
		if err != nil {
			return nil, err
		}
		itemID, err := id.ParseOptional(fmt.Sprintf("lines[%d].itemId", i), l.ItemID)
		if err != nil {
			return nil, err
		}
		out[i] = order.LineInput{
			ID:        lineID,
			ItemID:    itemID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			VATRate:   l.VATRate,
		}
	}
	return out, nil
}

// CreateOrderRequest creates a Draft order.
type CreateOrderRequest struct {
	Type      string             `json:"type" binding:"required,oneof=Sales Purchase"`
	ContactID string             `json:"contactId" binding:"required"`
	Date      string             `json:"date" binding:"required"`
	Currency  string             `json:"currency" binding:"required,len=3"`
	Lines     []OrderLineRequest `json:"lines" binding:"dive"`
}

// ToCommand converts the request.
func (r *CreateOrderRequest) ToCommand() (order.CreateCommand, error) {
	contactID, err := id.ParseField("contactId", r.ContactID)
	if err != nil {
		return order.CreateCommand{}, err
	}
	lines, err := orderLines(r.Lines)
	if err != nil {
		return order.CreateCommand{}, err
	}
	return order.CreateCommand{
		Type:      r.Type,
		ContactID: contactID,
		Date:      r.Date,
		Currency:  r.Currency,
		Lines:     lines,
	}, nil
}

// UpdateOrderRequest replaces the header and lines of a Draft order.
type UpdateOrderRequest struct {
	RowVersion string             `json:"rowVersion" binding:"required,rowversion"`
	ContactID  string             `json:"contactId" binding:"required"`
	Date       string             `json:"date" binding:"required"`
	Currency   string             `json:"currency" binding:"required,len=3"`
	Lines      []OrderLineRequest `json:"lines" binding:"dive"`
}

// ToCommand converts the request.
func (r *UpdateOrderRequest) ToCommand() (order.UpdateCommand, error) {
	contactID, err := id.ParseField("contactId", r.ContactID)
	if err != nil {
		return order.UpdateCommand{}, err
	}
	lines, err := orderLines(r.Lines)
	if err != nil {
		return order.UpdateCommand{}, err
	}
	return order.UpdateCommand{
		RowVersion: r.RowVersion,
		ContactID:  contactID,
		Date:       r.Date,
		Currency:   r.Currency,
		Lines:      lines,
	}, nil
}

// OrderLineResponse is an order line.
type OrderLineResponse struct {
	ID        string  `json:"id"`
	LineNo    int     `json:"lineNo"`
	ItemID    *string `json:"itemId,omitempty"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Quantity  string  `json:"quantity"`
	UnitPrice string  `json:"unitPrice"`
	VATRate   int     `json:"vatRate"`
	Net       string  `json:"net"`
	VAT       string  `json:"vat"`
	Gross     string  `json:"gross"`
}

// OrderResponse is an order with its live lines.
type OrderResponse struct {
	DocumentMeta
	Number     string              `json:"number"`
	Type       string              `json:"type"`
	ContactID  string              `json:"contactId"`
	Date       time.Time           `json:"date"`
	Currency   string              `json:"currency"`
	Status     string              `json:"status"`
	TotalNet   string              `json:"totalNet"`
	TotalVAT   string              `json:"totalVat"`
	TotalGross string              `json:"totalGross"`
	InvoiceID  *string             `json:"invoiceId,omitempty"`
	Lines      []OrderLineResponse `json:"lines"`
}

// FromOrder maps an order.
func FromOrder(o *order.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		if l.DeletionMark {
			continue
		}
		lines = append(lines, OrderLineResponse{
			ID:        l.ID.String(),
			LineNo:    l.LineNo,
			ItemID:    id.StringPtr(l.ItemID),
			Code:      l.Code,
			Name:      l.Name,
			Unit:      l.Unit,
			Quantity:  types.FormatQuantity(l.Quantity),
			UnitPrice: types.FormatPrice(l.UnitPrice),
			VATRate:   l.VATRate,
			Net:       types.FormatMoney(l.Net),
			VAT:       types.FormatMoney(l.VAT),
			Gross:     types.FormatMoney(l.Gross),
		})
	}
	return OrderResponse{
		DocumentMeta: documentMeta(&o.BaseDocument),
		Number:       o.Number,
		Type:         string(o.Type),
		ContactID:    o.ContactID.String(),
		Date:         o.Date,
		Currency:     o.Currency,
		Status:       string(o.Status),
		TotalNet:     types.FormatMoney(o.TotalNet),
		TotalVAT:     types.FormatMoney(o.TotalVAT),
		TotalGross:   types.FormatMoney(o.TotalGross),
		InvoiceID:    id.StringPtr(o.InvoiceID),
		Lines:        lines,
	}
}

// OrderStatus maps a transitioned order.
func OrderStatus(o *order.Order) StatusResponse {
	return StatusResponse{Success: true, ID: o.ID.String(), Status: string(o.Status), RowVersion: o.RowVersion()}
}

// InvoiceFromOrderResponse carries the invoice created from an order.
type InvoiceFromOrderResponse struct {
	InvoiceID string `json:"invoiceId"`
}
