package dto

import (
	"time"

	"hesap/internal/core/id"
	"hesap/internal/core/types"
	"hesap/internal/domain/payment"
)

// PaymentRequest holds the editable payment fields.
type PaymentRequest struct {
	AccountID string  `json:"accountId" binding:"required"`
	ContactID *string `json:"contactId,omitempty"`
	InvoiceID *string `json:"invoiceId,omitempty"`
	Direction string  `json:"direction" binding:"required,oneof=In Out"`
	Amount    string  `json:"amount" binding:"required,decimal=2"`
	Currency  string  `json:"currency" binding:"required,len=3"`
	Date      *string `json:"date,omitempty"`
	Reference *string `json:"reference,omitempty" binding:"omitempty,max=50"`
	Note      string  `json:"note,omitempty" binding:"max=500"`
}

func (r *PaymentRequest) fields() (payment.Fields, error) {
	accountID, err := id.ParseField("accountId", r.AccountID)
	if err != nil {
		return payment.Fields{}, err
	}
	contactID, err := id.ParseOptional("contactId", r.ContactID)
	if err != nil {
		return payment.Fields{}, err
	}
	invoiceID, err := id.ParseOptional("invoiceId", r.InvoiceID)
	if err != nil {
		return payment.Fields{}, err
	}
	return payment.Fields{
		AccountID: accountID,
		ContactID: contactID,
		InvoiceID: invoiceID,
		Direction: r.Direction,
		Amount:    r.Amount,
		Currency:  r.Currency,
		Date:      r.Date,
		Reference: r.Reference,
		Note:      r.Note,
	}, nil
}

// CreatePaymentRequest records a payment.
type CreatePaymentRequest struct {
	PaymentRequest
}

// ToCommand converts the request.
func (r *CreatePaymentRequest) ToCommand() (payment.CreateCommand, error) {
	f, err := r.fields()
	if err != nil {
		return payment.CreateCommand{}, err
	}
	return payment.CreateCommand{Fields: f}, nil
}

// UpdatePaymentRequest replaces a payment's fields.
type UpdatePaymentRequest struct {
	RowVersion string `json:"rowVersion" binding:"required,rowversion"`
	PaymentRequest
}

// ToCommand converts the request.
func (r *UpdatePaymentRequest) ToCommand() (payment.UpdateCommand, error) {
	f, err := r.fields()
	if err != nil {
		return payment.UpdateCommand{}, err
	}
	return payment.UpdateCommand{RowVersion: r.RowVersion, Fields: f}, nil
}

// PaymentResponse is a payment.
type PaymentResponse struct {
	DocumentMeta
	AccountID string    `json:"accountId"`
	ContactID *string   `json:"contactId,omitempty"`
	InvoiceID *string   `json:"invoiceId,omitempty"`
	Direction string    `json:"direction"`
	Date      time.Time `json:"date"`
	Currency  string    `json:"currency"`
	Amount    string    `json:"amount"`
	Reference *string   `json:"reference,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// FromPayment maps a payment.
func FromPayment(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		DocumentMeta: documentMeta(&p.BaseDocument),
		AccountID:    p.AccountID.String(),
		ContactID:    id.StringPtr(p.ContactID),
		InvoiceID:    id.StringPtr(p.InvoiceID),
		Direction:    string(p.Direction),
		Date:         p.Date,
		Currency:     p.Currency,
		Amount:       types.FormatMoney(p.Amount),
		Reference:    p.Reference,
		Note:         p.Note,
	}
}
