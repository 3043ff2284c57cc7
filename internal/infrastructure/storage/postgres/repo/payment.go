package repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"hesap/internal/core/id"
	"hesap/internal/domain/payment"
	"hesap/internal/infrastructure/storage/postgres"
)

const paymentsTable = "payments"

var paymentColumns = postgres.ExtractDBColumns[payment.Payment]()

// PaymentRepo implements payment.Repository.
type PaymentRepo struct {
	base
}

var _ payment.Repository = (*PaymentRepo)(nil)

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txm *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{base: newBase(txm)}
}

// Create implements payment.Repository.
func (r *PaymentRepo) Create(ctx context.Context, p *payment.Payment) error {
	return r.insert(ctx, paymentsTable, "payment", paymentColumns, p)
}

// GetByID implements payment.Repository.
func (r *PaymentRepo) GetByID(ctx context.Context, branchID, paymentID id.ID) (*payment.Payment, error) {
	return r.load(ctx, branchRowQuery(paymentsTable, paymentColumns, branchID, paymentID), paymentID)
}

// GetForUpdate implements payment.Repository.
func (r *PaymentRepo) GetForUpdate(ctx context.Context, branchID, paymentID id.ID) (*payment.Payment, error) {
	q := branchRowQuery(paymentsTable, paymentColumns, branchID, paymentID).Suffix("FOR UPDATE")
	return r.load(ctx, q, paymentID)
}

func (r *PaymentRepo) load(ctx context.Context, q squirrel.SelectBuilder, paymentID id.ID) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.get(ctx, &p, q); err != nil {
		return nil, postgres.NotFoundOr(err, "payment", paymentID)
	}
	return &p, nil
}

// Update implements payment.Repository.
func (r *PaymentRepo) Update(ctx context.Context, p *payment.Payment) error {
	return r.updateVersioned(ctx, paymentsTable, "payment", paymentColumns, p, &p.BaseEntity)
}
