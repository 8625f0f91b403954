package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/leasehub/lease-engine/internal/domain"
)

type paymentRepository struct {
	ext sqlx.ExtContext
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{ext: db}
}

const paymentColumns = `
	id, tenant_id, property_id, invoice_id, amount_paid, payment_date,
	payment_method, purpose, transaction_ref, status, notes, created_at
`

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, tenant_id, property_id, invoice_id, amount_paid,
			payment_date, payment_method, purpose, transaction_ref, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.ext.ExecContext(ctx, query,
		payment.ID,
		payment.TenantID,
		payment.PropertyID,
		payment.InvoiceID,
		payment.AmountPaid,
		payment.PaymentDate,
		payment.PaymentMethod,
		payment.Purpose,
		payment.TransactionRef,
		payment.Status,
		payment.Notes,
		payment.CreatedAt,
	)

	return err
}

func (r *paymentRepository) FindApproved(ctx context.Context, invoiceID uuid.UUID, transactionRef string, amount decimal.Decimal) (*domain.Payment, error) {
	var (
		query string
		args  []interface{}
	)

	if transactionRef != "" {
		query = `
			SELECT ` + paymentColumns + `
			FROM payments
			WHERE invoice_id = $1 AND transaction_ref = $2 AND status = 'approved'
			LIMIT 1
		`
		args = []interface{}{invoiceID, transactionRef}
	} else {
		query = `
			SELECT ` + paymentColumns + `
			FROM payments
			WHERE invoice_id = $1 AND amount_paid = $2 AND status = 'approved'
			LIMIT 1
		`
		args = []interface{}{invoiceID, amount}
	}

	var payment domain.Payment
	if err := sqlx.GetContext(ctx, r.ext, &payment, query, args...); err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) ExistsApprovedDeposit(ctx context.Context, tenantID, propertyID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE tenant_id = $1 AND property_id = $2
				AND purpose = 'booking_deposit' AND status = 'approved'
		)
	`

	var exists bool
	if err := sqlx.GetContext(ctx, r.ext, &exists, query, tenantID, propertyID); err != nil {
		return false, err
	}

	return exists, nil
}
