package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/leasehub/lease-engine/internal/domain"
)

type invoiceRepository struct {
	ext sqlx.ExtContext
}

func NewInvoiceRepository(db *sqlx.DB) InvoiceRepository {
	return &invoiceRepository{ext: db}
}

const invoiceColumns = `
	id, type, tenant_id, property_id, month, rent_amount, maintenance_charges,
	water_charges, electricity_charges, other_charges, total_amount, due_date,
	status, paid_amount, balance, late_fees_accrued, last_reminder_stage,
	last_reminder_at, paid_at, created_at, updated_at
`

func (r *invoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	query := `
		INSERT INTO invoices (id, type, tenant_id, property_id, month, rent_amount,
			maintenance_charges, water_charges, electricity_charges, other_charges,
			total_amount, due_date, status, paid_amount, balance, late_fees_accrued,
			last_reminder_stage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.ext.ExecContext(ctx, query,
		invoice.ID,
		invoice.Type,
		invoice.TenantID,
		invoice.PropertyID,
		invoice.Month,
		invoice.RentAmount,
		invoice.MaintenanceCharges,
		invoice.WaterCharges,
		invoice.ElectricityCharges,
		invoice.OtherCharges,
		invoice.TotalAmount,
		invoice.DueDate,
		invoice.Status,
		invoice.PaidAmount,
		invoice.Balance,
		invoice.LateFeesAccrued,
		invoice.LastReminderStage,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)

	return err
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	var invoice domain.Invoice
	if err := sqlx.GetContext(ctx, r.ext, &invoice, query, id); err != nil {
		return nil, err
	}

	return &invoice, nil
}

func (r *invoiceRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAmount decimal.Decimal, paidAt time.Time) error {
	query := `
		UPDATE invoices
		SET status = 'paid', paid_amount = $2, balance = 0, paid_at = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.ext.ExecContext(ctx, query, id, paidAmount, paidAt, time.Now())
	return err
}

func (r *invoiceRepository) UpdateLateFees(ctx context.Context, id uuid.UUID, accrued decimal.Decimal, status string) error {
	query := `
		UPDATE invoices
		SET late_fees_accrued = $2, status = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.ext.ExecContext(ctx, query, id, accrued, status, time.Now())
	return err
}

func (r *invoiceRepository) UpdateReminder(ctx context.Context, id uuid.UUID, stage string, sentAt time.Time) error {
	query := `
		UPDATE invoices
		SET last_reminder_stage = $2, last_reminder_at = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.ext.ExecContext(ctx, query, id, stage, sentAt, time.Now())
	return err
}

func (r *invoiceRepository) FindOpenRent(ctx context.Context, tenantID, propertyID uuid.UUID) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE tenant_id = $1 AND property_id = $2
			AND type IN ('monthly_rent', 'rent')
			AND status IN ('unpaid', 'partial', 'overdue')
		ORDER BY due_date
		LIMIT 1
	`

	var invoice domain.Invoice
	if err := sqlx.GetContext(ctx, r.ext, &invoice, query, tenantID, propertyID); err != nil {
		return nil, err
	}

	return &invoice, nil
}

func (r *invoiceRepository) ExistsForMonth(ctx context.Context, tenantID, propertyID uuid.UUID, month string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE tenant_id = $1 AND property_id = $2 AND month = $3 AND type = 'monthly_rent'
		)
	`

	var exists bool
	if err := sqlx.GetContext(ctx, r.ext, &exists, query, tenantID, propertyID, month); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *invoiceRepository) ExistsPaid(ctx context.Context, tenantID, propertyID uuid.UUID, types ...string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE tenant_id = ? AND property_id = ? AND status = 'paid' AND type IN (?)
		)
	`

	query, args, err := sqlx.In(query, tenantID, propertyID, types)
	if err != nil {
		return false, err
	}
	query = r.ext.Rebind(query)

	var exists bool
	if err := sqlx.GetContext(ctx, r.ext, &exists, query, args...); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *invoiceRepository) ListUnpaidMonthlyRent(ctx context.Context) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE type = 'monthly_rent' AND status = 'unpaid'
		ORDER BY due_date
	`

	var invoices []*domain.Invoice
	if err := sqlx.SelectContext(ctx, r.ext, &invoices, query); err != nil {
		return nil, err
	}

	return invoices, nil
}

func (r *invoiceRepository) ListOpenRent(ctx context.Context) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE type IN ('monthly_rent', 'rent')
			AND status IN ('unpaid', 'partial', 'overdue')
		ORDER BY due_date
	`

	var invoices []*domain.Invoice
	if err := sqlx.SelectContext(ctx, r.ext, &invoices, query); err != nil {
		return nil, err
	}

	return invoices, nil
}

func (r *invoiceRepository) ListPaidDeposits(ctx context.Context) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE type = 'booking_deposit' AND status = 'paid'
		ORDER BY created_at
	`

	var invoices []*domain.Invoice
	if err := sqlx.SelectContext(ctx, r.ext, &invoices, query); err != nil {
		return nil, err
	}

	return invoices, nil
}
