package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leasehub/lease-engine/internal/domain"
)

// ApplicationRepository defines the interface for application data operations
type ApplicationRepository interface {
	// Create creates a new application
	Create(ctx context.Context, app *domain.Application) error

	// GetByID retrieves an application by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)

	// Update persists application status and review metadata
	Update(ctx context.Context, app *domain.Application) error

	// FindForDeposit finds the latest approved or reserved application for
	// a tenant and property, used when confirming a booking deposit
	FindForDeposit(ctx context.Context, tenantID, propertyID uuid.UUID) (*domain.Application, error)

	// ListExpiryCandidates lists open applications whose deposit deadline
	// or preferred move-in date has passed
	ListExpiryCandidates(ctx context.Context, now time.Time) ([]*domain.Application, error)

	// ListExpiringBetween lists open, not-yet-warned applications whose
	// deposit deadline falls inside the window
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*domain.Application, error)

	// RejectPendingForProperty rejects every other pending application on
	// the property and returns how many were touched
	RejectPendingForProperty(ctx context.Context, propertyID, exceptID uuid.UUID, comments string) (int64, error)

	// CancelPendingByEmail cancels the applicant's other pending
	// applications and returns how many were touched
	CancelPendingByEmail(ctx context.Context, email string, exceptID uuid.UUID, comments string) (int64, error)
}

// PropertyRepository defines the interface for property data operations
type PropertyRepository interface {
	// GetByID retrieves a property by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)

	// Create creates a new property
	Create(ctx context.Context, property *domain.Property) error

	// Assign sets the property status and tenant linkage
	Assign(ctx context.Context, propertyID uuid.UUID, status string, tenantID *uuid.UUID) error

	// Release returns the property to available, clearing the tenant
	// linkage only when it matches tenantID
	Release(ctx context.Context, propertyID, tenantID uuid.UUID) error

	// ListOccupied lists occupied properties that have a linked tenant
	ListOccupied(ctx context.Context) ([]*domain.Property, error)
}

// TenantRepository defines the interface for tenant data operations
type TenantRepository interface {
	// Create creates a new tenant
	Create(ctx context.Context, tenant *domain.Tenant) error

	// GetByID retrieves a tenant by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)

	// GetByEmail retrieves a tenant by email
	GetByEmail(ctx context.Context, email string) (*domain.Tenant, error)

	// Link sets the tenant's property and application references
	Link(ctx context.Context, tenantID uuid.UUID, propertyID, applicationID *uuid.UUID) error

	// Detach clears the tenant's property reference when it matches
	Detach(ctx context.Context, tenantID, propertyID uuid.UUID) error

	// Count returns the number of tenants, used for tenant code generation
	Count(ctx context.Context) (int64, error)
}

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	// Create creates a new invoice
	Create(ctx context.Context, invoice *domain.Invoice) error

	// GetByID retrieves an invoice by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)

	// MarkPaid marks the invoice fully paid and zeroes its balance
	MarkPaid(ctx context.Context, id uuid.UUID, paidAmount decimal.Decimal, paidAt time.Time) error

	// UpdateLateFees sets the accrued late fee total and status on a rent invoice
	UpdateLateFees(ctx context.Context, id uuid.UUID, accrued decimal.Decimal, status string) error

	// UpdateReminder persists the last reminder stage and timestamp
	UpdateReminder(ctx context.Context, id uuid.UUID, stage string, sentAt time.Time) error

	// FindOpenRent finds an open rent or monthly_rent invoice for the
	// tenant and property, if any
	FindOpenRent(ctx context.Context, tenantID, propertyID uuid.UUID) (*domain.Invoice, error)

	// ExistsForMonth reports whether a monthly_rent invoice exists for the
	// tenant, property and month key
	ExistsForMonth(ctx context.Context, tenantID, propertyID uuid.UUID, month string) (bool, error)

	// ExistsPaid reports whether a paid invoice of any of the given types
	// exists for the tenant and property
	ExistsPaid(ctx context.Context, tenantID, propertyID uuid.UUID, types ...string) (bool, error)

	// ListUnpaidMonthlyRent lists monthly_rent invoices still unpaid,
	// candidates for late fee accrual
	ListUnpaidMonthlyRent(ctx context.Context) ([]*domain.Invoice, error)

	// ListOpenRent lists rent invoices with an outstanding balance,
	// candidates for reminders
	ListOpenRent(ctx context.Context) ([]*domain.Invoice, error)

	// ListPaidDeposits lists paid booking_deposit invoices, used by the
	// lease state repair sweep
	ListPaidDeposits(ctx context.Context) ([]*domain.Invoice, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// FindApproved finds an approved payment for the invoice matched by
	// external transaction ref, or by amount when ref is empty. This is
	// the reconciliation idempotency check.
	FindApproved(ctx context.Context, invoiceID uuid.UUID, transactionRef string, amount decimal.Decimal) (*domain.Payment, error)

	// ExistsApprovedDeposit reports whether an approved booking deposit
	// payment exists for the tenant and property
	ExistsApprovedDeposit(ctx context.Context, tenantID, propertyID uuid.UUID) (bool, error)
}

// LedgerRepository defines the interface for the append-only ledger
type LedgerRepository interface {
	// Append appends a ledger entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry *domain.LedgerEntry) error

	// ListByTenant lists a tenant's ledger entries, newest first
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.LedgerEntry, error)
}

// AuditRepository defines the interface for the audit log
type AuditRepository interface {
	// Record persists an audit log entry
	Record(ctx context.Context, entry *domain.AuditLog) error
}
