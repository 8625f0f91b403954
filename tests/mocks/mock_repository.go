package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/leasehub/lease-engine/internal/domain"
	"github.com/leasehub/lease-engine/internal/notify"
	"github.com/leasehub/lease-engine/internal/repository"
)

type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationRepository) Update(ctx context.Context, app *domain.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationRepository) FindForDeposit(ctx context.Context, tenantID, propertyID uuid.UUID) (*domain.Application, error) {
	args := m.Called(ctx, tenantID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationRepository) ListExpiryCandidates(ctx context.Context, now time.Time) ([]*domain.Application, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Application), args.Error(1)
}

func (m *MockApplicationRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*domain.Application, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Application), args.Error(1)
}

func (m *MockApplicationRepository) RejectPendingForProperty(ctx context.Context, propertyID, exceptID uuid.UUID, comments string) (int64, error) {
	args := m.Called(ctx, propertyID, exceptID, comments)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApplicationRepository) CancelPendingByEmail(ctx context.Context, email string, exceptID uuid.UUID, comments string) (int64, error) {
	args := m.Called(ctx, email, exceptID, comments)
	return args.Get(0).(int64), args.Error(1)
}

type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockPropertyRepository) Create(ctx context.Context, property *domain.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *MockPropertyRepository) Assign(ctx context.Context, propertyID uuid.UUID, status string, tenantID *uuid.UUID) error {
	args := m.Called(ctx, propertyID, status, tenantID)
	return args.Error(0)
}

func (m *MockPropertyRepository) Release(ctx context.Context, propertyID, tenantID uuid.UUID) error {
	args := m.Called(ctx, propertyID, tenantID)
	return args.Error(0)
}

func (m *MockPropertyRepository) ListOccupied(ctx context.Context) ([]*domain.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Property), args.Error(1)
}

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Link(ctx context.Context, tenantID uuid.UUID, propertyID, applicationID *uuid.UUID) error {
	args := m.Called(ctx, tenantID, propertyID, applicationID)
	return args.Error(0)
}

func (m *MockTenantRepository) Detach(ctx context.Context, tenantID, propertyID uuid.UUID) error {
	args := m.Called(ctx, tenantID, propertyID)
	return args.Error(0)
}

func (m *MockTenantRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAmount decimal.Decimal, paidAt time.Time) error {
	args := m.Called(ctx, id, paidAmount, paidAt)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateLateFees(ctx context.Context, id uuid.UUID, accrued decimal.Decimal, status string) error {
	args := m.Called(ctx, id, accrued, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateReminder(ctx context.Context, id uuid.UUID, stage string, sentAt time.Time) error {
	args := m.Called(ctx, id, stage, sentAt)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindOpenRent(ctx context.Context, tenantID, propertyID uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsForMonth(ctx context.Context, tenantID, propertyID uuid.UUID, month string) (bool, error) {
	args := m.Called(ctx, tenantID, propertyID, month)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsPaid(ctx context.Context, tenantID, propertyID uuid.UUID, types ...string) (bool, error) {
	callArgs := []interface{}{ctx, tenantID, propertyID}
	for _, t := range types {
		callArgs = append(callArgs, t)
	}
	args := m.Called(callArgs...)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) ListUnpaidMonthlyRent(ctx context.Context) ([]*domain.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListOpenRent(ctx context.Context) ([]*domain.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListPaidDeposits(ctx context.Context) ([]*domain.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Invoice), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindApproved(ctx context.Context, invoiceID uuid.UUID, transactionRef string, amount decimal.Decimal) (*domain.Payment, error) {
	args := m.Called(ctx, invoiceID, transactionRef, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ExistsApprovedDeposit(ctx context.Context, tenantID, propertyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, propertyID)
	return args.Bool(0), args.Error(1)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.LedgerEntry, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LedgerEntry), args.Error(1)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Record(ctx context.Context, entry *domain.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, event notify.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Repos bundles fresh mocks for every repository and assembles them into
// a repository.Repos value services can use directly.
type Repos struct {
	Applications *MockApplicationRepository
	Properties   *MockPropertyRepository
	Tenants      *MockTenantRepository
	Invoices     *MockInvoiceRepository
	Payments     *MockPaymentRepository
	Ledger       *MockLedgerRepository
	Audit        *MockAuditRepository
}

func NewRepos() *Repos {
	return &Repos{
		Applications: &MockApplicationRepository{},
		Properties:   &MockPropertyRepository{},
		Tenants:      &MockTenantRepository{},
		Invoices:     &MockInvoiceRepository{},
		Payments:     &MockPaymentRepository{},
		Ledger:       &MockLedgerRepository{},
		Audit:        &MockAuditRepository{},
	}
}

func (r *Repos) Bundle() repository.Repos {
	return repository.Repos{
		Applications: r.Applications,
		Properties:   r.Properties,
		Tenants:      r.Tenants,
		Invoices:     r.Invoices,
		Payments:     r.Payments,
		Ledger:       r.Ledger,
		Audit:        r.Audit,
	}
}

func (r *Repos) AssertExpectations(t mock.TestingT) {
	r.Applications.AssertExpectations(t)
	r.Properties.AssertExpectations(t)
	r.Tenants.AssertExpectations(t)
	r.Invoices.AssertExpectations(t)
	r.Payments.AssertExpectations(t)
	r.Ledger.AssertExpectations(t)
	r.Audit.AssertExpectations(t)
}

// TxRunner runs the transactional function against the mock-backed repos
// without any real transaction, recording how many times it was invoked.
type TxRunner struct {
	Repos *Repos
	Calls int
	Err   error
}

func (t *TxRunner) WithTx(ctx context.Context, fn func(r repository.Repos) error) error {
	t.Calls++
	if t.Err != nil {
		return t.Err
	}
	return fn(t.Repos.Bundle())
}

// Locker is an in-memory InvoiceLocker stand-in. Acquired reports what
// Acquire should return.
type Locker struct {
	Acquired   bool
	AcquireErr error
	Held       []uuid.UUID
	Released   []uuid.UUID
}

func NewLocker() *Locker {
	return &Locker{Acquired: true}
}

func (l *Locker) Acquire(ctx context.Context, invoiceID uuid.UUID, ttl time.Duration) (bool, error) {
	if l.AcquireErr != nil {
		return false, l.AcquireErr
	}
	if l.Acquired {
		l.Held = append(l.Held, invoiceID)
	}
	return l.Acquired, nil
}

func (l *Locker) Release(ctx context.Context, invoiceID uuid.UUID) error {
	l.Released = append(l.Released, invoiceID)
	return nil
}
