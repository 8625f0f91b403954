package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leasehub/lease-engine/internal/config"
	"github.com/leasehub/lease-engine/internal/domain"
	"github.com/leasehub/lease-engine/internal/notify"
	"github.com/leasehub/lease-engine/internal/repository"
	customError "github.com/leasehub/lease-engine/pkg/errors"
	"github.com/leasehub/lease-engine/pkg/utils"
)

// BillingService owns invoice generation, payment reconciliation, late
// fee accrual and rent reminders. Lease state transitions triggered by
// payments are delegated to LeaseService inside the same transaction.
type BillingService struct {
	tx       repository.TxRunner
	repos    repository.Repos
	leases   *LeaseService
	locks    InvoiceLocker
	notifier notify.Notifier
	config   *config.Config
}

func NewBillingService(store *repository.Store, leases *LeaseService, locks InvoiceLocker, notifier notify.Notifier, cfg *config.Config) *BillingService {
	return &BillingService{
		tx:       store,
		repos:    store.Repos,
		leases:   leases,
		locks:    locks,
		notifier: notifier,
		config:   cfg,
	}
}

// ReconcilePayment applies a successful gateway payment to its invoice.
// The gateway webhook and the success-page poll both call it, so the
// whole operation is guarded by a per-invoice lock and an idempotency
// check on approved payments: the second delivery of the same event
// returns the already-recorded payment without changing anything.
func (s *BillingService) ReconcilePayment(ctx context.Context, event *domain.PaymentEvent) (*domain.Payment, error) {
	if !event.AmountPaid.IsPositive() {
		return nil, customError.WrapInvalidState("payment amount must be positive")
	}

	acquired, err := s.locks.Acquire(ctx, event.InvoiceID, s.config.GetReconcileLockTTL())
	if err != nil {
		return nil, customError.WrapExternalDependency("redis", err)
	}
	if !acquired {
		return nil, customError.WrapDuplicateOperation("payment for this invoice is already being reconciled")
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), event.InvoiceID); err != nil {
			log.Printf("failed to release reconcile lock for invoice %s: %v", event.InvoiceID, err)
		}
	}()

	now := time.Now()
	var payment *domain.Payment

	err = s.tx.WithTx(ctx, func(r repository.Repos) error {
		invoice, err := r.Invoices.GetByID(ctx, event.InvoiceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return customError.WrapNotFound("invoice", event.InvoiceID.String())
			}
			return customError.WrapDatabaseError(err)
		}

		if invoice.TenantID != event.TenantID {
			return customError.WrapInvalidState("payment tenant does not match the invoice tenant")
		}

		existing, err := r.Payments.FindApproved(ctx, invoice.ID, event.TransactionRef, event.AmountPaid)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return customError.WrapDatabaseError(err)
		}
		if existing != nil {
			payment = existing
			return nil
		}

		if err := r.Invoices.MarkPaid(ctx, invoice.ID, invoice.TotalAmount, now); err != nil {
			return customError.WrapDatabaseError(err)
		}

		purpose := event.Purpose
		if purpose == "" {
			purpose = domain.PaymentPurposeRent
			if invoice.Type == domain.InvoiceTypeBookingDeposit {
				purpose = domain.PaymentPurposeBookingDeposit
			}
		}

		payment = &domain.Payment{
			ID:             uuid.New(),
			TenantID:       invoice.TenantID,
			PropertyID:     &invoice.PropertyID,
			InvoiceID:      invoice.ID,
			AmountPaid:     event.AmountPaid,
			PaymentDate:    now,
			PaymentMethod:  domain.PaymentMethodGateway,
			Purpose:        purpose,
			TransactionRef: event.TransactionRef,
			Status:         domain.PaymentStatusApproved,
			CreatedAt:      now,
		}
		if err := r.Payments.Create(ctx, payment); err != nil {
			return customError.WrapDatabaseError(err)
		}

		entry := &domain.LedgerEntry{
			ID:            uuid.New(),
			TenantID:      invoice.TenantID,
			Type:          domain.LedgerEntryCredit,
			Amount:        event.AmountPaid,
			Description:   fmt.Sprintf("Payment received for %s invoice %s", invoice.Type, invoice.Month),
			ReferenceType: domain.LedgerReferencePayment,
			ReferenceID:   payment.ID,
			CreatedAt:     now,
		}
		if err := r.Ledger.Append(ctx, entry); err != nil {
			return customError.WrapDatabaseError(err)
		}

		recordAudit(ctx, r.Audit, domain.SystemActor(), "reconcile_payment", "Invoice", invoice.ID, map[string]change{
			"status":     {Before: invoice.Status, After: domain.InvoiceStatusPaid},
			"paidAmount": {Before: invoice.PaidAmount, After: invoice.TotalAmount},
			"paymentId":  {After: payment.ID},
		})

		if invoice.Type == domain.InvoiceTypeBookingDeposit {
			return s.afterDepositPaid(ctx, r, invoice, now)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// afterDepositPaid runs the lease transitions a paid booking deposit
// triggers, inside the reconciliation transaction: reserve the
// application and property, link the tenant, and issue the first rent
// invoice. An already-existing open rent invoice is fine; a property
// without rent configured is logged and left for the repair sweep once
// the data is fixed.
func (s *BillingService) afterDepositPaid(ctx context.Context, r repository.Repos, invoice *domain.Invoice, now time.Time) error {
	if err := s.leases.confirmBookingDepositTx(ctx, r, invoice.TenantID, invoice.PropertyID, domain.SystemActor()); err != nil {
		return err
	}

	property, err := r.Properties.GetByID(ctx, invoice.PropertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapDataIntegrity("deposit invoice references a missing property")
		}
		return customError.WrapDatabaseError(err)
	}

	if _, err := ensureFirstRentInvoice(ctx, r, s.config, invoice.TenantID, property, now); err != nil {
		if customError.IsDuplicateOperation(err) {
			return nil
		}
		if errors.Is(err, customError.ErrDataIntegrity) {
			log.Printf("first rent invoice skipped for property %s: %v", property.ID, err)
			return nil
		}
		return err
	}

	return nil
}

// EnsureFirstRentInvoice issues the first monthly rent invoice for a
// tenant and property unless an open one exists. Reconciliation and the
// repair sweep run the same logic inside their own transactions.
func (s *BillingService) EnsureFirstRentInvoice(ctx context.Context, tenantID, propertyID uuid.UUID) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.tx.WithTx(ctx, func(r repository.Repos) error {
		property, err := r.Properties.GetByID(ctx, propertyID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return customError.WrapNotFound("property", propertyID.String())
			}
			return customError.WrapDatabaseError(err)
		}

		invoice, err = ensureFirstRentInvoice(ctx, r, s.config, tenantID, property, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// TenantLedger returns the tenant's ledger entries, newest first.
func (s *BillingService) TenantLedger(ctx context.Context, tenantID uuid.UUID) ([]*domain.LedgerEntry, error) {
	entries, err := s.repos.Ledger.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return entries, nil
}

// GenerateMonthlyInvoices creates the month's rent invoice for every
// occupied property. It is a no-op unless now is the first of the month;
// the partial unique index on (tenant, property, month) backstops any
// concurrent run. Returns the number of invoices created.
func (s *BillingService) GenerateMonthlyInvoices(ctx context.Context, now time.Time) (int, error) {
	if now.Day() != 1 {
		return 0, nil
	}

	month := utils.MonthKey(now)
	dueDate := utils.MonthlyDueDate(now, s.config.Business.RentDueDay)

	properties, err := s.repos.Properties.ListOccupied(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	created := 0
	for _, property := range properties {
		tenantID := *property.TenantID

		exists, err := s.repos.Invoices.ExistsForMonth(ctx, tenantID, property.ID, month)
		if err != nil {
			log.Printf("monthly invoices: existence check failed for property %s: %v", property.ID, err)
			continue
		}
		if exists {
			continue
		}

		if !property.Rent.IsPositive() {
			log.Printf("monthly invoices: property %s has no rent amount set, skipping", property.ID)
			continue
		}

		total := property.Rent.Add(property.MaintenanceFee)
		invoice := &domain.Invoice{
			ID:                 uuid.New(),
			Type:               domain.InvoiceTypeMonthlyRent,
			TenantID:           tenantID,
			PropertyID:         property.ID,
			Month:              month,
			RentAmount:         property.Rent,
			MaintenanceCharges: property.MaintenanceFee,
			TotalAmount:        total,
			DueDate:            dueDate,
			Status:             domain.InvoiceStatusUnpaid,
			PaidAmount:         decimal.Zero,
			Balance:            total,
			LateFeesAccrued:    decimal.Zero,
			LastReminderStage:  domain.ReminderStageNone,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		if err := s.repos.Invoices.Create(ctx, invoice); err != nil {
			log.Printf("monthly invoices: create failed for property %s: %v", property.ID, err)
			continue
		}
		created++
	}

	return created, nil
}

// AccrueLateFees charges late fees on rent invoices past the grace
// period. The fee is flat per day late beyond grace; each run issues a
// standalone late_fee invoice for the increment since the last run and
// bumps the accrued total on the rent invoice, so reruns on the same day
// charge nothing. Returns the number of invoices that accrued a fee.
func (s *BillingService) AccrueLateFees(ctx context.Context, now time.Time) (int, error) {
	feePerDay := s.config.GetLateFeePerDay()
	grace := s.config.Business.GracePeriodDays

	invoices, err := s.repos.Invoices.ListUnpaidMonthlyRent(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	accrued := 0
	for _, invoice := range invoices {
		daysLate := utils.DaysBetween(invoice.DueDate, now)
		chargeableDays := daysLate - grace
		if chargeableDays <= 0 {
			continue
		}

		target := feePerDay.Mul(decimal.NewFromInt(int64(chargeableDays)))
		additional := target.Sub(invoice.LateFeesAccrued)
		if !additional.IsPositive() {
			continue
		}

		if err := s.accrueOne(ctx, invoice, additional, target, daysLate, now); err != nil {
			log.Printf("late fees: accrual failed for invoice %s: %v", invoice.ID, err)
			continue
		}
		accrued++
	}

	return accrued, nil
}

func (s *BillingService) accrueOne(ctx context.Context, invoice *domain.Invoice, additional, target decimal.Decimal, daysLate int, now time.Time) error {
	return s.tx.WithTx(ctx, func(r repository.Repos) error {
		feeInvoice := &domain.Invoice{
			ID:                uuid.New(),
			Type:              domain.InvoiceTypeLateFee,
			TenantID:          invoice.TenantID,
			PropertyID:        invoice.PropertyID,
			Month:             invoice.Month,
			OtherCharges:      additional,
			TotalAmount:       additional,
			DueDate:           utils.StartOfDay(now),
			Status:            domain.InvoiceStatusUnpaid,
			PaidAmount:        decimal.Zero,
			Balance:           additional,
			LateFeesAccrued:   decimal.Zero,
			LastReminderStage: domain.ReminderStageNone,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := r.Invoices.Create(ctx, feeInvoice); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if err := r.Invoices.UpdateLateFees(ctx, invoice.ID, target, domain.InvoiceStatusOverdue); err != nil {
			return customError.WrapDatabaseError(err)
		}

		entry := &domain.LedgerEntry{
			ID:            uuid.New(),
			TenantID:      invoice.TenantID,
			Type:          domain.LedgerEntryDebit,
			Amount:        additional,
			Description:   fmt.Sprintf("Late fee for rent %s, %d days late", invoice.Month, daysLate),
			ReferenceType: domain.LedgerReferenceInvoice,
			ReferenceID:   feeInvoice.ID,
			CreatedAt:     now,
		}
		if err := r.Ledger.Append(ctx, entry); err != nil {
			return customError.WrapDatabaseError(err)
		}

		recordAudit(ctx, r.Audit, domain.SystemActor(), "accrue_late_fee", "Invoice", invoice.ID, map[string]change{
			"lateFeesAccrued": {Before: invoice.LateFeesAccrued, After: target},
			"feeInvoiceId":    {After: feeInvoice.ID},
			"daysLate":        {After: daysLate},
		})

		return nil
	})
}

// reminderStageFor maps the date-only distance to the due date onto an
// escalation stage. daysUntilDue is negative once the invoice is overdue.
func reminderStageFor(daysUntilDue int) string {
	switch {
	case daysUntilDue == 2:
		return domain.ReminderStageFriendly
	case daysUntilDue == 0:
		return domain.ReminderStageDueToday
	case daysUntilDue >= 0:
		return ""
	}

	daysLate := -daysUntilDue
	switch {
	case daysLate >= 30:
		return domain.ReminderStageDefault30
	case daysLate >= 15:
		return domain.ReminderStageAlert15
	case daysLate >= 7:
		return domain.ReminderStageWarning7
	case daysLate == 1:
		return domain.ReminderStageOverdue1
	default:
		// Days 2 through 6 past due sit between the first-overdue nudge
		// and the seven-day warning. No reminder goes out in that gap.
		return ""
	}
}

// SendRentReminders sends the reminder matching each open rent invoice's
// position relative to its due date. The stage is persisted after a
// successful send, so each invoice gets each stage at most once and a
// failed send retries on the next run. Returns the number of reminders
// sent.
func (s *BillingService) SendRentReminders(ctx context.Context, now time.Time) (int, error) {
	invoices, err := s.repos.Invoices.ListOpenRent(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	sent := 0
	for _, invoice := range invoices {
		daysUntilDue := utils.DaysBetween(now, invoice.DueDate)
		stage := reminderStageFor(daysUntilDue)
		if stage == "" || stage == invoice.LastReminderStage {
			continue
		}

		tenant, err := s.repos.Tenants.GetByID(ctx, invoice.TenantID)
		if err != nil {
			log.Printf("reminders: tenant %s missing for invoice %s, skipping", invoice.TenantID, invoice.ID)
			continue
		}
		property, err := s.repos.Properties.GetByID(ctx, invoice.PropertyID)
		if err != nil {
			log.Printf("reminders: property %s missing for invoice %s, skipping", invoice.PropertyID, invoice.ID)
			continue
		}

		daysLate := 0
		if daysUntilDue < 0 {
			daysLate = -daysUntilDue
		}
		dueDate := invoice.DueDate
		event := notify.Event{
			Template:     stage,
			TenantID:     tenant.ID,
			TenantEmail:  tenant.Email,
			TenantName:   tenant.FirstName + " " + tenant.LastName,
			PropertyID:   property.ID,
			PropertyName: property.Name,
			InvoiceID:    invoice.ID,
			Amount:       invoice.Outstanding(),
			DueDate:      &dueDate,
			DaysLate:     daysLate,
		}
		if err := s.notifier.Send(ctx, event); err != nil {
			log.Printf("reminders: send %s failed for invoice %s: %v", stage, invoice.ID, err)
			continue
		}

		if err := s.repos.Invoices.UpdateReminder(ctx, invoice.ID, stage, now); err != nil {
			log.Printf("reminders: failed to persist stage %s for invoice %s: %v", stage, invoice.ID, err)
			continue
		}
		sent++
	}

	return sent, nil
}
