package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leasehub/lease-engine/internal/config"
	"github.com/leasehub/lease-engine/internal/domain"
	"github.com/leasehub/lease-engine/internal/repository"
	customError "github.com/leasehub/lease-engine/pkg/errors"
	"github.com/leasehub/lease-engine/pkg/utils"
)

// createDepositInvoice issues the booking deposit invoice for an approved
// application. The amount falls back to a fraction of the monthly rent
// when the property has no explicit booking deposit configured.
func createDepositInvoice(ctx context.Context, r repository.Repos, cfg *config.Config, tenantID uuid.UUID, property *domain.Property, now time.Time) (*domain.Invoice, error) {
	amount := utils.ComputeBookingDeposit(property.BookingDeposit, property.Rent, cfg.GetMinBookingDepositFraction())
	dueDate := now.Add(cfg.GetDepositWindow())

	invoice := &domain.Invoice{
		ID:                uuid.New(),
		Type:              domain.InvoiceTypeBookingDeposit,
		TenantID:          tenantID,
		PropertyID:        property.ID,
		Month:             utils.MonthKey(now),
		RentAmount:        amount,
		TotalAmount:       amount,
		DueDate:           dueDate,
		Status:            domain.InvoiceStatusUnpaid,
		PaidAmount:        decimal.Zero,
		Balance:           amount,
		LateFeesAccrued:   decimal.Zero,
		LastReminderStage: domain.ReminderStageNone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := r.Invoices.Create(ctx, invoice); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return invoice, nil
}

// ensureFirstRentInvoice creates the first monthly rent invoice for a
// tenant and property unless an open one already exists. Rent is due on
// the configured day of the current month when that day has not passed,
// otherwise the same day of the next month.
func ensureFirstRentInvoice(ctx context.Context, r repository.Repos, cfg *config.Config, tenantID uuid.UUID, property *domain.Property, now time.Time) (*domain.Invoice, error) {
	existing, err := r.Invoices.FindOpenRent(ctx, tenantID, property.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}
	if existing != nil {
		return nil, customError.WrapDuplicateOperation("open rent invoice already exists for tenant and property")
	}

	if !property.Rent.IsPositive() {
		return nil, customError.WrapDataIntegrity("property has no rent amount set")
	}

	dueDate := utils.RentDueDate(now, cfg.Business.RentDueDay)
	total := property.Rent.Add(property.MaintenanceFee)

	invoice := &domain.Invoice{
		ID:                 uuid.New(),
		Type:               domain.InvoiceTypeMonthlyRent,
		TenantID:           tenantID,
		PropertyID:         property.ID,
		Month:              utils.MonthKey(dueDate),
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

	if err := r.Invoices.Create(ctx, invoice); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return invoice, nil
}
