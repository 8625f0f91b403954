package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InvoiceTypeRent           = "rent"
	InvoiceTypeMonthlyRent    = "monthly_rent"
	InvoiceTypeBookingDeposit = "booking_deposit"
	InvoiceTypeLateFee        = "late_fee"
	InvoiceTypeOther          = "other"
)

const (
	InvoiceStatusUnpaid  = "unpaid"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// Reminder stages, ordered by escalation. ReminderStageNone means no
// reminder has been sent for the invoice yet.
const (
	ReminderStageNone      = "none"
	ReminderStageFriendly  = "friendly"
	ReminderStageDueToday  = "due_today"
	ReminderStageOverdue1  = "overdue_1"
	ReminderStageWarning7  = "warning_7"
	ReminderStageAlert15   = "alert_15"
	ReminderStageDefault30 = "default_30"
)

// Invoice is a billable obligation against a tenant for a property.
type Invoice struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Type               string          `json:"type" db:"type"`
	TenantID           uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	PropertyID         uuid.UUID       `json:"property_id" db:"property_id"`
	Month              string          `json:"month" db:"month"` // YYYY-MM
	RentAmount         decimal.Decimal `json:"rent_amount" db:"rent_amount"`
	MaintenanceCharges decimal.Decimal `json:"maintenance_charges" db:"maintenance_charges"`
	WaterCharges       decimal.Decimal `json:"water_charges" db:"water_charges"`
	ElectricityCharges decimal.Decimal `json:"electricity_charges" db:"electricity_charges"`
	OtherCharges       decimal.Decimal `json:"other_charges" db:"other_charges"`
	TotalAmount        decimal.Decimal `json:"total_amount" db:"total_amount"`
	DueDate            time.Time       `json:"due_date" db:"due_date"`
	Status             string          `json:"status" db:"status"`
	PaidAmount         decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Balance            decimal.Decimal `json:"balance" db:"balance"`
	LateFeesAccrued    decimal.Decimal `json:"late_fees_accrued" db:"late_fees_accrued"`
	LastReminderStage  string          `json:"last_reminder_stage" db:"last_reminder_stage"`
	LastReminderAt     *time.Time      `json:"last_reminder_at,omitempty" db:"last_reminder_at"`
	PaidAt             *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// Outstanding returns the authoritative outstanding amount. Balance is
// persisted at write time, but invoices written by older code may carry a
// zero balance while still unpaid; fall back to total minus paid, floored
// at zero.
func (i *Invoice) Outstanding() decimal.Decimal {
	bal := i.Balance
	if bal.IsZero() && i.Status != InvoiceStatusPaid {
		bal = i.TotalAmount.Sub(i.PaidAmount)
	}
	if bal.IsNegative() {
		return decimal.Zero
	}
	return bal
}

// IsOpen reports whether the invoice still has an outstanding obligation.
func (i *Invoice) IsOpen() bool {
	switch i.Status {
	case InvoiceStatusUnpaid, InvoiceStatusPartial, InvoiceStatusOverdue:
		return true
	}
	return false
}

// IsRent reports whether the invoice is a rent obligation, covering both
// the system-generated monthly_rent type and the legacy rent type.
func (i *Invoice) IsRent() bool {
	return i.Type == InvoiceTypeMonthlyRent || i.Type == InvoiceTypeRent
}
