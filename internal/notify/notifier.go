package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notification templates. The sink renders and delivers them; this core
// only names the template and supplies the structured payload.
const (
	TemplateFriendly               = "friendly"
	TemplateDueToday               = "due_today"
	TemplateOverdue1               = "overdue_1"
	TemplateWarning7               = "warning_7"
	TemplateAlert15                = "alert_15"
	TemplateDefault30              = "default_30"
	TemplateBookingDepositRequired = "booking_deposit_required"
	TemplateBookingDepositExpiring = "booking_deposit_expiring"
	TemplateBookingDepositExpired  = "booking_deposit_expired"
	TemplateApplicationCancelled   = "application_cancelled_by_admin"
)

// Event is one templated notification destined for a tenant or admin.
type Event struct {
	Template     string          `json:"template"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	TenantEmail  string          `json:"tenant_email,omitempty"`
	TenantName   string          `json:"tenant_name,omitempty"`
	PropertyID   uuid.UUID       `json:"property_id,omitempty"`
	PropertyName string          `json:"property_name,omitempty"`
	InvoiceID    uuid.UUID       `json:"invoice_id,omitempty"`
	Amount       decimal.Decimal `json:"amount,omitempty"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	DaysLate     int             `json:"days_late,omitempty"`
}

// Notifier delivers notification events to the sink. Delivery is
// best-effort with respect to the billing transaction: callers log
// failures and continue.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}
