package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

const (
	PaymentMethodCash         = "cash"
	PaymentMethodCheck        = "check"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCard         = "card"
	PaymentMethodGateway      = "gateway"
)

// Payment purposes. Purpose is structured so that reconciliation and the
// expiry sweep never have to match on free-text notes.
const (
	PaymentPurposeBookingDeposit = "booking_deposit"
	PaymentPurposeRent           = "rent"
)

// Payment is an executed payment event tied to one invoice. Approved
// payments are immutable facts used for idempotent reconciliation.
type Payment struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	TenantID       uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	PropertyID     *uuid.UUID      `json:"property_id,omitempty" db:"property_id"`
	InvoiceID      uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	AmountPaid     decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	PaymentDate    time.Time       `json:"payment_date" db:"payment_date"`
	PaymentMethod  string          `json:"payment_method" db:"payment_method"`
	Purpose        string          `json:"purpose" db:"purpose"`
	TransactionRef string          `json:"transaction_ref" db:"transaction_ref"`
	Status         string          `json:"status" db:"status"`
	Notes          string          `json:"notes" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// PaymentEvent is the "payment succeeded" input delivered by the gateway
// webhook or by the success-page poll after redirect. Both paths funnel
// into the same reconciliation function.
type PaymentEvent struct {
	InvoiceID      uuid.UUID       `json:"invoice_id" validate:"required"`
	TenantID       uuid.UUID       `json:"tenant_id" validate:"required"`
	Purpose        string          `json:"purpose" validate:"omitempty,oneof=booking_deposit rent"`
	AmountPaid     decimal.Decimal `json:"amount_paid" validate:"required"`
	TransactionRef string          `json:"transaction_ref"`
}
