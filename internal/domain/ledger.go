package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LedgerEntryDebit  = "debit"
	LedgerEntryCredit = "credit"
)

const (
	LedgerReferenceInvoice    = "invoice"
	LedgerReferencePayment    = "payment"
	LedgerReferenceAdjustment = "adjustment"
	LedgerReferenceRefund     = "refund"
)

// LedgerEntry is an append-only audit-trail debit/credit record tied to a
// tenant. Entries are never mutated after creation.
type LedgerEntry struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Type          string          `json:"type" db:"type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Description   string          `json:"description" db:"description"`
	ReferenceType string          `json:"reference_type" db:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id" db:"reference_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
