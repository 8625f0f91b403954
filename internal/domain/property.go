package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PropertyStatusAvailable   = "available"
	PropertyStatusReserved    = "reserved"
	PropertyStatusOccupied    = "occupied"
	PropertyStatusMaintenance = "maintenance"
)

// Property is a rentable unit.
type Property struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Address        string          `json:"address" db:"address"`
	PropertyType   string          `json:"property_type" db:"property_type"`
	Rent           decimal.Decimal `json:"rent" db:"rent"`
	MaintenanceFee decimal.Decimal `json:"maintenance_fee" db:"maintenance_fee"`
	Deposit        decimal.Decimal `json:"deposit" db:"deposit"`
	BookingDeposit decimal.Decimal `json:"booking_deposit" db:"booking_deposit"`
	TenantID       *uuid.UUID      `json:"tenant_id,omitempty" db:"tenant_id"`
	Status         string          `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

const (
	TenantStatusActive    = "active"
	TenantStatusInactive  = "inactive"
	TenantStatusSuspended = "suspended"
)

// Tenant is an onboarded occupant account, created automatically when an
// application is approved and no account exists for the applicant email.
type Tenant struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	TenantCode    string     `json:"tenant_code" db:"tenant_code"`
	FirstName     string     `json:"first_name" db:"first_name"`
	LastName      string     `json:"last_name" db:"last_name"`
	Email         string     `json:"email" db:"email"`
	Phone         string     `json:"phone" db:"phone"`
	Occupation    string     `json:"occupation" db:"occupation"`
	Status        string     `json:"status" db:"status"`
	PropertyID    *uuid.UUID `json:"property_id,omitempty" db:"property_id"`
	ApplicationID *uuid.UUID `json:"application_id,omitempty" db:"application_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
