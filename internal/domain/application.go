package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusApproved  = "approved"
	ApplicationStatusReserved  = "reserved"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusCancelled = "cancelled"
	ApplicationStatusExpired   = "expired"
	ApplicationStatusWithdrawn = "withdrawn"
)

// Application represents a prospective tenancy request for a property.
type Application struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ApplicantName   string     `json:"applicant_name" db:"applicant_name"`
	ApplicantEmail  string     `json:"applicant_email" db:"applicant_email"`
	Phone           string     `json:"phone" db:"phone"`
	MonthlyIncome   int64      `json:"monthly_income" db:"monthly_income"`
	Occupation      string     `json:"occupation" db:"occupation"`
	Occupants       int        `json:"occupants" db:"occupants"`
	LeaseDuration   int        `json:"lease_duration" db:"lease_duration"` // months
	PreferredMoveIn time.Time  `json:"preferred_move_in" db:"preferred_move_in"`
	PropertyID      uuid.UUID  `json:"property_id" db:"property_id"`
	TenantID        *uuid.UUID `json:"tenant_id,omitempty" db:"tenant_id"` // set on approval
	Status          string     `json:"status" db:"status"`
	AdminComments   string     `json:"admin_comments" db:"admin_comments"`
	ReviewedBy      *uuid.UUID `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ApprovedBy      *uuid.UUID `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty" db:"expires_at"` // booking deposit deadline
	ExpiryWarnedAt  *time.Time `json:"expiry_warned_at,omitempty" db:"expiry_warned_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the application can still be decided or cancelled.
func (a *Application) IsOpen() bool {
	return a.Status == ApplicationStatusPending || a.Status == ApplicationStatusApproved
}

// DTOs for requests

type SubmitApplicationRequest struct {
	ApplicantName   string    `json:"applicant_name" validate:"required"`
	ApplicantEmail  string    `json:"applicant_email" validate:"required,email"`
	Phone           string    `json:"phone" validate:"required"`
	MonthlyIncome   int64     `json:"monthly_income" validate:"required,gt=0"`
	Occupation      string    `json:"occupation" validate:"required"`
	Occupants       int       `json:"occupants" validate:"required,gt=0"`
	LeaseDuration   int       `json:"lease_duration" validate:"required,gt=0"`
	PreferredMoveIn time.Time `json:"preferred_move_in" validate:"required"`
	PropertyID      uuid.UUID `json:"property_id" validate:"required"`
}

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type ApplicationDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Comments string `json:"comments"`
}
