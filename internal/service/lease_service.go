package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leasehub/lease-engine/internal/config"
	"github.com/leasehub/lease-engine/internal/domain"
	"github.com/leasehub/lease-engine/internal/notify"
	"github.com/leasehub/lease-engine/internal/repository"
	customError "github.com/leasehub/lease-engine/pkg/errors"
)

// LeaseService is the single owner of Application, Property and Tenant
// status transitions. Every trigger path (admin decision, payment
// reconciliation, tenant cancellation, scheduled expiry) goes through it,
// so the same transition can never be re-implemented slightly differently
// at two call sites.
type LeaseService struct {
	tx       repository.TxRunner
	repos    repository.Repos
	notifier notify.Notifier
	config   *config.Config
}

func NewLeaseService(store *repository.Store, notifier notify.Notifier, cfg *config.Config) *LeaseService {
	return &LeaseService{
		tx:       store,
		repos:    store.Repos,
		notifier: notifier,
		config:   cfg,
	}
}

// Submit records a new pending application.
func (s *LeaseService) Submit(ctx context.Context, request *domain.SubmitApplicationRequest) (*domain.Application, error) {
	property, err := s.repos.Properties.GetByID(ctx, request.PropertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("property", request.PropertyID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if property.Status != domain.PropertyStatusAvailable {
		return nil, customError.WrapInvalidState("property is not available for applications")
	}

	now := time.Now()
	app := &domain.Application{
		ID:              uuid.New(),
		ApplicantName:   request.ApplicantName,
		ApplicantEmail:  strings.ToLower(request.ApplicantEmail),
		Phone:           request.Phone,
		MonthlyIncome:   request.MonthlyIncome,
		Occupation:      request.Occupation,
		Occupants:       request.Occupants,
		LeaseDuration:   request.LeaseDuration,
		PreferredMoveIn: request.PreferredMoveIn,
		PropertyID:      request.PropertyID,
		Status:          domain.ApplicationStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repos.Applications.Create(ctx, app); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return app, nil
}

// Decide applies an admin approve/reject decision to a pending
// application. Approval creates the tenant account when none exists for
// the applicant email, issues the booking deposit invoice, rejects other
// pending applications on the property and cancels the applicant's other
// pending applications elsewhere.
func (s *LeaseService) Decide(ctx context.Context, applicationID uuid.UUID, decision, comments string, actor domain.Actor) (*domain.Application, error) {
	app, err := s.repos.Applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("application", applicationID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if app.Status != domain.ApplicationStatusPending {
		return nil, customError.WrapInvalidState("application has already been processed")
	}

	property, err := s.repos.Properties.GetByID(ctx, app.PropertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapDataIntegrity("application references a missing property")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	switch decision {
	case domain.DecisionApprove:
		return s.approve(ctx, app, property, comments, actor)
	case domain.DecisionReject:
		return s.reject(ctx, app, comments, actor)
	default:
		return nil, customError.WrapInvalidState("decision must be approve or reject")
	}
}

func (s *LeaseService) approve(ctx context.Context, app *domain.Application, property *domain.Property, comments string, actor domain.Actor) (*domain.Application, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.GetDepositWindow())

	if comments == "" {
		comments = fmt.Sprintf("Your application has been approved! Please pay the booking deposit within %d hours to reserve the property.",
			s.config.Business.DepositWindowHours)
	}

	var (
		tenant  *domain.Tenant
		invoice *domain.Invoice
	)

	err := s.tx.WithTx(ctx, func(r repository.Repos) error {
		var err error
		tenant, err = s.ensureTenant(ctx, r, app, now)
		if err != nil {
			return err
		}

		app.Status = domain.ApplicationStatusApproved
		app.TenantID = &tenant.ID
		app.AdminComments = comments
		app.ApprovedBy = actor.ID
		app.ApprovedAt = &now
		app.ExpiresAt = &expiresAt
		if err := r.Applications.Update(ctx, app); err != nil {
			return customError.WrapDatabaseError(err)
		}

		invoice, err = createDepositInvoice(ctx, r, s.config, tenant.ID, property, now)
		if err != nil {
			return err
		}

		if _, err := r.Applications.RejectPendingForProperty(ctx, app.PropertyID, app.ID,
			"Property has been assigned to another applicant"); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if _, err := r.Applications.CancelPendingByEmail(ctx, app.ApplicantEmail, app.ID,
			"Automatically cancelled - applicant approved for another property"); err != nil {
			return customError.WrapDatabaseError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.repos.Audit, actor, "approve_application", "Application", app.ID, map[string]change{
		"status":    {Before: domain.ApplicationStatusPending, After: domain.ApplicationStatusApproved},
		"tenantId":  {After: tenant.ID},
		"expiresAt": {After: expiresAt},
	})

	s.send(ctx, notify.Event{
		Template:     notify.TemplateBookingDepositRequired,
		TenantID:     tenant.ID,
		TenantEmail:  tenant.Email,
		TenantName:   tenant.FirstName + " " + tenant.LastName,
		PropertyID:   property.ID,
		PropertyName: property.Name,
		InvoiceID:    invoice.ID,
		Amount:       invoice.TotalAmount,
		DueDate:      &invoice.DueDate,
		ExpiresAt:    &expiresAt,
	})

	return app, nil
}

func (s *LeaseService) reject(ctx context.Context, app *domain.Application, comments string, actor domain.Actor) (*domain.Application, error) {
	now := time.Now()
	if comments == "" {
		comments = "Application did not meet requirements"
	}

	app.Status = domain.ApplicationStatusRejected
	app.AdminComments = comments
	app.ReviewedBy = actor.ID
	app.ReviewedAt = &now
	if err := s.repos.Applications.Update(ctx, app); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	recordAudit(ctx, s.repos.Audit, actor, "reject_application", "Application", app.ID, map[string]change{
		"status": {Before: domain.ApplicationStatusPending, After: domain.ApplicationStatusRejected},
	})

	return app, nil
}

// ensureTenant finds the tenant account for the applicant email, creating
// one with a generated tenant code when none exists.
func (s *LeaseService) ensureTenant(ctx context.Context, r repository.Repos, app *domain.Application, now time.Time) (*domain.Tenant, error) {
	tenant, err := r.Tenants.GetByEmail(ctx, app.ApplicantEmail)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	count, err := r.Tenants.Count(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	firstName := app.ApplicantName
	lastName := firstName
	if parts := strings.Fields(app.ApplicantName); len(parts) > 1 {
		firstName = parts[0]
		lastName = strings.Join(parts[1:], " ")
	}

	tenant = &domain.Tenant{
		ID:         uuid.New(),
		TenantCode: fmt.Sprintf("TEN%05d", count+1),
		FirstName:  firstName,
		LastName:   lastName,
		Email:      app.ApplicantEmail,
		Phone:      app.Phone,
		Occupation: app.Occupation,
		Status:     domain.TenantStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := r.Tenants.Create(ctx, tenant); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return tenant, nil
}

// ConfirmBookingDeposit applies the deposit-confirmed transition in its
// own transaction. Payment reconciliation calls the transactional variant
// directly so the transition commits atomically with the payment.
func (s *LeaseService) ConfirmBookingDeposit(ctx context.Context, tenantID, propertyID uuid.UUID, actor domain.Actor) error {
	return s.tx.WithTx(ctx, func(r repository.Repos) error {
		return s.confirmBookingDepositTx(ctx, r, tenantID, propertyID, actor)
	})
}

// confirmBookingDepositTx promotes the approved application to reserved,
// marks the property reserved with the tenant linked, and links the
// tenant back to property and application. Every step is idempotent, so
// the webhook, the success-page fallback and the repair sweep can all
// invoke it for the same deposit.
func (s *LeaseService) confirmBookingDepositTx(ctx context.Context, r repository.Repos, tenantID, propertyID uuid.UUID, actor domain.Actor) error {
	app, err := r.Applications.FindForDeposit(ctx, tenantID, propertyID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return customError.WrapDatabaseError(err)
	}

	var applicationID *uuid.UUID
	if app != nil {
		applicationID = &app.ID
		if app.Status == domain.ApplicationStatusApproved {
			app.Status = domain.ApplicationStatusReserved
			if err := r.Applications.Update(ctx, app); err != nil {
				return customError.WrapDatabaseError(err)
			}
			recordAudit(ctx, r.Audit, actor, "reserve_application_after_deposit", "Application", app.ID, map[string]change{
				"status": {Before: domain.ApplicationStatusApproved, After: domain.ApplicationStatusReserved},
			})
		}
	}

	property, err := r.Properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapDataIntegrity("deposit invoice references a missing property")
		}
		return customError.WrapDatabaseError(err)
	}

	if property.Status != domain.PropertyStatusReserved || property.TenantID == nil || *property.TenantID != tenantID {
		if err := r.Properties.Assign(ctx, propertyID, domain.PropertyStatusReserved, &tenantID); err != nil {
			return customError.WrapDatabaseError(err)
		}
		recordAudit(ctx, r.Audit, actor, "assign_property_after_deposit", "Property", propertyID, map[string]change{
			"status":   {Before: property.Status, After: domain.PropertyStatusReserved},
			"tenantId": {Before: property.TenantID, After: tenantID},
		})
	}

	if err := r.Tenants.Link(ctx, tenantID, &propertyID, applicationID); err != nil {
		return customError.WrapDatabaseError(err)
	}

	return nil
}

// CancelApplication cancels a pending or approved application. Tenants
// cannot cancel once a booking deposit payment has been approved or the
// property is occupied; admins cannot cancel after occupancy either.
func (s *LeaseService) CancelApplication(ctx context.Context, applicationID uuid.UUID, comments string, actor domain.Actor) error {
	app, err := s.repos.Applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapNotFound("application", applicationID.String())
		}
		return customError.WrapDatabaseError(err)
	}

	switch {
	case app.IsOpen():
	case app.Status == domain.ApplicationStatusReserved && actor.Type == domain.ActorTypeAdmin:
		// Admins can unwind a reserved lease before move-in.
	default:
		return customError.WrapInvalidState("only pending or approved applications can be cancelled")
	}

	property, err := s.repos.Properties.GetByID(ctx, app.PropertyID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return customError.WrapDatabaseError(err)
	}

	if property != nil && property.Status == domain.PropertyStatusOccupied {
		return customError.WrapInvalidState("cannot cancel an application after the tenant has moved in")
	}

	if actor.Type == domain.ActorTypeTenant && app.TenantID != nil {
		depositPaid, err := s.repos.Payments.ExistsApprovedDeposit(ctx, *app.TenantID, app.PropertyID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if depositPaid {
			return customError.WrapCancellationLocked(
				"the booking deposit has been paid; contact the property admin to cancel this application")
		}
	}

	if comments == "" {
		comments = "Cancelled by tenant"
		if actor.Type == domain.ActorTypeAdmin {
			comments = "Cancelled by admin"
		}
	}

	beforeStatus := app.Status

	err = s.tx.WithTx(ctx, func(r repository.Repos) error {
		app.Status = domain.ApplicationStatusCancelled
		app.AdminComments = comments
		if err := r.Applications.Update(ctx, app); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if property != nil {
			releasedFor := uuid.Nil
			if app.TenantID != nil {
				releasedFor = *app.TenantID
			}
			if err := r.Properties.Release(ctx, property.ID, releasedFor); err != nil {
				return customError.WrapDatabaseError(err)
			}
			if app.TenantID != nil {
				if err := r.Tenants.Detach(ctx, *app.TenantID, property.ID); err != nil {
					return customError.WrapDatabaseError(err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, s.repos.Audit, actor, "cancel_application", "Application", app.ID, map[string]change{
		"status": {Before: beforeStatus, After: domain.ApplicationStatusCancelled},
	})

	if actor.Type == domain.ActorTypeAdmin && app.TenantID != nil {
		if tenant, err := s.repos.Tenants.GetByID(ctx, *app.TenantID); err == nil {
			event := notify.Event{
				Template:    notify.TemplateApplicationCancelled,
				TenantID:    tenant.ID,
				TenantEmail: tenant.Email,
				TenantName:  tenant.FirstName + " " + tenant.LastName,
				PropertyID:  app.PropertyID,
			}
			if property != nil {
				event.PropertyName = property.Name
			}
			s.send(ctx, event)
		}
	}

	return nil
}

// ExpireApplications expires open applications whose deposit deadline or
// move-in date has passed without a qualifying payment, releasing their
// properties. Returns the number of applications expired. Per-item
// failures are logged and skipped so one bad record cannot stall the
// sweep.
func (s *LeaseService) ExpireApplications(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.repos.Applications.ListExpiryCandidates(ctx, now)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	expired := 0
	for _, app := range candidates {
		paid, err := s.hasQualifyingPayment(ctx, app)
		if err != nil {
			log.Printf("expiry sweep: payment check failed for application %s: %v", app.ID, err)
			continue
		}
		if paid {
			continue
		}

		if err := s.expireOne(ctx, app); err != nil {
			log.Printf("expiry sweep: failed to expire application %s: %v", app.ID, err)
			continue
		}
		expired++
	}

	return expired, nil
}

func (s *LeaseService) expireOne(ctx context.Context, app *domain.Application) error {
	beforeStatus := app.Status

	err := s.tx.WithTx(ctx, func(r repository.Repos) error {
		app.Status = domain.ApplicationStatusExpired
		if err := r.Applications.Update(ctx, app); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if app.TenantID != nil {
			if err := r.Properties.Release(ctx, app.PropertyID, *app.TenantID); err != nil {
				return customError.WrapDatabaseError(err)
			}
			if err := r.Tenants.Detach(ctx, *app.TenantID, app.PropertyID); err != nil {
				return customError.WrapDatabaseError(err)
			}
		} else {
			if err := r.Properties.Release(ctx, app.PropertyID, uuid.Nil); err != nil {
				return customError.WrapDatabaseError(err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, s.repos.Audit, domain.SystemActor(), "auto_expire_application", "Application", app.ID, map[string]change{
		"status": {Before: beforeStatus, After: domain.ApplicationStatusExpired},
		"reason": {After: "payment deadline missed"},
	})

	if app.TenantID != nil {
		if tenant, err := s.repos.Tenants.GetByID(ctx, *app.TenantID); err == nil {
			s.send(ctx, notify.Event{
				Template:    notify.TemplateBookingDepositExpired,
				TenantID:    tenant.ID,
				TenantEmail: tenant.Email,
				TenantName:  tenant.FirstName + " " + tenant.LastName,
				PropertyID:  app.PropertyID,
			})
		}
	}

	return nil
}

// SendExpiryWarnings warns applicants whose deposit deadline falls within
// the warning window and who have not paid yet. Each application is
// warned at most once.
func (s *LeaseService) SendExpiryWarnings(ctx context.Context, now time.Time) (int, error) {
	until := now.Add(s.config.GetExpiryWarningWindow())
	candidates, err := s.repos.Applications.ListExpiringBetween(ctx, now, until)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	warned := 0
	for _, app := range candidates {
		paid, err := s.hasQualifyingPayment(ctx, app)
		if err != nil {
			log.Printf("expiry warnings: payment check failed for application %s: %v", app.ID, err)
			continue
		}
		if paid || app.TenantID == nil {
			continue
		}

		tenant, err := s.repos.Tenants.GetByID(ctx, *app.TenantID)
		if err != nil {
			log.Printf("expiry warnings: tenant %s missing for application %s", *app.TenantID, app.ID)
			continue
		}

		// Mark the application warned only once the warning actually went
		// out, so a delivery failure is retried on the next sweep.
		if err := s.notifier.Send(ctx, notify.Event{
			Template:    notify.TemplateBookingDepositExpiring,
			TenantID:    tenant.ID,
			TenantEmail: tenant.Email,
			TenantName:  tenant.FirstName + " " + tenant.LastName,
			PropertyID:  app.PropertyID,
			ExpiresAt:   app.ExpiresAt,
		}); err != nil {
			log.Printf("expiry warnings: failed to notify application %s: %v", app.ID, err)
			continue
		}

		warnedAt := now
		app.ExpiryWarnedAt = &warnedAt
		if err := s.repos.Applications.Update(ctx, app); err != nil {
			log.Printf("expiry warnings: failed to mark application %s warned: %v", app.ID, err)
			continue
		}
		warned++
	}

	return warned, nil
}

// hasQualifyingPayment reports whether the applicant has already paid for
// the property. Deliberately strict: a paid booking deposit invoice, an
// approved payment with the booking_deposit purpose, or a paid first rent
// invoice each qualify.
func (s *LeaseService) hasQualifyingPayment(ctx context.Context, app *domain.Application) (bool, error) {
	if app.TenantID == nil {
		return false, nil
	}
	tenantID := *app.TenantID

	depositPaid, err := s.repos.Invoices.ExistsPaid(ctx, tenantID, app.PropertyID, domain.InvoiceTypeBookingDeposit)
	if err != nil {
		return false, err
	}
	if depositPaid {
		return true, nil
	}

	depositPayment, err := s.repos.Payments.ExistsApprovedDeposit(ctx, tenantID, app.PropertyID)
	if err != nil {
		return false, err
	}
	if depositPayment {
		return true, nil
	}

	return s.repos.Invoices.ExistsPaid(ctx, tenantID, app.PropertyID, domain.InvoiceTypeMonthlyRent, domain.InvoiceTypeRent)
}

// RepairLeaseState re-applies the deposit-confirmed transition for every
// paid booking deposit invoice and backfills missing first rent invoices.
// Safe to run repeatedly.
func (s *LeaseService) RepairLeaseState(ctx context.Context, now time.Time) (int, error) {
	deposits, err := s.repos.Invoices.ListPaidDeposits(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	repaired := 0
	for _, invoice := range deposits {
		property, err := s.repos.Properties.GetByID(ctx, invoice.PropertyID)
		if err != nil {
			log.Printf("lease repair: property %s missing for deposit invoice %s", invoice.PropertyID, invoice.ID)
			continue
		}

		err = s.tx.WithTx(ctx, func(r repository.Repos) error {
			if err := s.confirmBookingDepositTx(ctx, r, invoice.TenantID, invoice.PropertyID, domain.SystemActor()); err != nil {
				return err
			}

			if _, err := ensureFirstRentInvoice(ctx, r, s.config, invoice.TenantID, property, now); err != nil {
				if customError.IsDuplicateOperation(err) {
					return nil
				}
				return err
			}
			return nil
		})
		if err != nil {
			log.Printf("lease repair: failed for deposit invoice %s: %v", invoice.ID, err)
			continue
		}
		repaired++
	}

	return repaired, nil
}

// send delivers a notification event. Delivery failures are logged and
// never propagate into the calling transition.
func (s *LeaseService) send(ctx context.Context, event notify.Event) {
	if err := s.notifier.Send(ctx, event); err != nil {
		log.Printf("notification %s for tenant %s failed: %v", event.Template, event.TenantID, err)
	}
}
