package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/leasehub/lease-engine/internal/domain"
)

type applicationRepository struct {
	ext sqlx.ExtContext
}

func NewApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &applicationRepository{ext: db}
}

const applicationColumns = `
	id, applicant_name, applicant_email, phone, monthly_income, occupation,
	occupants, lease_duration, preferred_move_in, property_id, tenant_id,
	status, admin_comments, reviewed_by, reviewed_at, approved_by,
	approved_at, expires_at, expiry_warned_at, created_at, updated_at
`

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	query := `
		INSERT INTO applications (id, applicant_name, applicant_email, phone, monthly_income,
			occupation, occupants, lease_duration, preferred_move_in, property_id,
			status, admin_comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.ext.ExecContext(ctx, query,
		app.ID,
		app.ApplicantName,
		app.ApplicantEmail,
		app.Phone,
		app.MonthlyIncome,
		app.Occupation,
		app.Occupants,
		app.LeaseDuration,
		app.PreferredMoveIn,
		app.PropertyID,
		app.Status,
		app.AdminComments,
		app.CreatedAt,
		app.UpdatedAt,
	)

	return err
}

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	var app domain.Application
	if err := sqlx.GetContext(ctx, r.ext, &app, query, id); err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.Application) error {
	query := `
		UPDATE applications
		SET tenant_id = $2, status = $3, admin_comments = $4, reviewed_by = $5,
			reviewed_at = $6, approved_by = $7, approved_at = $8, expires_at = $9,
			expiry_warned_at = $10, updated_at = $11
		WHERE id = $1
	`

	_, err := r.ext.ExecContext(ctx, query,
		app.ID,
		app.TenantID,
		app.Status,
		app.AdminComments,
		app.ReviewedBy,
		app.ReviewedAt,
		app.ApprovedBy,
		app.ApprovedAt,
		app.ExpiresAt,
		app.ExpiryWarnedAt,
		time.Now(),
	)

	return err
}

func (r *applicationRepository) FindForDeposit(ctx context.Context, tenantID, propertyID uuid.UUID) (*domain.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE tenant_id = $1 AND property_id = $2 AND status IN ('approved', 'reserved')
		ORDER BY created_at DESC
		LIMIT 1
	`

	var app domain.Application
	if err := sqlx.GetContext(ctx, r.ext, &app, query, tenantID, propertyID); err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *applicationRepository) ListExpiryCandidates(ctx context.Context, now time.Time) ([]*domain.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE status IN ('pending', 'approved')
			AND (expires_at < $1 OR preferred_move_in < $1)
		ORDER BY created_at
	`

	var apps []*domain.Application
	if err := sqlx.SelectContext(ctx, r.ext, &apps, query, now); err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *applicationRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*domain.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE status IN ('pending', 'approved')
			AND expires_at >= $1 AND expires_at <= $2
			AND expiry_warned_at IS NULL
		ORDER BY expires_at
	`

	var apps []*domain.Application
	if err := sqlx.SelectContext(ctx, r.ext, &apps, query, from, to); err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *applicationRepository) RejectPendingForProperty(ctx context.Context, propertyID, exceptID uuid.UUID, comments string) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'rejected', admin_comments = $3, updated_at = $4
		WHERE property_id = $1 AND id <> $2 AND status = 'pending'
	`

	res, err := r.ext.ExecContext(ctx, query, propertyID, exceptID, comments, time.Now())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (r *applicationRepository) CancelPendingByEmail(ctx context.Context, email string, exceptID uuid.UUID, comments string) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'cancelled', admin_comments = $3, updated_at = $4
		WHERE applicant_email = $1 AND id <> $2 AND status = 'pending'
	`

	res, err := r.ext.ExecContext(ctx, query, email, exceptID, comments, time.Now())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
