package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/leasehub/lease-engine/internal/domain"
)

type tenantRepository struct {
	ext sqlx.ExtContext
}

func NewTenantRepository(db *sqlx.DB) TenantRepository {
	return &tenantRepository{ext: db}
}

const tenantColumns = `
	id, tenant_code, first_name, last_name, email, phone, occupation,
	status, property_id, application_id, created_at, updated_at
`

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, tenant_code, first_name, last_name, email, phone,
			occupation, status, property_id, application_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.ext.ExecContext(ctx, query,
		tenant.ID,
		tenant.TenantCode,
		tenant.FirstName,
		tenant.LastName,
		tenant.Email,
		tenant.Phone,
		tenant.Occupation,
		tenant.Status,
		tenant.PropertyID,
		tenant.ApplicationID,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)

	return err
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	var tenant domain.Tenant
	if err := sqlx.GetContext(ctx, r.ext, &tenant, query, id); err != nil {
		return nil, err
	}

	return &tenant, nil
}

func (r *tenantRepository) GetByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE lower(email) = lower($1)`

	var tenant domain.Tenant
	if err := sqlx.GetContext(ctx, r.ext, &tenant, query, email); err != nil {
		return nil, err
	}

	return &tenant, nil
}

func (r *tenantRepository) Link(ctx context.Context, tenantID uuid.UUID, propertyID, applicationID *uuid.UUID) error {
	query := `
		UPDATE tenants
		SET property_id = $2,
			application_id = COALESCE($3, application_id),
			updated_at = $4
		WHERE id = $1
	`

	_, err := r.ext.ExecContext(ctx, query, tenantID, propertyID, applicationID, time.Now())
	return err
}

func (r *tenantRepository) Detach(ctx context.Context, tenantID, propertyID uuid.UUID) error {
	query := `
		UPDATE tenants
		SET property_id = NULL, updated_at = $3
		WHERE id = $1 AND property_id = $2
	`

	_, err := r.ext.ExecContext(ctx, query, tenantID, propertyID, time.Now())
	return err
}

func (r *tenantRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := sqlx.GetContext(ctx, r.ext, &count, `SELECT COUNT(*) FROM tenants`); err != nil {
		return 0, err
	}

	return count, nil
}
