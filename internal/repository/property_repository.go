package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/leasehub/lease-engine/internal/domain"
)

type propertyRepository struct {
	ext sqlx.ExtContext
}

func NewPropertyRepository(db *sqlx.DB) PropertyRepository {
	return &propertyRepository{ext: db}
}

const propertyColumns = `
	id, name, address, property_type, rent, maintenance_fee, deposit,
	booking_deposit, tenant_id, status, created_at, updated_at
`

func (r *propertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`

	var property domain.Property
	if err := sqlx.GetContext(ctx, r.ext, &property, query, id); err != nil {
		return nil, err
	}

	return &property, nil
}

func (r *propertyRepository) Create(ctx context.Context, property *domain.Property) error {
	query := `
		INSERT INTO properties (id, name, address, property_type, rent, maintenance_fee,
			deposit, booking_deposit, tenant_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.ext.ExecContext(ctx, query,
		property.ID,
		property.Name,
		property.Address,
		property.PropertyType,
		property.Rent,
		property.MaintenanceFee,
		property.Deposit,
		property.BookingDeposit,
		property.TenantID,
		property.Status,
		property.CreatedAt,
		property.UpdatedAt,
	)

	return err
}

func (r *propertyRepository) Assign(ctx context.Context, propertyID uuid.UUID, status string, tenantID *uuid.UUID) error {
	query := `
		UPDATE properties
		SET status = $2, tenant_id = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.ext.ExecContext(ctx, query, propertyID, status, tenantID, time.Now())
	return err
}

func (r *propertyRepository) Release(ctx context.Context, propertyID, tenantID uuid.UUID) error {
	// Clear the tenant linkage only when it still points at the tenant
	// whose application is being released.
	query := `
		UPDATE properties
		SET status = 'available',
			tenant_id = CASE WHEN tenant_id = $2 THEN NULL ELSE tenant_id END,
			updated_at = $3
		WHERE id = $1
	`

	_, err := r.ext.ExecContext(ctx, query, propertyID, tenantID, time.Now())
	return err
}

func (r *propertyRepository) ListOccupied(ctx context.Context) ([]*domain.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE status = 'occupied' AND tenant_id IS NOT NULL
		ORDER BY created_at
	`

	var properties []*domain.Property
	if err := sqlx.SelectContext(ctx, r.ext, &properties, query); err != nil {
		return nil, err
	}

	return properties, nil
}
