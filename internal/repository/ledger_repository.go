package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/leasehub/lease-engine/internal/domain"
)

type ledgerRepository struct {
	ext sqlx.ExtContext
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &ledgerRepository{ext: db}
}

func (r *ledgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, tenant_id, type, amount, description,
			reference_type, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.ext.ExecContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.Type,
		entry.Amount,
		entry.Description,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.CreatedAt,
	)

	return err
}

func (r *ledgerRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT id, tenant_id, type, amount, description, reference_type, reference_id, created_at
		FROM ledger_entries
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	var entries []*domain.LedgerEntry
	if err := sqlx.SelectContext(ctx, r.ext, &entries, query, tenantID); err != nil {
		return nil, err
	}

	return entries, nil
}
