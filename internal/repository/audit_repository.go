package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/leasehub/lease-engine/internal/domain"
)

type auditRepository struct {
	ext sqlx.ExtContext
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{ext: db}
}

func (r *auditRepository) Record(ctx context.Context, entry *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, actor_id, actor_type, action, entity, entity_id, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.ext.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.ActorType,
		entry.Action,
		entry.Entity,
		entry.EntityID,
		entry.Changes,
		entry.CreatedAt,
	)

	return err
}
