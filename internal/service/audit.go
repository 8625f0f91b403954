package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/leasehub/lease-engine/internal/domain"
	"github.com/leasehub/lease-engine/internal/repository"
)

// change captures a single field's before/after values for the audit trail.
type change struct {
	Before interface{} `json:"before,omitempty"`
	After  interface{} `json:"after,omitempty"`
}

// recordAudit writes an audit log entry. Audit logging must never break
// the main flow, so failures are logged and swallowed.
func recordAudit(ctx context.Context, audit repository.AuditRepository, actor domain.Actor, action, entity string, entityID uuid.UUID, changes map[string]change) {
	payload, err := json.Marshal(changes)
	if err != nil {
		log.Printf("audit marshal error for %s %s: %v", action, entityID, err)
		return
	}

	entry := &domain.AuditLog{
		ID:        uuid.New(),
		ActorID:   actor.ID,
		ActorType: actor.Type,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Changes:   payload,
		CreatedAt: time.Now(),
	}

	if err := audit.Record(ctx, entry); err != nil {
		log.Printf("audit log error for %s %s: %v", action, entityID, err)
	}
}
