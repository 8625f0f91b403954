package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActorTypeAdmin  = "admin"
	ActorTypeTenant = "tenant"
	ActorTypeSystem = "system"
)

// Actor identifies who triggered a state-changing operation, for audit
// attribution. Scheduled jobs use SystemActor.
type Actor struct {
	ID   *uuid.UUID
	Type string
}

// SystemActor is the actor recorded for scheduler-driven transitions.
func SystemActor() Actor {
	return Actor{Type: ActorTypeSystem}
}

// AuditLog records one state-changing operation with its before/after
// state. Every lease transition emits one.
type AuditLog struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty" db:"actor_id"`
	ActorType string     `json:"actor_type" db:"actor_type"`
	Action    string     `json:"action" db:"action"`
	Entity    string     `json:"entity" db:"entity"`
	EntityID  uuid.UUID  `json:"entity_id" db:"entity_id"`
	Changes   []byte     `json:"changes" db:"changes"` // JSON before/after document
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
