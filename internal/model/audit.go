package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records who touched which health record. Caretaker access to
// patient data always leaves a trail.
type AuditLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ActorID    uuid.UUID       `db:"actor_id" json:"actor_id"`
	ActorRole  Role            `db:"actor_role" json:"actor_role"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   uuid.UUID       `db:"entity_id" json:"entity_id"`
	Changes    json.RawMessage `db:"changes" json:"changes,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
