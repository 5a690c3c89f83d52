package entity

import (
	"encoding/json"
	"time"
)

// AuditEntry transición registrada con actor y valores antes/después.
type AuditEntry struct {
	ID         string
	BusinessID string
	EntityType string
	EntityID   string
	Action     string
	ActorID    string
	Before     json.RawMessage
	After      json.RawMessage
	CreatedAt  time.Time
}
