package scanning

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent is one entry in the append-only audit log.
type AuditEvent struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
