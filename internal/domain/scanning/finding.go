package scanning

import (
	"time"

	"github.com/google/uuid"
)

// FindingStatusOpen is the initial status of every persisted finding. The
// status is otherwise free-form and caller-set via the API.
const FindingStatusOpen = "open"

// Finding is a single reported issue produced by a scan adapter.
type Finding struct {
	ID        uuid.UUID `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Severity  Severity  `json:"severity"`
	Type      string    `json:"type"`
	Location  string    `json:"location"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
