package scanning

import (
	"time"

	"github.com/google/uuid"
)

// Org is the tenant owning projects, targets and runs. The service hosts a
// single seeded org per process.
type Org struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// User belongs to an org. Users are created via the API and never deleted.
type User struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage tracks the org's run consumption against its plan quota.
type Usage struct {
	RunsUsed int `json:"runs_used"`
	MaxRuns  int `json:"max_runs"`
}

// Exhausted reports whether the quota leaves no room for another run.
func (u Usage) Exhausted() bool { return u.RunsUsed >= u.MaxRuns }
