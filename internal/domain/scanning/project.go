package scanning

import (
	"time"

	"github.com/google/uuid"
)

// Project groups targets under an org.
type Project struct {
	ID          uuid.UUID `json:"id"`
	OrgID       uuid.UUID `json:"org_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// VerificationStatus tracks whether ownership of a target has been proven.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
)

// Target is a scannable endpoint. Runs may only be created against targets
// in the verified state.
type Target struct {
	ID                 uuid.UUID          `json:"id"`
	ProjectID          uuid.UUID          `json:"project_id"`
	Name               string             `json:"name"`
	Type               string             `json:"type"`
	Scope              map[string]string  `json:"scope,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	VerificationMethod string             `json:"verification_method,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// Verified reports whether the target may be scanned.
func (t Target) Verified() bool { return t.VerificationStatus == VerificationVerified }
