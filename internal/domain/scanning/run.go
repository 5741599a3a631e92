package scanning

import (
	"time"

	"github.com/google/uuid"
)

// Run is one invocation of a scan suite against a verified target, tracked
// through its status lifecycle. Status mutations go through the transition
// methods so the lifecycle rules in RunStatus are always enforced.
type Run struct {
	ID          uuid.UUID      `json:"id"`
	ProjectID   uuid.UUID      `json:"project_id"`
	TargetID    uuid.UUID      `json:"target_id"`
	SuiteID     string         `json:"suite_id"`
	Status      RunStatus      `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedBy   string         `json:"created_by"`
	Config      map[string]any `json:"config,omitempty"`
	SafeMode    bool           `json:"safe_mode"`
	RateLimit   float64        `json:"rate_limit"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Start transitions the run to running and stamps the start time.
func (r *Run) Start(now time.Time) error {
	if err := r.Status.ValidateTransition(RunStatusRunning); err != nil {
		return err
	}
	r.Status = RunStatusRunning
	r.StartedAt = &now
	return nil
}

// Complete transitions the run to completed and stamps the completion time.
func (r *Run) Complete(now time.Time) error {
	if err := r.Status.ValidateTransition(RunStatusCompleted); err != nil {
		return err
	}
	r.Status = RunStatusCompleted
	r.CompletedAt = &now
	return nil
}

// Fail transitions the run to failed, recording the failure reason.
func (r *Run) Fail(now time.Time, reason string) error {
	if err := r.Status.ValidateTransition(RunStatusFailed); err != nil {
		return err
	}
	r.Status = RunStatusFailed
	r.Error = reason
	r.CompletedAt = &now
	return nil
}

// Cancel transitions the run to cancelled. Valid from queued or running.
func (r *Run) Cancel(now time.Time) error {
	if err := r.Status.ValidateTransition(RunStatusCancelled); err != nil {
		return err
	}
	r.Status = RunStatusCancelled
	r.CompletedAt = &now
	return nil
}

// LogEntry is a single timestamped line in a run's execution log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}
