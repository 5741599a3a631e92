package scanning

import "fmt"

// RunStatus represents the current state of a scan run. It enables tracking
// of the run lifecycle from submission through completion, failure or
// cancellation.
type RunStatus string

const (
	// RunStatusQueued indicates a run has been accepted but not yet started.
	RunStatusQueued RunStatus = "queued"

	// RunStatusRunning indicates a worker is actively executing the run.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted indicates the run finished successfully.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed indicates the run encountered an unrecoverable error.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCancelled indicates the run was cancelled by the caller.
	RunStatusCancelled RunStatus = "cancelled"
)

func (s RunStatus) String() string { return string(s) }

// ParseRunStatus converts a string to a RunStatus. Unknown values yield the
// empty status.
func ParseRunStatus(s string) RunStatus {
	switch RunStatus(s) {
	case RunStatusQueued, RunStatusRunning, RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return RunStatus(s)
	default:
		return ""
	}
}

// IsTerminal reports whether the status is a terminal state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// ValidateTransition checks if a status transition is valid and returns an
// error if not.
func (s RunStatus) ValidateTransition(target RunStatus) error {
	if !s.isValidTransition(target) {
		return fmt.Errorf("invalid run status transition from %s to %s", s, target)
	}
	return nil
}

// isValidTransition enforces the run lifecycle rules. Cancellation wins over
// any in-flight worker: once a run is cancelled no transition out is legal,
// so a late worker cannot overwrite it to completed.
func (s RunStatus) isValidTransition(target RunStatus) bool {
	switch s {
	case RunStatusQueued:
		return target == RunStatusRunning || target == RunStatusCancelled || target == RunStatusFailed
	case RunStatusRunning:
		return target == RunStatusCompleted || target == RunStatusFailed || target == RunStatusCancelled
	default:
		// Terminal states have no outgoing transitions.
		return false
	}
}
