package scanning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatusValidateTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    RunStatus
		to      RunStatus
		wantErr bool
	}{
		{name: "queued to running", from: RunStatusQueued, to: RunStatusRunning, wantErr: false},
		{name: "queued to cancelled", from: RunStatusQueued, to: RunStatusCancelled, wantErr: false},
		{name: "queued to failed", from: RunStatusQueued, to: RunStatusFailed, wantErr: false},
		{name: "queued to completed skips running", from: RunStatusQueued, to: RunStatusCompleted, wantErr: true},
		{name: "running to completed", from: RunStatusRunning, to: RunStatusCompleted, wantErr: false},
		{name: "running to failed", from: RunStatusRunning, to: RunStatusFailed, wantErr: false},
		{name: "running to cancelled", from: RunStatusRunning, to: RunStatusCancelled, wantErr: false},
		{name: "running to queued", from: RunStatusRunning, to: RunStatusQueued, wantErr: true},
		{name: "completed is terminal", from: RunStatusCompleted, to: RunStatusRunning, wantErr: true},
		{name: "failed is terminal", from: RunStatusFailed, to: RunStatusRunning, wantErr: true},
		{name: "cancelled cannot be completed", from: RunStatusCancelled, to: RunStatusCompleted, wantErr: true},
		{name: "cancelled cannot be failed", from: RunStatusCancelled, to: RunStatusFailed, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.from.ValidateTransition(tt.to)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseRunStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RunStatusQueued, ParseRunStatus("queued"))
	assert.Equal(t, RunStatusCancelled, ParseRunStatus("cancelled"))
	assert.Equal(t, RunStatus(""), ParseRunStatus("bogus"))
}

func TestRunStatusIsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, RunStatusQueued.IsTerminal())
	assert.False(t, RunStatusRunning.IsTerminal())
	assert.True(t, RunStatusCompleted.IsTerminal())
	assert.True(t, RunStatusFailed.IsTerminal())
	assert.True(t, RunStatusCancelled.IsTerminal())
}
