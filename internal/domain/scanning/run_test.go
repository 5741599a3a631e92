package scanning

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueuedRun() *Run {
	return &Run{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		TargetID:  uuid.New(),
		SuiteID:   "baseline",
		Status:    RunStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRunLifecycleHappyPath(t *testing.T) {
	t.Parallel()

	run := newQueuedRun()
	now := time.Now().UTC()

	require.NoError(t, run.Start(now))
	assert.Equal(t, RunStatusRunning, run.Status)
	require.NotNil(t, run.StartedAt)

	require.NoError(t, run.Complete(now.Add(time.Second)))
	assert.Equal(t, RunStatusCompleted, run.Status)
	require.NotNil(t, run.CompletedAt)
}

func TestRunFailRecordsReason(t *testing.T) {
	t.Parallel()

	run := newQueuedRun()
	now := time.Now().UTC()

	require.NoError(t, run.Start(now))
	require.NoError(t, run.Fail(now, "adapter exploded"))

	assert.Equal(t, RunStatusFailed, run.Status)
	assert.Equal(t, "adapter exploded", run.Error)
	require.NotNil(t, run.CompletedAt)
}

func TestCancelledRunCannotComplete(t *testing.T) {
	t.Parallel()

	run := newQueuedRun()
	now := time.Now().UTC()

	require.NoError(t, run.Start(now))
	require.NoError(t, run.Cancel(now))

	// A late worker completion must not overwrite the cancellation.
	assert.Error(t, run.Complete(now.Add(time.Second)))
	assert.Equal(t, RunStatusCancelled, run.Status)
}

func TestJobDescriptorConfigAccessors(t *testing.T) {
	t.Parallel()

	job := JobDescriptor{
		Config: map[string]any{
			"target_url": "https://app.example.com",
			"scan_type":  "zap-baseline",
		},
	}

	assert.Equal(t, "https://app.example.com", job.TargetURL())
	assert.Equal(t, "zap-baseline", job.ScanType())

	empty := JobDescriptor{}
	assert.Empty(t, empty.TargetURL())
	assert.Empty(t, empty.ScanType())
}

func TestNewScanResultSummary(t *testing.T) {
	t.Parallel()

	result := NewScanResult("passive-baseline", []FindingRecord{
		{Severity: SeverityLow, Type: "x", Location: "y"},
	})

	assert.Equal(t, "passive-baseline", result.Adapter)
	assert.Equal(t, 1, result.Summary["total_findings"])
	assert.Len(t, result.Findings, 1)
}
