package spool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriscan/veriscan/internal/domain/scanning"
	"github.com/veriscan/veriscan/internal/infra/storage"
)

func newTestSpool(t *testing.T) *Spool {
	t.Helper()

	s, err := New(t.TempDir(), storage.NoOpTracer())
	require.NoError(t, err)
	return s
}

func TestJobRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestSpool(t)
	job := scanning.JobDescriptor{
		RunID:     uuid.New(),
		ProjectID: uuid.New(),
		TargetID:  uuid.New(),
		SuiteID:   "zap-baseline",
		Config:    map[string]any{"target_url": "https://app.example.com"},
		SafeMode:  true,
		RateLimit: 2.5,
	}

	require.NoError(t, s.EnqueueRun(ctx, job))

	got, err := s.ReadJob(ctx, job.RunID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.RunID, got.RunID)
	assert.Equal(t, job.SuiteID, got.SuiteID)
	assert.Equal(t, "https://app.example.com", got.TargetURL())
	assert.True(t, got.SafeMode)
}

func TestResultsRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestSpool(t)
	runID := uuid.New()
	result := scanning.NewScanResult("passive-baseline", []scanning.FindingRecord{
		{Severity: scanning.SeverityLow, Type: "Missing X-Content-Type-Options header", Location: "https://app.example.com"},
	})

	require.NoError(t, s.WriteResults(ctx, runID, result))

	got, err := s.ReadResults(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "passive-baseline", got.Adapter)
	require.Len(t, got.Findings, 1)
}

func TestAbsentResultsIsNotAnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestSpool(t)

	got, err := s.ReadResults(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)

	job, err := s.ReadJob(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestNamespacesAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestSpool(t)
	runID := uuid.New()

	require.NoError(t, s.EnqueueRun(ctx, scanning.JobDescriptor{RunID: runID, SuiteID: "baseline"}))

	// Enqueueing a job must not make results appear for the same run.
	result, err := s.ReadResults(ctx, runID)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestFilesAreIndentedJSON(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	s, err := New(root, storage.NoOpTracer())
	require.NoError(t, err)

	runID := uuid.New()
	require.NoError(t, s.EnqueueRun(ctx, scanning.JobDescriptor{RunID: runID, SuiteID: "baseline"}))

	data, err := os.ReadFile(filepath.Join(root, "queue", runID.String()+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ")
	assert.True(t, json.Valid(data))
}

func TestRewriteReplacesPayload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestSpool(t)
	runID := uuid.New()

	require.NoError(t, s.WriteResults(ctx, runID, scanning.NewScanResult("passive-baseline", nil)))
	require.NoError(t, s.WriteResults(ctx, runID, scanning.NewScanResult("header-check", nil)))

	got, err := s.ReadResults(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "header-check", got.Adapter)
}
