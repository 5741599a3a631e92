package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriscan/veriscan/internal/domain/scanning"
)

func newTestStore(t *testing.T, maxRuns int) *Store {
	t.Helper()
	return NewStore(OrgSeed{Name: "Acme Security", Plan: "team", MaxRuns: maxRuns})
}

func seedVerifiedTarget(t *testing.T, s *Store) scanning.Target {
	t.Helper()
	ctx := context.Background()

	project, err := s.CreateProject(ctx, "web", "production web apps")
	require.NoError(t, err)

	target, err := s.CreateTarget(ctx, project.ID, "app", "web_app", map[string]string{"url": "https://app.example.com"})
	require.NoError(t, err)

	target, err = s.VerifyTarget(ctx, target.ID, "dns-txt")
	require.NoError(t, err)
	return target
}

func TestCreateRunRequiresVerifiedTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 10)
	project, err := s.CreateProject(ctx, "web", "")
	require.NoError(t, err)
	target, err := s.CreateTarget(ctx, project.ID, "app", "web_app", nil)
	require.NoError(t, err)

	_, err = s.CreateRun(ctx, CreateRunParams{TargetID: target.ID, SuiteID: "baseline"})
	require.ErrorIs(t, err, scanning.ErrTargetUnverified)

	// The rejection must leave no trace: no run record, no queue entry,
	// no usage consumed.
	assert.Empty(t, s.QueuedRuns(ctx))
	assert.Equal(t, 0, s.Usage(ctx).RunsUsed)
}

func TestCreateRunUnknownTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 10)
	_, err := s.CreateRun(ctx, CreateRunParams{SuiteID: "baseline"})
	require.ErrorIs(t, err, scanning.ErrTargetNotFound)
}

func TestCreateRunQuotaExhaustion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 2)
	target := seedVerifiedTarget(t, s)

	for i := 0; i < 2; i++ {
		_, err := s.CreateRun(ctx, CreateRunParams{TargetID: target.ID, SuiteID: "baseline"})
		require.NoError(t, err)
	}

	// Repeated attempts past the quota fail identically and never push
	// usage beyond the cap.
	for i := 0; i < 3; i++ {
		_, err := s.CreateRun(ctx, CreateRunParams{TargetID: target.ID, SuiteID: "baseline"})
		require.ErrorIs(t, err, scanning.ErrQuotaExceeded)
	}
	assert.Equal(t, 2, s.Usage(ctx).RunsUsed)
	assert.Len(t, s.QueuedRuns(ctx), 2)
}

func TestCreateRunQueueIsFIFO(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 10)
	target := seedVerifiedTarget(t, s)

	var created []scanning.Run
	for _, suite := range []string{"first", "second", "third"} {
		run, err := s.CreateRun(ctx, CreateRunParams{TargetID: target.ID, SuiteID: suite})
		require.NoError(t, err)
		created = append(created, run)
	}

	queued := s.QueuedRuns(ctx)
	require.Len(t, queued, 3)
	for i, run := range queued {
		assert.Equal(t, created[i].ID, run.ID)
	}

	// A started run drops out of the queue view without disturbing order.
	_, err := s.StartRun(ctx, created[0].ID)
	require.NoError(t, err)

	queued = s.QueuedRuns(ctx)
	require.Len(t, queued, 2)
	assert.Equal(t, created[1].ID, queued[0].ID)
	assert.Equal(t, created[2].ID, queued[1].ID)
}

func TestCreateRunWritesInitialLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 10)
	target := seedVerifiedTarget(t, s)

	run, err := s.CreateRun(ctx, CreateRunParams{TargetID: target.ID, SuiteID: "baseline", CreatedBy: "tester"})
	require.NoError(t, err)

	logs, err := s.RunLogs(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "run queued", logs[0].Message)
}

func TestCancelWinsOverLateCompletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 10)
	target := seedVerifiedTarget(t, s)

	run, err := s.CreateRun(ctx, CreateRunParams{TargetID: target.ID, SuiteID: "baseline"})
	require.NoError(t, err)

	_, err = s.StartRun(ctx, run.ID)
	require.NoError(t, err)
	_, err = s.CancelRun(ctx, run.ID)
	require.NoError(t, err)

	// A worker finishing after the cancel must not flip the status.
	_, err = s.CompleteRun(ctx, run.ID)
	require.Error(t, err)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, scanning.RunStatusCancelled, got.Status)
}

func TestFailRunRecordsReasonAndLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 10)
	target := seedVerifiedTarget(t, s)

	run, err := s.CreateRun(ctx, CreateRunParams{TargetID: target.ID, SuiteID: "baseline"})
	require.NoError(t, err)
	_, err = s.StartRun(ctx, run.ID)
	require.NoError(t, err)

	failed, err := s.FailRun(ctx, run.ID, "adapter timeout")
	require.NoError(t, err)
	assert.Equal(t, scanning.RunStatusFailed, failed.Status)
	assert.Equal(t, "adapter timeout", failed.Error)

	logs, err := s.RunLogs(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "run failed: adapter timeout", logs[len(logs)-1].Message)
}

func TestAddFindingsAndStatusUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 10)
	target := seedVerifiedTarget(t, s)

	run, err := s.CreateRun(ctx, CreateRunParams{TargetID: target.ID, SuiteID: "baseline"})
	require.NoError(t, err)

	added, err := s.AddFindings(ctx, run.ID, []scanning.FindingRecord{
		{Severity: scanning.SeverityHigh, Type: "sql_injection", Location: "/login"},
		{Severity: scanning.SeverityLow, Type: "missing_header", Location: "/"},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)
	for _, f := range added {
		assert.Equal(t, scanning.FindingStatusOpen, f.Status)
		assert.Equal(t, run.ID, f.RunID)
	}

	updated, err := s.UpdateFindingStatus(ctx, added[0].ID, "resolved")
	require.NoError(t, err)
	assert.Equal(t, "resolved", updated.Status)

	listed, err := s.FindingsByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "resolved", listed[0].Status)
}

func TestFindingsUnknownRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 10)
	target := seedVerifiedTarget(t, s)

	_, err := s.AddFindings(ctx, target.ID, nil)
	require.ErrorIs(t, err, scanning.ErrRunNotFound)
	_, err = s.FindingsByRun(ctx, target.ID)
	require.ErrorIs(t, err, scanning.ErrRunNotFound)
}

func TestAuditTrailCoversMutations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 10)
	target := seedVerifiedTarget(t, s)

	run, err := s.CreateRun(ctx, CreateRunParams{TargetID: target.ID, SuiteID: "baseline"})
	require.NoError(t, err)
	_, err = s.StartRun(ctx, run.ID)
	require.NoError(t, err)
	_, err = s.CompleteRun(ctx, run.ID)
	require.NoError(t, err)

	var actions []string
	for _, ev := range s.AuditEvents(ctx) {
		actions = append(actions, ev.Action)
	}
	assert.Equal(t, []string{
		"project.created",
		"target.created",
		"target.verified",
		"run.created",
		"run.running",
		"run.completed",
	}, actions)
}

func TestStoreReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t, 10)
	target := seedVerifiedTarget(t, s)

	run, err := s.CreateRun(ctx, CreateRunParams{
		TargetID: target.ID,
		SuiteID:  "baseline",
		Config:   map[string]any{"target_url": "https://app.example.com"},
	})
	require.NoError(t, err)

	// Mutating the returned copies must not leak into the store.
	run.Config["target_url"] = "https://evil.example.com"
	target.Scope["url"] = "https://evil.example.com"

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com", got.Config["target_url"])

	gotTarget, err := s.GetTarget(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com", gotTarget.Scope["url"])
}
