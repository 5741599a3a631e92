// Package memory provides the in-memory run store. It is the authoritative
// record of orgs, projects, targets, runs, findings and audit events for the
// lifetime of the process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veriscan/veriscan/internal/domain/scanning"
)

// OrgSeed configures the singleton demo tenant created with the store.
type OrgSeed struct {
	Name    string
	Plan    string
	MaxRuns int
}

// Store holds all tenant state behind a single mutex. Every operation that
// reads or writes related records does so in one critical section, so the
// quota check and usage increment in CreateRun cannot race.
type Store struct {
	mu sync.Mutex

	org   scanning.Org
	usage scanning.Usage

	users    map[uuid.UUID]*scanning.User
	projects map[uuid.UUID]*scanning.Project
	targets  map[uuid.UUID]*scanning.Target
	runs     map[uuid.UUID]*scanning.Run
	findings map[uuid.UUID]*scanning.Finding

	// runQueue preserves FIFO creation order of run ids.
	runQueue      []uuid.UUID
	findingsByRun map[uuid.UUID][]uuid.UUID
	logs          map[uuid.UUID][]scanning.LogEntry
	audit         []scanning.AuditEvent

	now func() time.Time
}

// NewStore creates a store seeded with the demo org.
func NewStore(seed OrgSeed) *Store {
	s := &Store{
		users:         make(map[uuid.UUID]*scanning.User),
		projects:      make(map[uuid.UUID]*scanning.Project),
		targets:       make(map[uuid.UUID]*scanning.Target),
		runs:          make(map[uuid.UUID]*scanning.Run),
		findings:      make(map[uuid.UUID]*scanning.Finding),
		findingsByRun: make(map[uuid.UUID][]uuid.UUID),
		logs:          make(map[uuid.UUID][]scanning.LogEntry),
		now:           time.Now,
	}
	s.org = scanning.Org{
		ID:        uuid.New(),
		Name:      seed.Name,
		Plan:      seed.Plan,
		CreatedAt: s.now().UTC(),
	}
	s.usage = scanning.Usage{MaxRuns: seed.MaxRuns}
	return s
}

// Org returns the singleton tenant.
func (s *Store) Org(ctx context.Context) scanning.Org {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.org
}

// Usage returns the org's current run consumption.
func (s *Store) Usage(ctx context.Context) scanning.Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// CreateUser adds a user to the org.
func (s *Store) CreateUser(ctx context.Context, email, role string) (scanning.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &scanning.User{
		ID:        uuid.New(),
		OrgID:     s.org.ID,
		Email:     email,
		Role:      role,
		Status:    "active",
		CreatedAt: s.now().UTC(),
	}
	s.users[user.ID] = user
	s.appendAudit("user.created", map[string]any{"user_id": user.ID.String(), "email": email})
	return *user, nil
}

// ListUsers returns all users in creation-independent map order sorted by
// creation time.
func (s *Store) ListUsers(ctx context.Context) []scanning.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]scanning.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sortByTime(out, func(u scanning.User) time.Time { return u.CreatedAt })
	return out
}

// UserPatch describes a partial user update.
type UserPatch struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

// UpdateUser applies a patch to a user.
func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) (scanning.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return scanning.User{}, scanning.ErrUserNotFound
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Status != nil {
		user.Status = *patch.Status
	}
	s.appendAudit("user.updated", map[string]any{"user_id": id.String()})
	return *user, nil
}

// CreateProject adds a project under the org.
func (s *Store) CreateProject(ctx context.Context, name, description string) (scanning.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := &scanning.Project{
		ID:          uuid.New(),
		OrgID:       s.org.ID,
		Name:        name,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	s.projects[project.ID] = project
	s.appendAudit("project.created", map[string]any{"project_id": project.ID.String(), "name": name})
	return *project, nil
}

// ListProjects returns all projects sorted by creation time.
func (s *Store) ListProjects(ctx context.Context) []scanning.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]scanning.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	sortByTime(out, func(p scanning.Project) time.Time { return p.CreatedAt })
	return out
}

// GetProject looks up a project by id.
func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (scanning.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[id]
	if !ok {
		return scanning.Project{}, scanning.ErrProjectNotFound
	}
	return *project, nil
}

// ProjectPatch describes a partial project update.
type ProjectPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// UpdateProject applies a patch to a project.
func (s *Store) UpdateProject(ctx context.Context, id uuid.UUID, patch ProjectPatch) (scanning.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[id]
	if !ok {
		return scanning.Project{}, scanning.ErrProjectNotFound
	}
	if patch.Name != nil {
		project.Name = *patch.Name
	}
	if patch.Description != nil {
		project.Description = *patch.Description
	}
	s.appendAudit("project.updated", map[string]any{"project_id": id.String()})
	return *project, nil
}

// CreateTarget adds a target under a project in the unverified state.
func (s *Store) CreateTarget(ctx context.Context, projectID uuid.UUID, name, typ string, scope map[string]string) (scanning.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return scanning.Target{}, scanning.ErrProjectNotFound
	}

	target := &scanning.Target{
		ID:                 uuid.New(),
		ProjectID:          projectID,
		Name:               name,
		Type:               typ,
		Scope:              copyScope(scope),
		VerificationStatus: scanning.VerificationUnverified,
		CreatedAt:          s.now().UTC(),
	}
	s.targets[target.ID] = target
	s.appendAudit("target.created", map[string]any{"target_id": target.ID.String(), "project_id": projectID.String()})
	return cloneTarget(target), nil
}

// ListTargets returns all targets under a project sorted by creation time.
func (s *Store) ListTargets(ctx context.Context, projectID uuid.UUID) ([]scanning.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, scanning.ErrProjectNotFound
	}

	var out []scanning.Target
	for _, t := range s.targets {
		if t.ProjectID == projectID {
			out = append(out, cloneTarget(t))
		}
	}
	sortByTime(out, func(t scanning.Target) time.Time { return t.CreatedAt })
	return out, nil
}

// GetTarget looks up a target by id.
func (s *Store) GetTarget(ctx context.Context, id uuid.UUID) (scanning.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.targets[id]
	if !ok {
		return scanning.Target{}, scanning.ErrTargetNotFound
	}
	return cloneTarget(target), nil
}

// TargetPatch describes a partial target update.
type TargetPatch struct {
	Name  *string           `json:"name"`
	Type  *string           `json:"type"`
	Scope map[string]string `json:"scope"`
}

// UpdateTarget applies a patch to a target.
func (s *Store) UpdateTarget(ctx context.Context, id uuid.UUID, patch TargetPatch) (scanning.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.targets[id]
	if !ok {
		return scanning.Target{}, scanning.ErrTargetNotFound
	}
	if patch.Name != nil {
		target.Name = *patch.Name
	}
	if patch.Type != nil {
		target.Type = *patch.Type
	}
	if patch.Scope != nil {
		target.Scope = copyScope(patch.Scope)
	}
	s.appendAudit("target.updated", map[string]any{"target_id": id.String()})
	return cloneTarget(target), nil
}

// VerifyTarget marks a target as ownership-verified.
func (s *Store) VerifyTarget(ctx context.Context, id uuid.UUID, method string) (scanning.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.targets[id]
	if !ok {
		return scanning.Target{}, scanning.ErrTargetNotFound
	}
	now := s.now().UTC()
	target.VerificationStatus = scanning.VerificationVerified
	target.VerificationMethod = method
	target.VerifiedAt = &now
	s.appendAudit("target.verified", map[string]any{"target_id": id.String(), "method": method})
	return cloneTarget(target), nil
}

// CreateRunParams carries the caller-supplied fields of a new run.
type CreateRunParams struct {
	TargetID  uuid.UUID
	SuiteID   string
	CreatedBy string
	Config    map[string]any
	SafeMode  bool
	RateLimit float64
}

// CreateRun validates the target and quota, then creates the run in the
// queued state, appends it to the FIFO run queue, writes the initial log
// line and increments usage. The entire sequence holds the store lock so a
// concurrent caller cannot race past the quota check.
func (s *Store) CreateRun(ctx context.Context, params CreateRunParams) (scanning.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.targets[params.TargetID]
	if !ok {
		return scanning.Run{}, scanning.ErrTargetNotFound
	}
	if !target.Verified() {
		return scanning.Run{}, scanning.ErrTargetUnverified
	}
	if s.usage.Exhausted() {
		return scanning.Run{}, scanning.ErrQuotaExceeded
	}

	now := s.now().UTC()
	run := &scanning.Run{
		ID:        uuid.New(),
		ProjectID: target.ProjectID,
		TargetID:  target.ID,
		SuiteID:   params.SuiteID,
		Status:    scanning.RunStatusQueued,
		CreatedBy: params.CreatedBy,
		Config:    copyConfig(params.Config),
		SafeMode:  params.SafeMode,
		RateLimit: params.RateLimit,
		CreatedAt: now,
	}
	s.runs[run.ID] = run
	s.runQueue = append(s.runQueue, run.ID)
	s.logs[run.ID] = append(s.logs[run.ID], scanning.LogEntry{Time: now, Message: "run queued"})
	s.usage.RunsUsed++
	s.appendAudit("run.created", map[string]any{
		"run_id":    run.ID.String(),
		"target_id": target.ID.String(),
		"suite_id":  params.SuiteID,
	})
	return cloneRun(run), nil
}

// GetRun looks up a run by id.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (scanning.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return scanning.Run{}, scanning.ErrRunNotFound
	}
	return cloneRun(run), nil
}

// QueuedRuns returns the runs still in the queued state, oldest first.
func (s *Store) QueuedRuns(ctx context.Context) []scanning.Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []scanning.Run
	for _, id := range s.runQueue {
		if run, ok := s.runs[id]; ok && run.Status == scanning.RunStatusQueued {
			out = append(out, cloneRun(run))
		}
	}
	return out
}

// StartRun transitions a run to running.
func (s *Store) StartRun(ctx context.Context, id uuid.UUID) (scanning.Run, error) {
	return s.transition(id, func(run *scanning.Run, now time.Time) error {
		return run.Start(now)
	})
}

// CompleteRun transitions a run to completed.
func (s *Store) CompleteRun(ctx context.Context, id uuid.UUID) (scanning.Run, error) {
	return s.transition(id, func(run *scanning.Run, now time.Time) error {
		return run.Complete(now)
	})
}

// FailRun transitions a run to failed, recording the reason in the run and
// its log.
func (s *Store) FailRun(ctx context.Context, id uuid.UUID, reason string) (scanning.Run, error) {
	return s.transition(id, func(run *scanning.Run, now time.Time) error {
		if err := run.Fail(now, reason); err != nil {
			return err
		}
		s.logs[id] = append(s.logs[id], scanning.LogEntry{Time: now, Message: "run failed: " + reason})
		return nil
	})
}

// CancelRun transitions a run to cancelled. The transition rules guarantee a
// cancelled run is never later overwritten by a worker completion.
func (s *Store) CancelRun(ctx context.Context, id uuid.UUID) (scanning.Run, error) {
	return s.transition(id, func(run *scanning.Run, now time.Time) error {
		if err := run.Cancel(now); err != nil {
			return err
		}
		s.logs[id] = append(s.logs[id], scanning.LogEntry{Time: now, Message: "run cancelled"})
		return nil
	})
}

func (s *Store) transition(id uuid.UUID, fn func(run *scanning.Run, now time.Time) error) (scanning.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return scanning.Run{}, scanning.ErrRunNotFound
	}
	if err := fn(run, s.now().UTC()); err != nil {
		return scanning.Run{}, err
	}
	s.appendAudit("run."+run.Status.String(), map[string]any{"run_id": id.String()})
	return cloneRun(run), nil
}

// AddLog appends a line to a run's execution log.
func (s *Store) AddLog(ctx context.Context, id uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return scanning.ErrRunNotFound
	}
	s.logs[id] = append(s.logs[id], scanning.LogEntry{Time: s.now().UTC(), Message: message})
	return nil
}

// RunLogs returns a run's log lines in append order.
func (s *Store) RunLogs(ctx context.Context, id uuid.UUID) ([]scanning.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return nil, scanning.ErrRunNotFound
	}
	return append([]scanning.LogEntry(nil), s.logs[id]...), nil
}

// AddFindings persists adapter findings for a run in bulk, assigning ids and
// the initial open status.
func (s *Store) AddFindings(ctx context.Context, runID uuid.UUID, records []scanning.FindingRecord) ([]scanning.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return nil, scanning.ErrRunNotFound
	}

	now := s.now().UTC()
	out := make([]scanning.Finding, 0, len(records))
	for _, rec := range records {
		finding := &scanning.Finding{
			ID:        uuid.New(),
			RunID:     runID,
			Severity:  rec.Severity,
			Type:      rec.Type,
			Location:  rec.Location,
			Status:    scanning.FindingStatusOpen,
			CreatedAt: now,
		}
		s.findings[finding.ID] = finding
		s.findingsByRun[runID] = append(s.findingsByRun[runID], finding.ID)
		out = append(out, *finding)
	}
	return out, nil
}

// FindingsByRun returns a run's findings in persistence order.
func (s *Store) FindingsByRun(ctx context.Context, runID uuid.UUID) ([]scanning.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return nil, scanning.ErrRunNotFound
	}

	ids := s.findingsByRun[runID]
	out := make([]scanning.Finding, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.findings[id])
	}
	return out, nil
}

// UpdateFindingStatus sets a finding's status to an arbitrary caller value.
func (s *Store) UpdateFindingStatus(ctx context.Context, id uuid.UUID, status string) (scanning.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	finding, ok := s.findings[id]
	if !ok {
		return scanning.Finding{}, scanning.ErrFindingNotFound
	}
	finding.Status = status
	s.appendAudit("finding.updated", map[string]any{"finding_id": id.String(), "status": status})
	return *finding, nil
}

// AddAuditEvent appends an event to the audit log.
func (s *Store) AddAuditEvent(ctx context.Context, action string, metadata map[string]any) scanning.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendAudit(action, metadata)
}

// AuditEvents returns the append-only audit log, oldest first.
func (s *Store) AuditEvents(ctx context.Context) []scanning.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scanning.AuditEvent(nil), s.audit...)
}

// appendAudit must be called with the lock held.
func (s *Store) appendAudit(action string, metadata map[string]any) scanning.AuditEvent {
	event := scanning.AuditEvent{
		ID:        uuid.New(),
		Action:    action,
		Metadata:  metadata,
		CreatedAt: s.now().UTC(),
	}
	s.audit = append(s.audit, event)
	return event
}

func cloneRun(run *scanning.Run) scanning.Run {
	out := *run
	out.Config = copyConfig(run.Config)
	return out
}

func cloneTarget(target *scanning.Target) scanning.Target {
	out := *target
	out.Scope = copyScope(target.Scope)
	return out
}

func copyScope(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyConfig(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortByTime[T any](items []T, at func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return at(items[i]).Before(at(items[j]))
	})
}
