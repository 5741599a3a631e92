package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/veriscan/veriscan/internal/domain/scanning"
	"github.com/veriscan/veriscan/internal/infra/storage/memory"
)

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID  string         `json:"target_id"`
		SuiteID   string         `json:"suite_id"`
		CreatedBy string         `json:"created_by"`
		Config    map[string]any `json:"config"`
		SafeMode  bool           `json:"safe_mode"`
		RateLimit float64        `json:"rate_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondInvalidJSON(w, r)
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		// An unparseable target id can never reference a target.
		s.respondError(w, r, scanning.ErrTargetNotFound)
		return
	}
	if req.CreatedBy == "" {
		req.CreatedBy = "api"
	}

	run, err := s.store.CreateRun(r.Context(), memory.CreateRunParams{
		TargetID:  targetID,
		SuiteID:   req.SuiteID,
		CreatedBy: req.CreatedBy,
		Config:    req.Config,
		SafeMode:  req.SafeMode,
		RateLimit: req.RateLimit,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	job := scanning.JobDescriptor{
		RunID:     run.ID,
		ProjectID: run.ProjectID,
		TargetID:  run.TargetID,
		SuiteID:   run.SuiteID,
		Config:    run.Config,
		SafeMode:  run.SafeMode,
		RateLimit: run.RateLimit,
	}
	if err := s.dispatcher.Submit(job); err != nil {
		// The run was accepted but no worker can pick it up; surface the
		// back-pressure and leave a failed record instead of a stuck one.
		if _, failErr := s.store.FailRun(r.Context(), run.ID, "dispatcher saturated"); failErr != nil {
			s.logger.Error(r.Context(), "failing saturated run", "run_id", run.ID, "error", failErr)
		}
		s.respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "runID")
	if !ok {
		s.respondBadID(w, r, "run id")
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

func (s *Server) handleRunQueue(w http.ResponseWriter, r *http.Request) {
	runs := s.store.QueuedRuns(r.Context())
	if runs == nil {
		runs = []scanning.Run{}
	}
	render.JSON(w, r, runs)
}

// handleRunResults returns the spooled results payload, 404 until the worker
// has written it.
func (s *Server) handleRunResults(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "runID")
	if !ok {
		s.respondBadID(w, r, "run id")
		return
	}

	if _, err := s.store.GetRun(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.spool.ReadResults(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if result == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "results not available"})
		return
	}
	render.JSON(w, r, result)
}

func (s *Server) handleRunLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "runID")
	if !ok {
		s.respondBadID(w, r, "run id")
		return
	}

	logs, err := s.store.RunLogs(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, logs)
}

func (s *Server) handleRunFindings(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "runID")
	if !ok {
		s.respondBadID(w, r, "run id")
		return
	}

	findings, err := s.store.FindingsByRun(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if findings == nil {
		findings = []scanning.Finding{}
	}
	render.JSON(w, r, findings)
}

// handleCancelRun transitions the run to cancelled and signals the in-flight
// worker. The transition takes effect immediately regardless of worker
// completion ordering.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "runID")
	if !ok {
		s.respondBadID(w, r, "run id")
		return
	}

	run, err := s.store.CancelRun(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.dispatcher.Cancel(id)
	render.JSON(w, r, run)
}
