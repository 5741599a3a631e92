package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"

	"github.com/veriscan/veriscan/internal/infra/storage/memory"
)

func (s *Server) handleCreateTarget(w http.ResponseWriter, r *http.Request) {
	projectID, ok := urlUUID(r, "projectID")
	if !ok {
		s.respondBadID(w, r, "project id")
		return
	}

	var req struct {
		Name  string            `json:"name"`
		Type  string            `json:"type"`
		Scope map[string]string `json:"scope"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondInvalidJSON(w, r)
		return
	}

	target, err := s.store.CreateTarget(r.Context(), projectID, req.Name, req.Type, req.Scope)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, target)
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	projectID, ok := urlUUID(r, "projectID")
	if !ok {
		s.respondBadID(w, r, "project id")
		return
	}

	targets, err := s.store.ListTargets(r.Context(), projectID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, targets)
}

func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "targetID")
	if !ok {
		s.respondBadID(w, r, "target id")
		return
	}

	target, err := s.store.GetTarget(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, target)
}

func (s *Server) handleUpdateTarget(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "targetID")
	if !ok {
		s.respondBadID(w, r, "target id")
		return
	}

	var patch memory.TargetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondInvalidJSON(w, r)
		return
	}

	target, err := s.store.UpdateTarget(r.Context(), id, patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, target)
}

func (s *Server) handleVerifyTarget(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "targetID")
	if !ok {
		s.respondBadID(w, r, "target id")
		return
	}

	var req struct {
		Method string `json:"method"`
	}
	// The body is optional; an empty or invalid one defaults the method.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Method == "" {
		req.Method = "dns-txt"
	}

	target, err := s.store.VerifyTarget(r.Context(), id, req.Method)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, target)
}
