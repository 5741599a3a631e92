package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"

	"github.com/veriscan/veriscan/internal/infra/storage/memory"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondInvalidJSON(w, r)
		return
	}

	project, err := s.store.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.store.ListProjects(r.Context()))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "projectID")
	if !ok {
		s.respondBadID(w, r, "project id")
		return
	}

	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "projectID")
	if !ok {
		s.respondBadID(w, r, "project id")
		return
	}

	var patch memory.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondInvalidJSON(w, r)
		return
	}

	project, err := s.store.UpdateProject(r.Context(), id, patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, project)
}
