package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"

	"github.com/veriscan/veriscan/internal/infra/storage/memory"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondInvalidJSON(w, r)
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}

	user, err := s.store.CreateUser(r.Context(), req.Email, req.Role)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.store.ListUsers(r.Context()))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "userID")
	if !ok {
		s.respondBadID(w, r, "user id")
		return
	}

	var patch memory.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondInvalidJSON(w, r)
		return
	}

	user, err := s.store.UpdateUser(r.Context(), id, patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, user)
}
