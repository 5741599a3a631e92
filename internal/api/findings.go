package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

func (s *Server) handleUpdateFinding(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "findingID")
	if !ok {
		s.respondBadID(w, r, "finding id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondInvalidJSON(w, r)
		return
	}

	finding, err := s.store.UpdateFindingStatus(r.Context(), id, req.Status)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, finding)
}
