package api

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/veriscan/veriscan/internal/domain/scanning"
)

func (s *Server) handleAuditEvents(w http.ResponseWriter, r *http.Request) {
	events := s.store.AuditEvents(r.Context())
	if events == nil {
		events = []scanning.AuditEvent{}
	}
	render.JSON(w, r, events)
}
