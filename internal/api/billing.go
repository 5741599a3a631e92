package api

import (
	"net/http"

	"github.com/go-chi/render"
)

func (s *Server) handleBillingUsage(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.store.Usage(r.Context()))
}

// handleBillingPortal returns a mock billing portal URL for the org.
func (s *Server) handleBillingPortal(w http.ResponseWriter, r *http.Request) {
	org := s.store.Org(r.Context())
	s.store.AddAuditEvent(r.Context(), "billing.portal", map[string]any{"org_id": org.ID.String()})

	render.JSON(w, r, map[string]string{
		"url": "https://billing.example.com/portal/" + org.ID.String(),
	})
}
