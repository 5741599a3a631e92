package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// handleLogin issues a demo bearer token. Any credentials are accepted; the
// service has no real authentication.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondInvalidJSON(w, r)
		return
	}

	s.store.AddAuditEvent(r.Context(), "auth.login", map[string]any{"email": req.Email})

	render.JSON(w, r, map[string]string{
		"access_token": "demo-" + uuid.NewString(),
		"token_type":   "bearer",
	})
}
