package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/veriscan/veriscan/internal/app/dispatch"
	"github.com/veriscan/veriscan/internal/domain/scanning"
)

// respondError maps domain errors onto the HTTP taxonomy: not-found -> 404,
// unverified target -> 400, exhausted quota -> 402, saturated dispatcher ->
// 503, everything else -> 500.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, scanning.ErrProjectNotFound),
		errors.Is(err, scanning.ErrTargetNotFound),
		errors.Is(err, scanning.ErrRunNotFound),
		errors.Is(err, scanning.ErrFindingNotFound),
		errors.Is(err, scanning.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scanning.ErrTargetUnverified):
		status = http.StatusBadRequest
	case errors.Is(err, scanning.ErrQuotaExceeded):
		status = http.StatusPaymentRequired
	case errors.Is(err, dispatch.ErrQueueFull), errors.Is(err, dispatch.ErrStopped):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}

func (s *Server) respondInvalidJSON(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, map[string]string{"error": "invalid json"})
}

// urlUUID parses the named chi URL parameter as a UUID.
func urlUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func (s *Server) respondBadID(w http.ResponseWriter, r *http.Request, name string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, map[string]string{"error": "invalid " + name})
}
