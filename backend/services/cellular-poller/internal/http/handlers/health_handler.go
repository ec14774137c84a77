package handlers

import (
	"net/http"

	"cellmon/backend/services/cellular-poller/internal/service"
)

// StateSource reports the supervisor state.
type StateSource interface {
	State() service.State
}

// NewHealthHandler returns GET /health handler.
func NewHealthHandler(source StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"state":  source.State().String(),
		})
	}
}
