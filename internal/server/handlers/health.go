package handlers

import (
	"net/http"
)

// Health handles GET /healthz.
// Returns 200 when the service and its database are reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.httpError(w, "Database unreachable", http.StatusServiceUnavailable)
		return
	}
	h.respondJson(w, http.StatusOK, map[string]string{"status": "ok"})
}
