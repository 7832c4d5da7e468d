package handlers

import (
	"net/http"

	"flakewatch/pkg/api"
)

// ListRules handles GET /api/rules.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.ListRules(r.Context())
	if err != nil {
		h.httpError(w, "Failed to list rules", http.StatusInternalServerError)
		return
	}

	resp := make([]api.RuleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, api.RuleResponse{
			ID:      rule.ID.String(),
			Name:    rule.Name,
			Trigger: rule.Trigger,
			Active:  rule.Active,
			Actions: len(rule.Actions),
		})
	}
	h.respondJson(w, http.StatusOK, resp)
}
