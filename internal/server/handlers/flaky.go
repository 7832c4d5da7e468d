package handlers

import (
	"net/http"

	"flakewatch/pkg/api"
)

// ListFlakyTests handles GET /api/flaky.
// Returns the test cases currently flagged as flaky with their scores.
func (h *Handlers) ListFlakyTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.store.ListFlakyTests(r.Context())
	if err != nil {
		h.httpError(w, "Failed to list flaky tests", http.StatusInternalServerError)
		return
	}

	resp := make([]api.FlakyTestResponse, 0, len(tests))
	for _, t := range tests {
		resp = append(resp, api.FlakyTestResponse{
			SuiteID:       t.SuiteID,
			TestName:      t.TestName,
			FlakyScore:    t.FlakyScore,
			SampleCount:   t.SampleCount,
			LastExecution: t.LastExecution,
		})
	}
	h.respondJson(w, http.StatusOK, resp)
}
