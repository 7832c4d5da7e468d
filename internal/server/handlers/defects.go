package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"flakewatch/internal/store"
	"flakewatch/pkg/api"

	"github.com/google/uuid"
)

// ListDefects handles GET /api/defects.
// Returns open (non-terminal) defects, newest first.
func (h *Handlers) ListDefects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	defects, err := h.store.ListOpenDefects(ctx, limit, offset)
	if err != nil {
		h.httpError(w, "Failed to list defects", http.StatusInternalServerError)
		return
	}

	resp := make([]api.DefectResponse, 0, len(defects))
	for i := range defects {
		resp = append(resp, toDefectResponse(&defects[i]))
	}
	h.respondJson(w, http.StatusOK, resp)
}

// GetDefect handles GET /api/defects/{id}.
func (h *Handlers) GetDefect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	defectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid defect id", http.StatusBadRequest)
		return
	}

	defect, err := h.store.GetDefectByID(ctx, defectID)
	if errors.Is(err, store.ErrNotFound) {
		h.httpError(w, "Defect not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.httpError(w, "Failed to load defect", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, toDefectResponse(defect))
}

func toDefectResponse(defect *store.Defect) api.DefectResponse {
	resp := api.DefectResponse{
		ID:               defect.ID.String(),
		Title:            defect.Title,
		Description:      defect.Description,
		Severity:         string(defect.Severity),
		Priority:         string(defect.Priority),
		Status:           string(defect.Status),
		Environment:      defect.Environment,
		Labels:           defect.Labels,
		IsRegression:     defect.IsRegression,
		RegressionCount:  defect.RegressionCount,
		AutomationTestID: defect.AutomationTestID,
		PipelineURL:      defect.PipelineURL,
		BuildID:          defect.BuildID,
		CreatedAt:        defect.CreatedAt,
		ResolvedAt:       defect.ResolvedAt,
	}
	if defect.AssigneeID != nil {
		id := defect.AssigneeID.String()
		resp.AssigneeID = &id
	}
	return resp
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
