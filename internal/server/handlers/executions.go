package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"flakewatch/internal/store"
	"flakewatch/pkg/api"

	"github.com/google/uuid"
)

// ReportExecution handles POST /api/executions.
// It validates and durably records one test execution, acknowledges the
// caller, then hands the execution to the triage pipeline. The caller only
// ever sees the outcome of the write itself; triage runs asynchronously.
func (h *Handlers) ReportExecution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ReportExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if missing := missingFields(req); len(missing) > 0 {
		h.httpError(w, "Missing required fields: "+strings.Join(missing, ", "), http.StatusBadRequest)
		return
	}

	outcome := store.TestOutcome(strings.ToLower(req.Status))
	if !outcome.Valid() {
		h.httpError(w, "Invalid status, expected passed, failed or skipped", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	execution := store.TestExecution{
		ID:          uuid.New(),
		SuiteID:     req.SuiteID,
		TestName:    req.TestName,
		Outcome:     outcome,
		DurationMS:  req.DurationMS,
		Screenshots: req.Screenshots,
		BuildID:     req.BuildID,
		PipelineURL: req.PipelineURL,
		Branch:      req.Branch,
		CommitSHA:   req.CommitSHA,
		ReportedAt:  now,
		CreatedAt:   now,
	}
	if req.ErrorMessage != "" {
		execution.ErrorMessage = &req.ErrorMessage
	}
	if req.StackTrace != "" {
		execution.StackTrace = &req.StackTrace
	}

	if err := h.store.CreateExecution(ctx, nil, &execution); err != nil {
		h.log.Error("failed to record execution", "test", req.TestName, "error", err)
		h.httpError(w, "Failed to record execution", http.StatusInternalServerError)
		return
	}

	// The record is durable; continuations must not block the response.
	h.pipeline.Dispatch(execution)

	h.respondJson(w, http.StatusAccepted, api.ReportExecutionResponse{
		ExecutionID: execution.ID.String(),
	})
}

// GetExecution handles GET /api/executions/{id}.
func (h *Handlers) GetExecution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	executionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid execution id", http.StatusBadRequest)
		return
	}

	execution, err := h.store.GetExecutionByID(ctx, executionID)
	if errors.Is(err, store.ErrNotFound) {
		h.httpError(w, "Execution not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.httpError(w, "Failed to load execution", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, toExecutionResponse(execution))
}

func missingFields(req api.ReportExecutionRequest) []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"suite_id", req.SuiteID},
		{"test_name", req.TestName},
		{"status", req.Status},
		{"build_id", req.BuildID},
		{"pipeline_url", req.PipelineURL},
		{"branch", req.Branch},
		{"commit_sha", req.CommitSHA},
	}
	for _, field := range required {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

func toExecutionResponse(execution *store.TestExecution) api.ExecutionResponse {
	resp := api.ExecutionResponse{
		ID:           execution.ID.String(),
		SuiteID:      execution.SuiteID,
		TestName:     execution.TestName,
		Outcome:      string(execution.Outcome),
		DurationMS:   execution.DurationMS,
		ErrorMessage: execution.ErrorMessage,
		BuildID:      execution.BuildID,
		PipelineURL:  execution.PipelineURL,
		Branch:       execution.Branch,
		CommitSHA:    execution.CommitSHA,
		Flaky:        execution.Flaky,
		FlakyScore:   execution.FlakyScore,
		ReportedAt:   execution.ReportedAt,
		CreatedAt:    execution.CreatedAt,
	}
	if execution.DefectID != nil {
		id := execution.DefectID.String()
		resp.DefectID = &id
	}
	return resp
}
