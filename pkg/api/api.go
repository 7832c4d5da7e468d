// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the server.
package api

import "time"

// ReportExecutionRequest is the webhook body for one test execution result.
// SuiteID, TestName, Status, BuildID, PipelineURL, Branch and CommitSHA are
// required; the rest is optional.
type ReportExecutionRequest struct {
	SuiteID      string   `json:"suite_id"`
	TestName     string   `json:"test_name"`
	Status       string   `json:"status"`
	BuildID      string   `json:"build_id"`
	PipelineURL  string   `json:"pipeline_url"`
	Branch       string   `json:"branch"`
	CommitSHA    string   `json:"commit_sha"`
	DurationMS   *int64   `json:"duration_ms,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
	StackTrace   string   `json:"stack_trace,omitempty"`
	Screenshots  []string `json:"screenshots,omitempty"`
}

// ReportExecutionResponse acknowledges a durably recorded execution.
// Classification and triage run asynchronously after this response.
type ReportExecutionResponse struct {
	ExecutionID string `json:"execution_id"`
}

// ExecutionResponse represents a test execution in API responses.
type ExecutionResponse struct {
	ID           string     `json:"id"`
	SuiteID      string     `json:"suite_id"`
	TestName     string     `json:"test_name"`
	Outcome      string     `json:"outcome"`
	DurationMS   *int64     `json:"duration_ms,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	BuildID      string     `json:"build_id"`
	PipelineURL  string     `json:"pipeline_url"`
	Branch       string     `json:"branch"`
	CommitSHA    string     `json:"commit_sha"`
	Flaky        bool       `json:"flaky"`
	FlakyScore   float64    `json:"flaky_score"`
	DefectID     *string    `json:"defect_id,omitempty"`
	ReportedAt   time.Time  `json:"reported_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DefectResponse represents a defect in API responses.
type DefectResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Severity         string     `json:"severity"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status"`
	Environment      string     `json:"environment,omitempty"`
	AssigneeID       *string    `json:"assignee_id,omitempty"`
	Labels           []string   `json:"labels,omitempty"`
	IsRegression     bool       `json:"is_regression"`
	RegressionCount  int        `json:"regression_count"`
	AutomationTestID *string    `json:"automation_test_id,omitempty"`
	PipelineURL      string     `json:"pipeline_url,omitempty"`
	BuildID          string     `json:"build_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}

// FlakyTestResponse represents one currently-flagged flaky test case.
type FlakyTestResponse struct {
	SuiteID       string    `json:"suite_id"`
	TestName      string    `json:"test_name"`
	FlakyScore    float64   `json:"flaky_score"`
	SampleCount   int       `json:"sample_count"`
	LastExecution time.Time `json:"last_execution"`
}

// RuleResponse represents a workflow rule in API responses.
type RuleResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Trigger string `json:"trigger"`
	Active  bool   `json:"active"`
	Actions int    `json:"actions"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
