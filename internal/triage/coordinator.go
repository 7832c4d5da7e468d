package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"flakewatch/internal/notify"
	"flakewatch/internal/store"

	"github.com/google/uuid"
)

// ErrSystemAccount is returned when the configured system reporter account
// cannot be resolved. Defect creation is aborted in that case: a defect
// without a reporter would violate the data model.
var ErrSystemAccount = errors.New("triage: system account not found")

// fieldPlaceholder stands in for report fields the CI webhook did not send.
const fieldPlaceholder = "not provided"

// CoordinatorStore is the subset of the store the coordinator needs.
type CoordinatorStore interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	FindOpenByAutomationTest(ctx context.Context, tx store.DBTransaction, testName string, since time.Time) (*store.Defect, error)
	CreateDefect(ctx context.Context, tx store.DBTransaction, defect *store.Defect) error
	RecordRegression(ctx context.Context, tx store.DBTransaction, id uuid.UUID, pipelineURL, buildID string) error
	LinkDefect(ctx context.Context, tx store.DBTransaction, executionID, defectID uuid.UUID) error
	UpdateAssignee(ctx context.Context, id, userID uuid.UUID) error
	CountOpenByAssignee(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]int, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	ListTriagePool(ctx context.Context) ([]store.User, error)
	AppendActivity(ctx context.Context, entry *store.ActivityEntry) error
}

// Coordinator decides, for a failed execution, whether to open a new defect
// or fold the failure into an existing one.
type Coordinator struct {
	store           CoordinatorStore
	notifier        notify.Notifier
	events          EventSink
	systemAccountID uuid.UUID
	dedupWindow     time.Duration
	log             *slog.Logger
}

// NewCoordinator creates a triage coordinator. systemAccountID is the
// account recorded as reporter of auto-created defects; it is injected here
// instead of looked up per creation.
func NewCoordinator(s CoordinatorStore, notifier notify.Notifier, events EventSink,
	systemAccountID uuid.UUID, dedupWindow time.Duration, log *slog.Logger) *Coordinator {
	return &Coordinator{
		store:           s,
		notifier:        notifier,
		events:          events,
		systemAccountID: systemAccountID,
		dedupWindow:     dedupWindow,
		log:             log,
	}
}

// Triage handles one failed execution. Dedup policy: one open defect per
// failing automated test per dedup window, no matter how many times it
// fails inside that window.
//
// Failures after the defect row is committed (assignment, notification,
// audit) are logged and do not roll the defect back.
func (c *Coordinator) Triage(ctx context.Context, execution *store.TestExecution) error {
	if execution.Outcome != store.TestOutcomeFailed {
		return fmt.Errorf("triage called for %s execution %s", execution.Outcome, execution.ID)
	}

	tx, err := c.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	since := time.Now().UTC().Add(-c.dedupWindow)
	existing, err := c.store.FindOpenByAutomationTest(ctx, tx, execution.TestName, since)
	switch {
	case err == nil:
		return c.recordRegression(ctx, tx, existing, execution)
	case errors.Is(err, store.ErrNotFound):
		return c.createDefect(ctx, tx, execution)
	default:
		return fmt.Errorf("defect lookup failed: %w", err)
	}
}

func (c *Coordinator) recordRegression(ctx context.Context, tx store.Tx, defect *store.Defect, execution *store.TestExecution) error {
	if err := c.store.RecordRegression(ctx, tx, defect.ID, execution.PipelineURL, execution.BuildID); err != nil {
		return fmt.Errorf("failed to record regression: %w", err)
	}
	if err := c.store.LinkDefect(ctx, tx, execution.ID, defect.ID); err != nil {
		return fmt.Errorf("failed to link execution: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit regression: %w", err)
	}

	c.log.Info("regression recorded",
		"defect", defect.ID, "test", execution.TestName, "count", defect.RegressionCount+1)

	c.appendActivity(ctx, defect.ID, "regression_recorded", map[string]any{
		"test_name":        execution.TestName,
		"build_id":         execution.BuildID,
		"regression_count": defect.RegressionCount + 1,
	})

	c.events.Evaluate(ctx, TriggerDefectRegress, map[string]any{
		"defect_id":        defect.ID.String(),
		"test_name":        execution.TestName,
		"severity":         string(defect.Severity),
		"regression_count": defect.RegressionCount + 1,
		"branch":           execution.Branch,
	}, &defect.ID)
	return nil
}

func (c *Coordinator) createDefect(ctx context.Context, tx store.Tx, execution *store.TestExecution) error {
	if c.systemAccountID == uuid.Nil {
		return ErrSystemAccount
	}
	reporter, err := c.store.GetUserByID(ctx, c.systemAccountID)
	if err != nil {
		// Hard stop: no defect is created without a valid reporter.
		return fmt.Errorf("%w: %v", ErrSystemAccount, err)
	}

	testID := execution.TestName
	defect := &store.Defect{
		ID:               uuid.New(),
		Title:            fmt.Sprintf("Automated test failure: %s", execution.TestName),
		Description:      composeDescription(execution),
		Severity:         store.SeverityHigh,
		Priority:         store.PriorityHigh,
		Status:           store.DefectStatusOpen,
		Environment:      "CI/CD",
		ReporterID:       reporter.ID,
		Labels:           []string{"automation"},
		AutomationTestID: &testID,
		PipelineURL:      execution.PipelineURL,
		BuildID:          execution.BuildID,
		CreatedAt:        time.Now().UTC(),
	}

	if err := c.store.CreateDefect(ctx, tx, defect); err != nil {
		return fmt.Errorf("failed to create defect: %w", err)
	}
	if err := c.store.LinkDefect(ctx, tx, execution.ID, defect.ID); err != nil {
		return fmt.Errorf("failed to link execution: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit defect: %w", err)
	}

	c.log.Info("defect auto-created", "defect", defect.ID, "test", execution.TestName)

	// Everything past this point is best-effort: the defect exists even if
	// assignment or notification fails.
	c.assign(ctx, defect)

	c.appendActivity(ctx, defect.ID, "defect_auto_created", map[string]any{
		"test_name": execution.TestName,
		"suite_id":  execution.SuiteID,
		"build_id":  execution.BuildID,
	})

	payload := map[string]any{
		"defect_id": defect.ID.String(),
		"test_name": execution.TestName,
		"suite_id":  execution.SuiteID,
		"severity":  string(defect.Severity),
		"priority":  string(defect.Priority),
		"branch":    execution.Branch,
	}
	if defect.AssigneeID != nil {
		payload["assignee_id"] = defect.AssigneeID.String()
	}
	c.events.Evaluate(ctx, TriggerDefectCreated, payload, &defect.ID)
	return nil
}

// assign runs the assignment heuristic over the QA pool and, when it yields
// a candidate, sets the assignee and notifies them.
func (c *Coordinator) assign(ctx context.Context, defect *store.Defect) {
	pool, err := c.store.ListTriagePool(ctx)
	if err != nil {
		c.log.Error("failed to load assignment pool", "defect", defect.ID, "error", err)
		return
	}
	if len(pool) == 0 {
		return
	}

	ids := make([]uuid.UUID, len(pool))
	for i, user := range pool {
		ids[i] = user.ID
	}
	counts, err := c.store.CountOpenByAssignee(ctx, ids)
	if err != nil {
		c.log.Error("failed to load workloads", "defect", defect.ID, "error", err)
		return
	}

	candidates := make([]Candidate, len(pool))
	for i, user := range pool {
		candidates[i] = Candidate{User: user, OpenDefects: counts[user.ID]}
	}

	assignee := PickAssignee(defect, candidates)
	if assignee == nil {
		c.log.Info("defect left unassigned", "defect", defect.ID)
		return
	}

	if err := c.store.UpdateAssignee(ctx, defect.ID, *assignee); err != nil {
		c.log.Error("failed to set assignee", "defect", defect.ID, "error", err)
		return
	}
	defect.AssigneeID = assignee

	err = c.notifier.Send(ctx, *assignee, store.NotificationDefectAssigned,
		"Defect assigned to you", defect.Title,
		map[string]any{"defect_id": defect.ID.String()}, defect.Priority)
	if err != nil {
		c.log.Error("failed to notify assignee", "defect", defect.ID, "error", err)
	}
}

func (c *Coordinator) appendActivity(ctx context.Context, subjectID uuid.UUID, action string, details map[string]any) {
	raw, err := json.Marshal(details)
	if err != nil {
		c.log.Error("failed to marshal activity details", "action", action, "error", err)
		raw = nil
	}
	entry := &store.ActivityEntry{
		SubjectID: subjectID,
		ActorID:   store.SystemActor,
		Action:    action,
		Details:   raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.AppendActivity(ctx, entry); err != nil {
		c.log.Error("failed to append activity", "action", action, "error", err)
	}
}

// composeDescription builds the defect body from the failure report,
// substituting placeholders for absent fields.
func composeDescription(execution *store.TestExecution) string {
	errorMessage := fieldPlaceholder
	if execution.ErrorMessage != nil && *execution.ErrorMessage != "" {
		errorMessage = *execution.ErrorMessage
	}
	stackTrace := fieldPlaceholder
	if execution.StackTrace != nil && *execution.StackTrace != "" {
		stackTrace = *execution.StackTrace
	}
	suite := execution.SuiteID
	if suite == "" {
		suite = fieldPlaceholder
	}
	branch := execution.Branch
	if branch == "" {
		branch = fieldPlaceholder
	}
	commit := execution.CommitSHA
	if commit == "" {
		commit = fieldPlaceholder
	}

	return fmt.Sprintf(`Automated defect created from a failing CI test.

Suite: %s
Branch: %s
Commit: %s

Error:
%s

Stack trace:
%s`, suite, branch, commit, errorMessage, stackTrace)
}
