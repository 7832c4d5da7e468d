// Package store contains the database layer for flakewatch.
package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TestOutcome represents the reported result of a single test run.
type TestOutcome string

const (
	TestOutcomePassed  TestOutcome = "passed"
	TestOutcomeFailed  TestOutcome = "failed"
	TestOutcomeSkipped TestOutcome = "skipped"
)

// Valid reports whether the outcome is one of the known values.
func (o TestOutcome) Valid() bool {
	switch o {
	case TestOutcomePassed, TestOutcomeFailed, TestOutcomeSkipped:
		return true
	}
	return false
}

// TestExecution is one reported outcome of running a test case within a build.
// Immutable after creation except for the flaky flag/score (set by the
// classifier) and the defect link (set by the triage coordinator).
type TestExecution struct {
	ID           uuid.UUID
	SuiteID      string
	TestName     string
	Outcome      TestOutcome
	DurationMS   *int64
	ErrorMessage *string
	StackTrace   *string
	Screenshots  []string
	BuildID      string
	PipelineURL  string
	Branch       string
	CommitSHA    string
	Flaky        bool
	FlakyScore   float64
	DefectID     *uuid.UUID
	ReportedAt   time.Time
	CreatedAt    time.Time
}

// Severity of a defect.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
	SeverityBlocker  Severity = "blocker"
)

// Priority of a defect or notification.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// DefectStatus represents the workflow state of a defect.
type DefectStatus string

const (
	DefectStatusOpen       DefectStatus = "open"
	DefectStatusInProgress DefectStatus = "in_progress"
	DefectStatusResolved   DefectStatus = "resolved"
	DefectStatusClosed     DefectStatus = "closed"
)

// Terminal reports whether the status is Resolved or Closed.
func (s DefectStatus) Terminal() bool {
	return s == DefectStatusResolved || s == DefectStatusClosed
}

// Defect is a tracked issue. Defects linked to an automation test are created
// and updated by the triage coordinator; status transitions past Open belong
// to the human workflow.
type Defect struct {
	ID               uuid.UUID
	Title            string
	Description      string
	Severity         Severity
	Priority         Priority
	Status           DefectStatus
	Environment      string
	ReporterID       uuid.UUID
	AssigneeID       *uuid.UUID
	Labels           []string
	IsRegression     bool
	RegressionCount  int
	AutomationTestID *string
	PipelineURL      string
	BuildID          string
	CreatedAt        time.Time
	ResolvedAt       *time.Time
}

// RuleCondition is one node of a rule's condition tree. A node is a group
// when Rules is non-empty (Operator is then "AND" or "OR"); otherwise it is
// a leaf comparing the payload value at Field against Value.
// The zero value (no rules, no field) evaluates to true.
type RuleCondition struct {
	Operator string          `json:"operator,omitempty"`
	Rules    []RuleCondition `json:"rules,omitempty"`
	Field    string          `json:"field,omitempty"`
	Value    any             `json:"value,omitempty"`
}

// ActionType discriminates the variants of a rule action.
type ActionType string

const (
	ActionAssignUser       ActionType = "assign_user"
	ActionAddLabel         ActionType = "add_label"
	ActionSendNotification ActionType = "send_notification"
	ActionChangePriority   ActionType = "change_priority"
)

// RuleAction is one step of a workflow rule. Only the fields relevant to
// Type are populated.
type RuleAction struct {
	Type     ActionType `json:"type"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	Label    string     `json:"label,omitempty"`
	Template string     `json:"template,omitempty"`
	Priority Priority   `json:"priority,omitempty"`
}

// WorkflowRule is a stored automation definition. The engine only reads
// rules; creation and editing happen through an administrative surface.
type WorkflowRule struct {
	ID         uuid.UUID
	Name       string
	Trigger    string
	Conditions RuleCondition
	Actions    []RuleAction
	Active     bool
	CreatedAt  time.Time
}

// NotificationType classifies a notification for the receiving client.
type NotificationType string

const (
	NotificationDefectAssigned NotificationType = "defect_assigned"
	NotificationRuleTriggered  NotificationType = "rule_triggered"
)

// Notification is a message addressed to one user. The core creates the
// record; delivery is the notifier's concern.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      NotificationType
	Title     string
	Message   string
	Payload   json.RawMessage
	Priority  Priority
	Read      bool
	CreatedAt time.Time
}

// SystemActor is the actor id recorded for actions taken by the triage
// engine rather than a person.
const SystemActor = "system"

// ActivityEntry is one append-only audit record.
type ActivityEntry struct {
	ID        int64
	SubjectID uuid.UUID
	ActorID   string
	Action    string
	Details   json.RawMessage
	CreatedAt time.Time
}

// User is an account that can report defects, be assigned to them, or
// receive notifications.
type User struct {
	ID          uuid.UUID
	Name        string
	Email       string
	Role        string
	Skills      string
	Bio         string
	Permissions []string
	Active      bool
	CreatedAt   time.Time
}

// HasPermission reports whether the user holds the named permission.
func (u *User) HasPermission(name string) bool {
	for _, p := range u.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// FlakyTest is an aggregate row describing a test case currently flagged
// as flaky.
type FlakyTest struct {
	SuiteID       string
	TestName      string
	FlakyScore    float64
	SampleCount   int
	LastExecution time.Time
}
