package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("store: not found")

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx.
// This allows us to pass either a connection pool or an active transaction
// to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// ExecutionStore handles the persistence of reported test executions.
type ExecutionStore interface {
	// CreateExecution inserts a new test execution record.
	CreateExecution(ctx context.Context, tx DBTransaction, execution *TestExecution) error

	// GetExecutionByID returns an execution by its ID.
	GetExecutionByID(ctx context.Context, id uuid.UUID) (*TestExecution, error)

	// RecentExecutions returns up to limit executions of the named test case
	// reported at or after since, most recent first.
	RecentExecutions(ctx context.Context, testName string, since time.Time, limit int) ([]TestExecution, error)

	// SetFlaky updates the flaky flag and score on every execution of the
	// named test case.
	SetFlaky(ctx context.Context, testName string, flaky bool, score float64) error

	// LinkDefect points an execution at the defect it produced or regressed.
	LinkDefect(ctx context.Context, tx DBTransaction, executionID, defectID uuid.UUID) error

	// ListFlakyTests returns the test cases currently flagged as flaky.
	ListFlakyTests(ctx context.Context) ([]FlakyTest, error)
}

// DefectStore handles the persistence of defects.
type DefectStore interface {
	// CreateDefect inserts a new defect.
	CreateDefect(ctx context.Context, tx DBTransaction, defect *Defect) error

	// GetDefectByID returns a defect by its ID.
	GetDefectByID(ctx context.Context, id uuid.UUID) (*Defect, error)

	// FindOpenByAutomationTest returns the most recently created defect
	// linked to the named automation test, created at or after since, whose
	// status is not resolved or closed. Returns ErrNotFound when there is
	// no match.
	FindOpenByAutomationTest(ctx context.Context, tx DBTransaction, testName string, since time.Time) (*Defect, error)

	// RecordRegression increments the defect's regression count, marks it a
	// regression and refreshes the pipeline URL and build id to the latest
	// failure. The increment is a single UPDATE so concurrent failures of
	// the same test cannot lose counts.
	RecordRegression(ctx context.Context, tx DBTransaction, id uuid.UUID, pipelineURL, buildID string) error

	// UpdateAssignee sets the defect's assignee.
	UpdateAssignee(ctx context.Context, id, userID uuid.UUID) error

	// UpdatePriority sets the defect's priority.
	UpdatePriority(ctx context.Context, id uuid.UUID, priority Priority) error

	// AddLabel appends a label to the defect's label set. Duplicates are
	// tolerated.
	AddLabel(ctx context.Context, id uuid.UUID, label string) error

	// ListOpenDefects returns non-terminal defects, newest first.
	ListOpenDefects(ctx context.Context, limit, offset int) ([]Defect, error)

	// CountOpenDefects returns the number of non-terminal defects.
	CountOpenDefects(ctx context.Context) (int64, error)

	// CountOpenByAssignee returns, for each given user, the number of
	// non-terminal defects currently assigned to them. Users with no open
	// defects are absent from the result.
	CountOpenByAssignee(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// RuleStore provides read access to stored workflow rules.
type RuleStore interface {
	// ListActiveRulesByTrigger returns the active rules registered for the
	// given trigger event, oldest first.
	ListActiveRulesByTrigger(ctx context.Context, trigger string) ([]WorkflowRule, error)

	// ListRules returns all rules, oldest first.
	ListRules(ctx context.Context) ([]WorkflowRule, error)
}

// NotificationStore handles the persistence of notifications.
type NotificationStore interface {
	// CreateNotification inserts a new notification record.
	CreateNotification(ctx context.Context, n *Notification) error
}

// ActivityStore is the append-only audit trail. The core never reads it back.
type ActivityStore interface {
	// AppendActivity inserts one audit record.
	AppendActivity(ctx context.Context, entry *ActivityEntry) error
}

// UserStore provides read access to user accounts.
type UserStore interface {
	// GetUserByID returns a user by its ID.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// ListTriagePool returns active users with a QA-related role, ordered
	// by account id so assignment tie-breaks are stable.
	ListTriagePool(ctx context.Context) ([]User, error)
}
