package handlers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"flakewatch/internal/store"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStore implements StoreFactory for handler tests. Zero value behaves
// like an empty, healthy database.
type mockStore struct {
	pingErr error

	executions map[uuid.UUID]*store.TestExecution
	createdErr error
	created    []*store.TestExecution

	defects    map[uuid.UUID]*store.Defect
	openList   []store.Defect
	listErr    error
	lastLimit  int
	lastOffset int

	flaky    []store.FlakyTest
	flakyErr error

	rules    []store.WorkflowRule
	rulesErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		executions: make(map[uuid.UUID]*store.TestExecution),
		defects:    make(map[uuid.UUID]*store.Defect),
	}
}

func (m *mockStore) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockStore) CreateExecution(ctx context.Context, tx store.DBTransaction, execution *store.TestExecution) error {
	if m.createdErr != nil {
		return m.createdErr
	}
	m.created = append(m.created, execution)
	m.executions[execution.ID] = execution
	return nil
}

func (m *mockStore) GetExecutionByID(ctx context.Context, id uuid.UUID) (*store.TestExecution, error) {
	execution, ok := m.executions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return execution, nil
}

func (m *mockStore) RecentExecutions(ctx context.Context, testName string, since time.Time, limit int) ([]store.TestExecution, error) {
	return nil, nil
}

func (m *mockStore) SetFlaky(ctx context.Context, testName string, flaky bool, score float64) error {
	return nil
}

func (m *mockStore) LinkDefect(ctx context.Context, tx store.DBTransaction, executionID, defectID uuid.UUID) error {
	return nil
}

func (m *mockStore) ListFlakyTests(ctx context.Context) ([]store.FlakyTest, error) {
	return m.flaky, m.flakyErr
}

func (m *mockStore) CreateDefect(ctx context.Context, tx store.DBTransaction, defect *store.Defect) error {
	m.defects[defect.ID] = defect
	return nil
}

func (m *mockStore) GetDefectByID(ctx context.Context, id uuid.UUID) (*store.Defect, error) {
	defect, ok := m.defects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return defect, nil
}

func (m *mockStore) FindOpenByAutomationTest(ctx context.Context, tx store.DBTransaction, testName string, since time.Time) (*store.Defect, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) RecordRegression(ctx context.Context, tx store.DBTransaction, id uuid.UUID, pipelineURL, buildID string) error {
	return nil
}

func (m *mockStore) UpdateAssignee(ctx context.Context, id, userID uuid.UUID) error { return nil }

func (m *mockStore) UpdatePriority(ctx context.Context, id uuid.UUID, priority store.Priority) error {
	return nil
}

func (m *mockStore) AddLabel(ctx context.Context, id uuid.UUID, label string) error { return nil }

func (m *mockStore) ListOpenDefects(ctx context.Context, limit, offset int) ([]store.Defect, error) {
	m.lastLimit = limit
	m.lastOffset = offset
	return m.openList, m.listErr
}

func (m *mockStore) CountOpenDefects(ctx context.Context) (int64, error) {
	return int64(len(m.openList)), nil
}

func (m *mockStore) CountOpenByAssignee(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return nil, nil
}

func (m *mockStore) ListActiveRulesByTrigger(ctx context.Context, trigger string) ([]store.WorkflowRule, error) {
	return m.rules, m.rulesErr
}

func (m *mockStore) ListRules(ctx context.Context) ([]store.WorkflowRule, error) {
	return m.rules, m.rulesErr
}

// mockDispatcher records dispatched executions instead of triaging them.
type mockDispatcher struct {
	dispatched []store.TestExecution
}

func (m *mockDispatcher) Dispatch(execution store.TestExecution) {
	m.dispatched = append(m.dispatched, execution)
}
