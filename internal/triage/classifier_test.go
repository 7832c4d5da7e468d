package triage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"flakewatch/internal/store"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type flakyUpdate struct {
	testName string
	flaky    bool
	score    float64
}

type mockClassifierStore struct {
	mu         sync.Mutex
	executions []store.TestExecution
	recentErr  error
	setErr     error
	updates    []flakyUpdate
}

func (m *mockClassifierStore) RecentExecutions(ctx context.Context, testName string, since time.Time, limit int) ([]store.TestExecution, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if len(m.executions) > limit {
		return m.executions[:limit], nil
	}
	return m.executions, nil
}

func (m *mockClassifierStore) SetFlaky(ctx context.Context, testName string, flaky bool, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, flakyUpdate{testName: testName, flaky: flaky, score: score})
	return m.setErr
}

type recordedEvent struct {
	trigger string
	payload map[string]any
}

type mockEventSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (m *mockEventSink) Evaluate(ctx context.Context, trigger string, payload map[string]any, defectID *uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{trigger: trigger, payload: payload})
	return 0
}

func defaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		WindowDays: 30,
		SampleMax:  50,
		SampleMin:  10,
		LowerBound: 0.10,
		UpperBound: 0.90,
	}
}

func executionsWithFailures(total, failed int) []store.TestExecution {
	executions := make([]store.TestExecution, total)
	for i := range executions {
		outcome := store.TestOutcomePassed
		if i < failed {
			outcome = store.TestOutcomeFailed
		}
		executions[i] = store.TestExecution{
			ID:       uuid.New(),
			TestName: "flaky_test",
			Outcome:  outcome,
		}
	}
	return executions
}

func TestClassify_InsufficientSampleMakesNoDetermination(t *testing.T) {
	s := &mockClassifierStore{executions: executionsWithFailures(9, 4)}
	c := NewClassifier(s, &mockEventSink{}, defaultClassifierConfig(), testLogger())

	if err := c.Classify(context.Background(), "flaky_test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.updates) != 0 {
		t.Errorf("expected no flag updates below sample floor, got %+v", s.updates)
	}
}

func TestClassify_Band(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		failed    int
		wantFlaky bool
	}{
		{"never fails is stable", 20, 0, false},
		{"always fails is broken not flaky", 20, 20, false},
		{"exactly lower bound excluded", 20, 2, false},  // 0.10
		{"exactly upper bound excluded", 20, 18, false}, // 0.90
		{"just inside lower bound", 20, 3, true},        // 0.15
		{"just inside upper bound", 20, 17, true},       // 0.85
		{"quarter failure rate", 12, 3, true},           // 0.25
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockClassifierStore{executions: executionsWithFailures(tt.total, tt.failed)}
			c := NewClassifier(s, &mockEventSink{}, defaultClassifierConfig(), testLogger())

			if err := c.Classify(context.Background(), "flaky_test"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(s.updates) != 1 {
				t.Fatalf("expected exactly one flag update, got %d", len(s.updates))
			}
			if s.updates[0].flaky != tt.wantFlaky {
				t.Errorf("flaky = %v, want %v (rate %.2f)",
					s.updates[0].flaky, tt.wantFlaky, float64(tt.failed)/float64(tt.total))
			}
		})
	}
}

func TestClassify_ScoreMatchesFailureRate(t *testing.T) {
	// 12 executions, 3 failed: rate 0.25.
	s := &mockClassifierStore{executions: executionsWithFailures(12, 3)}
	events := &mockEventSink{}
	c := NewClassifier(s, events, defaultClassifierConfig(), testLogger())

	if err := c.Classify(context.Background(), "flaky_test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(s.updates))
	}
	if math.Abs(s.updates[0].score-0.25) > 1e-9 {
		t.Errorf("score = %v, want 0.25", s.updates[0].score)
	}
	if !s.updates[0].flaky {
		t.Error("expected test flagged flaky")
	}

	if len(events.events) != 1 || events.events[0].trigger != TriggerFlakyDetected {
		t.Fatalf("expected one %s event, got %+v", TriggerFlakyDetected, events.events)
	}
	if rate, _ := events.events[0].payload["failure_rate"].(float64); math.Abs(rate-0.25) > 1e-9 {
		t.Errorf("event failure_rate = %v, want 0.25", rate)
	}
}

func TestClassify_ClearsFlagOutsideBand(t *testing.T) {
	executions := executionsWithFailures(20, 0)
	for i := range executions {
		executions[i].Flaky = true
		executions[i].FlakyScore = 0.5
	}
	s := &mockClassifierStore{executions: executions}
	events := &mockEventSink{}
	c := NewClassifier(s, events, defaultClassifierConfig(), testLogger())

	if err := c.Classify(context.Background(), "flaky_test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.updates) != 1 || s.updates[0].flaky {
		t.Errorf("expected flag cleared, got %+v", s.updates)
	}
	if len(events.events) != 0 {
		t.Errorf("expected no event when clearing, got %+v", events.events)
	}
}

func TestClassify_StoreErrorPropagates(t *testing.T) {
	s := &mockClassifierStore{recentErr: errors.New("db down")}
	c := NewClassifier(s, &mockEventSink{}, defaultClassifierConfig(), testLogger())

	if err := c.Classify(context.Background(), "flaky_test"); err == nil {
		t.Error("expected error when the window query fails")
	}
}
