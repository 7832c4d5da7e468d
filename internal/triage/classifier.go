package triage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"flakewatch/internal/store"

	"github.com/google/uuid"
)

// Trigger event names published by the triage engine.
const (
	TriggerTestFailed    = "test.failed"
	TriggerFlakyDetected = "test.flaky_detected"
	TriggerDefectCreated = "defect.created"
	TriggerDefectRegress = "defect.regressed"
)

// EventSink receives trigger events for rule evaluation. The rule engine
// implements it.
type EventSink interface {
	Evaluate(ctx context.Context, trigger string, payload map[string]any, defectID *uuid.UUID) int
}

// ClassifierStore is the subset of the execution store the classifier needs.
type ClassifierStore interface {
	RecentExecutions(ctx context.Context, testName string, since time.Time, limit int) ([]store.TestExecution, error)
	SetFlaky(ctx context.Context, testName string, flaky bool, score float64) error
}

// ClassifierConfig holds the sliding-window parameters. The defaults are
// hand-tuned; treat them as a starting point, not ground truth.
type ClassifierConfig struct {
	WindowDays int     // trailing window in days
	SampleMax  int     // at most this many recent executions
	SampleMin  int     // below this, no determination is made
	LowerBound float64 // flaky iff lower < failure rate < upper, strictly
	UpperBound float64
}

// Classifier computes, per test case, a failure rate over a trailing window
// of executions and flags or unflags flakiness.
type Classifier struct {
	store  ClassifierStore
	events EventSink
	cfg    ClassifierConfig
	log    *slog.Logger
}

// NewClassifier creates a flaky-test classifier.
func NewClassifier(s ClassifierStore, events EventSink, cfg ClassifierConfig, log *slog.Logger) *Classifier {
	return &Classifier{store: s, events: events, cfg: cfg, log: log}
}

// Classify recomputes the flaky flag for the named test case.
//
// A test that always fails is broken and a test that never fails is stable;
// neither is flaky, hence the open interval. With fewer than SampleMin
// executions in the window no determination is made and prior flags stand.
func (c *Classifier) Classify(ctx context.Context, testName string) error {
	since := time.Now().UTC().AddDate(0, 0, -c.cfg.WindowDays)
	executions, err := c.store.RecentExecutions(ctx, testName, since, c.cfg.SampleMax)
	if err != nil {
		return fmt.Errorf("failed to load execution window: %w", err)
	}

	sample := len(executions)
	if sample < c.cfg.SampleMin {
		c.log.Debug("insufficient sample for classification",
			"test", testName, "sample", sample, "min", c.cfg.SampleMin)
		return nil
	}

	failed := 0
	for _, execution := range executions {
		if execution.Outcome == store.TestOutcomeFailed {
			failed++
		}
	}
	rate := float64(failed) / float64(sample)
	flaky := rate > c.cfg.LowerBound && rate < c.cfg.UpperBound

	if err := c.store.SetFlaky(ctx, testName, flaky, rate); err != nil {
		return fmt.Errorf("failed to update flaky flag: %w", err)
	}

	if flaky {
		c.log.Info("flaky test detected",
			"test", testName, "failure_rate", rate, "sample", sample)
		c.events.Evaluate(ctx, TriggerFlakyDetected, map[string]any{
			"test_name":    testName,
			"failure_rate": rate,
			"flaky_score":  rate,
			"sample_count": sample,
		}, nil)
	}
	return nil
}
