package triage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flakewatch/internal/store"
)

// Pipeline runs the post-ingest continuations: classification, triage and
// rule evaluation. The webhook caller gets its acknowledgment once the
// execution row is durable; everything here is asynchronous relative to
// that response and failures are logged, never surfaced to the caller.
type Pipeline struct {
	classifier  *Classifier
	coordinator *Coordinator
	events      EventSink
	log         *slog.Logger

	timeout time.Duration
	sem     chan struct{}
	wg      sync.WaitGroup
}

// NewPipeline creates a pipeline that processes at most concurrency events
// at a time. Each event gets its own timeout context.
func NewPipeline(classifier *Classifier, coordinator *Coordinator, events EventSink,
	concurrency int, log *slog.Logger) *Pipeline {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		classifier:  classifier,
		coordinator: coordinator,
		events:      events,
		log:         log,
		timeout:     30 * time.Second,
		sem:         make(chan struct{}, concurrency),
	}
}

// Dispatch hands one recorded execution to the pipeline and returns
// immediately. The unit of work is one event; partial completion is handled
// by each stage's failure semantics, not by rollback.
func (p *Pipeline) Dispatch(execution store.TestExecution) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sem <- struct{}{}
		defer func() { <-p.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.process(ctx, &execution)
	}()
}

func (p *Pipeline) process(ctx context.Context, execution *store.TestExecution) {
	// Classification first; its failure must not block triage.
	if err := p.classifier.Classify(ctx, execution.TestName); err != nil {
		p.log.Error("classification failed", "test", execution.TestName, "error", err)
	}

	if execution.Outcome != store.TestOutcomeFailed {
		return
	}

	payload := map[string]any{
		"execution_id": execution.ID.String(),
		"test_name":    execution.TestName,
		"suite_id":     execution.SuiteID,
		"outcome":      string(execution.Outcome),
		"branch":       execution.Branch,
		"commit_sha":   execution.CommitSHA,
		"build_id":     execution.BuildID,
	}
	if execution.ErrorMessage != nil {
		payload["error_message"] = *execution.ErrorMessage
	}
	if execution.DurationMS != nil {
		payload["duration_ms"] = *execution.DurationMS
	}
	p.events.Evaluate(ctx, TriggerTestFailed, payload, nil)

	if err := p.coordinator.Triage(ctx, execution); err != nil {
		p.log.Error("triage failed", "test", execution.TestName, "error", err)
	}
}

// Shutdown waits for in-flight events to finish or the context to expire.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
