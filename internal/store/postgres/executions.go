package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"flakewatch/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const executionColumns = `id, suite_id, test_name, outcome, duration_ms, error_message, stack_trace,
	screenshots, build_id, pipeline_url, branch, commit_sha, flaky, flaky_score, defect_id,
	reported_at, created_at`

func (s *Store) CreateExecution(ctx context.Context, tx store.DBTransaction, execution *store.TestExecution) error {
	executor := s.getExecutor(tx)

	query := `
	INSERT INTO test_executions
		(id, suite_id, test_name, outcome, duration_ms, error_message, stack_trace,
		 screenshots, build_id, pipeline_url, branch, commit_sha, flaky, flaky_score,
		 reported_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := executor.ExecContext(ctx, query,
		execution.ID, execution.SuiteID, execution.TestName, execution.Outcome,
		execution.DurationMS, execution.ErrorMessage, execution.StackTrace,
		pq.Array(execution.Screenshots), execution.BuildID, execution.PipelineURL,
		execution.Branch, execution.CommitSHA, execution.Flaky, execution.FlakyScore,
		execution.ReportedAt, execution.CreatedAt,
	)
	return err
}

func (s *Store) GetExecutionByID(ctx context.Context, id uuid.UUID) (*store.TestExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM test_executions WHERE id = $1`

	execution, err := scanExecution(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return execution, nil
}

func (s *Store) RecentExecutions(ctx context.Context, testName string, since time.Time, limit int) ([]store.TestExecution, error) {
	query := `
	SELECT ` + executionColumns + `
	FROM test_executions
	WHERE test_name = $1 AND reported_at >= $2
	ORDER BY reported_at DESC
	LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, testName, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var executions []store.TestExecution
	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, *execution)
	}
	return executions, rows.Err()
}

func (s *Store) SetFlaky(ctx context.Context, testName string, flaky bool, score float64) error {
	query := `UPDATE test_executions SET flaky = $2, flaky_score = $3 WHERE test_name = $1`

	_, err := s.db.ExecContext(ctx, query, testName, flaky, score)
	return err
}

func (s *Store) LinkDefect(ctx context.Context, tx store.DBTransaction, executionID, defectID uuid.UUID) error {
	executor := s.getExecutor(tx)

	query := `UPDATE test_executions SET defect_id = $2 WHERE id = $1`

	_, err := executor.ExecContext(ctx, query, executionID, defectID)
	return err
}

func (s *Store) ListFlakyTests(ctx context.Context) ([]store.FlakyTest, error) {
	query := `
	SELECT suite_id, test_name, MAX(flaky_score), COUNT(*), MAX(reported_at)
	FROM test_executions
	WHERE flaky
	GROUP BY suite_id, test_name
	ORDER BY suite_id, test_name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []store.FlakyTest
	for rows.Next() {
		var t store.FlakyTest
		if err := rows.Scan(&t.SuiteID, &t.TestName, &t.FlakyScore, &t.SampleCount, &t.LastExecution); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExecution(row rowScanner) (*store.TestExecution, error) {
	var execution store.TestExecution
	err := row.Scan(
		&execution.ID, &execution.SuiteID, &execution.TestName, &execution.Outcome,
		&execution.DurationMS, &execution.ErrorMessage, &execution.StackTrace,
		pq.Array(&execution.Screenshots), &execution.BuildID, &execution.PipelineURL,
		&execution.Branch, &execution.CommitSHA, &execution.Flaky, &execution.FlakyScore,
		&execution.DefectID, &execution.ReportedAt, &execution.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &execution, nil
}
