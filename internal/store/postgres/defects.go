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

const defectColumns = `id, title, description, severity, priority, status, environment,
	reporter_id, assignee_id, labels, is_regression, regression_count, automation_test_id,
	pipeline_url, build_id, created_at, resolved_at`

func (s *Store) CreateDefect(ctx context.Context, tx store.DBTransaction, defect *store.Defect) error {
	executor := s.getExecutor(tx)

	query := `
	INSERT INTO defects
		(id, title, description, severity, priority, status, environment,
		 reporter_id, assignee_id, labels, is_regression, regression_count,
		 automation_test_id, pipeline_url, build_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := executor.ExecContext(ctx, query,
		defect.ID, defect.Title, defect.Description, defect.Severity, defect.Priority,
		defect.Status, defect.Environment, defect.ReporterID, defect.AssigneeID,
		pq.Array(defect.Labels), defect.IsRegression, defect.RegressionCount,
		defect.AutomationTestID, defect.PipelineURL, defect.BuildID, defect.CreatedAt,
	)
	return err
}

func (s *Store) GetDefectByID(ctx context.Context, id uuid.UUID) (*store.Defect, error) {
	query := `SELECT ` + defectColumns + ` FROM defects WHERE id = $1`

	defect, err := scanDefect(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return defect, nil
}

func (s *Store) FindOpenByAutomationTest(ctx context.Context, tx store.DBTransaction, testName string, since time.Time) (*store.Defect, error) {
	executor := s.getExecutor(tx)

	// Most recent match wins; older duplicates are left untouched.
	query := `
	SELECT ` + defectColumns + `
	FROM defects
	WHERE automation_test_id = $1
	  AND created_at >= $2
	  AND status NOT IN ('resolved', 'closed')
	ORDER BY created_at DESC
	LIMIT 1
	`

	defect, err := scanDefect(executor.QueryRowContext(ctx, query, testName, since))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return defect, nil
}

func (s *Store) RecordRegression(ctx context.Context, tx store.DBTransaction, id uuid.UUID, pipelineURL, buildID string) error {
	executor := s.getExecutor(tx)

	// Single UPDATE so two concurrent failures cannot lose an increment.
	query := `
	UPDATE defects
	SET regression_count = regression_count + 1,
	    is_regression = TRUE,
	    pipeline_url = $2,
	    build_id = $3
	WHERE id = $1
	`

	_, err := executor.ExecContext(ctx, query, id, pipelineURL, buildID)
	return err
}

func (s *Store) UpdateAssignee(ctx context.Context, id, userID uuid.UUID) error {
	query := `UPDATE defects SET assignee_id = $2 WHERE id = $1`

	_, err := s.db.ExecContext(ctx, query, id, userID)
	return err
}

func (s *Store) UpdatePriority(ctx context.Context, id uuid.UUID, priority store.Priority) error {
	query := `UPDATE defects SET priority = $2 WHERE id = $1`

	_, err := s.db.ExecContext(ctx, query, id, priority)
	return err
}

func (s *Store) AddLabel(ctx context.Context, id uuid.UUID, label string) error {
	query := `UPDATE defects SET labels = array_append(labels, $2) WHERE id = $1`

	_, err := s.db.ExecContext(ctx, query, id, label)
	return err
}

func (s *Store) ListOpenDefects(ctx context.Context, limit, offset int) ([]store.Defect, error) {
	query := `
	SELECT ` + defectColumns + `
	FROM defects
	WHERE status NOT IN ('resolved', 'closed')
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defects []store.Defect
	for rows.Next() {
		defect, err := scanDefect(rows)
		if err != nil {
			return nil, err
		}
		defects = append(defects, *defect)
	}
	return defects, rows.Err()
}

func (s *Store) CountOpenDefects(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM defects WHERE status NOT IN ('resolved', 'closed')`

	var count int64
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func (s *Store) CountOpenByAssignee(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	query := `
	SELECT assignee_id, COUNT(*)
	FROM defects
	WHERE assignee_id = ANY($1)
	  AND status NOT IN ('resolved', 'closed')
	GROUP BY assignee_id
	`

	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

func scanDefect(row rowScanner) (*store.Defect, error) {
	var defect store.Defect
	err := row.Scan(
		&defect.ID, &defect.Title, &defect.Description, &defect.Severity, &defect.Priority,
		&defect.Status, &defect.Environment, &defect.ReporterID, &defect.AssigneeID,
		pq.Array(&defect.Labels), &defect.IsRegression, &defect.RegressionCount,
		&defect.AutomationTestID, &defect.PipelineURL, &defect.BuildID,
		&defect.CreatedAt, &defect.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &defect, nil
}
