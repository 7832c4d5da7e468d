package postgres

import (
	"context"

	"flakewatch/internal/store"
)

func (s *Store) AppendActivity(ctx context.Context, entry *store.ActivityEntry) error {
	query := `
	INSERT INTO activity_log (subject_id, actor_id, action, details, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.SubjectID, entry.ActorID, entry.Action, entry.Details, entry.CreatedAt,
	)
	return err
}
