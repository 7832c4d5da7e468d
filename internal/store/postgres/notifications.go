package postgres

import (
	"context"

	"flakewatch/internal/store"
)

func (s *Store) CreateNotification(ctx context.Context, n *store.Notification) error {
	query := `
	INSERT INTO notifications (id, user_id, type, title, message, payload, priority, read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Payload, n.Priority, n.Read, n.CreatedAt,
	)
	return err
}
