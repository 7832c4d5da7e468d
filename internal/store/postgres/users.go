package postgres

import (
	"context"
	"database/sql"
	"errors"

	"flakewatch/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, name, email, role, skills, bio, permissions, active, created_at`

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) ListTriagePool(ctx context.Context) ([]store.User, error) {
	// Ordered by id so the assignment tie-break is stable across calls.
	query := `
	SELECT ` + userColumns + `
	FROM users
	WHERE active
	  AND (role ILIKE '%qa%' OR role ILIKE '%test%')
	ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []store.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.Skills, &user.Bio,
		pq.Array(&user.Permissions), &user.Active, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
