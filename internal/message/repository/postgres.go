package repository

import (
	"context"

	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/message/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a message repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const defaultMessageLimit = 100

// ListMessagesForOrg returns messages sent to or from the org, newest first.
func (r *PostgresRepository) ListMessagesForOrg(ctx context.Context, orgID string, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, from_org_id, to_org_id, user_id, body, created_at FROM messages
		 WHERE from_org_id = $1 OR to_org_id = $1
		 ORDER BY created_at DESC LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.FromOrgID, &m.ToOrgID, &m.UserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// CreateMessage persists the message. The message must have ID set.
func (r *PostgresRepository) CreateMessage(ctx context.Context, m *domain.Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, from_org_id, to_org_id, user_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.FromOrgID, m.ToOrgID, m.UserID, m.Body, m.CreatedAt)
	return err
}
