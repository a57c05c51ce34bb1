package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/portalapi/portal-api/internal/model"
)

// SQLContactRepository handles contact message persistence on SQL databases.
type SQLContactRepository struct {
	db      *sql.DB
	dialect dialect
}

// NewContactRepository creates a contact repository for the given pool and DSN dialect.
func NewContactRepository(db *sql.DB, dsn string) *SQLContactRepository {
	return &SQLContactRepository{db: db, dialect: detectDialect(dsn)}
}

// Create stores a contact message as submitted.
func (r *SQLContactRepository) Create(ctx context.Context, msg *model.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	query := r.dialect.rebind(`INSERT INTO contact_messages (id, name, email, message, created_at)
		VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.Name, msg.Email, msg.Message, msg.CreatedAt)
	return err
}

// List retrieves contact messages, newest first.
func (r *SQLContactRepository) List(ctx context.Context, opts model.ContactListOptions) ([]model.ContactMessage, error) {
	query := r.dialect.rebind(`SELECT id, name, email, message, created_at
		FROM contact_messages ORDER BY created_at DESC LIMIT ? OFFSET ?`)

	rows, err := r.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.ContactMessage{}
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
