package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
)

// AuditRepository stores the persistence audit trail in Postgres.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an audit repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts one audit record.
func (r *AuditRepository) Create(ctx context.Context, audit *models.PersistAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO persist_audit (id, event_id, persist_seq, operation, entry_count, outcome, error_message, request_id, created_at) VALUES (:id, :event_id, :persist_seq, :operation, :entry_count, :outcome, :error_message, :request_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, audit); err != nil {
		return fmt.Errorf("create persist audit: %w", err)
	}
	return nil
}

// ListByEvent returns the most recent audit records for an event, newest first.
func (r *AuditRepository) ListByEvent(ctx context.Context, eventID string, limit int) ([]models.PersistAudit, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `SELECT id, event_id, persist_seq, operation, entry_count, outcome, error_message, request_id, created_at FROM persist_audit WHERE event_id = $1 ORDER BY created_at DESC, persist_seq DESC LIMIT $2`
	var audits []models.PersistAudit
	if err := r.db.SelectContext(ctx, &audits, query, eventID, limit); err != nil {
		return nil, fmt.Errorf("list persist audit: %w", err)
	}
	return audits, nil
}
