package repository

import (
	"context"
	"database/sql"
	"time"

	"attendance.service/internal/core/model"
)

// AuditPostgresRepository writes the employee audit trail.
type AuditPostgresRepository struct {
	DB *sql.DB
	// Timeout bounds each call. Zero leaves the caller's deadline alone.
	Timeout time.Duration
}

func NewAuditRepository(db *sql.DB) *AuditPostgresRepository {
	return &AuditPostgresRepository{DB: db}
}

// Insert appends one audit row. A redelivered event becomes a second row
// with the same event_id.
func (r *AuditPostgresRepository) Insert(ctx context.Context, row model.AuditTrail) error {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	query := `INSERT INTO employee_audit_trail (id, event_id, employee_id, entity, action, payload, event_timestamp, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	payload := row.Payload
	if len(payload) == 0 {
		payload = []byte("null")
	}

	_, err := r.DB.ExecContext(ctx, query,
		row.ID, row.EventID, row.EmployeeID, row.Entity, row.Action, string(payload), row.Timestamp, row.CreatedAt)
	return translate(err)
}
