package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"attendance.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttendancePostgresRepository is the concrete implementation for a PostgreSQL database.
type AttendancePostgresRepository struct {
	DB *sql.DB
	// Timeout bounds each call. Zero leaves the caller's deadline alone.
	Timeout time.Duration
}

// NewAttendanceRepository create new instance
func NewAttendanceRepository(db *sql.DB) *AttendancePostgresRepository {
	return &AttendancePostgresRepository{DB: db}
}

// ListBetween loads the employee's records inside [from, to).
func (r *AttendancePostgresRepository) ListBetween(ctx context.Context, employeeID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	query := `SELECT id, employee_id, type, timestamp
              FROM attendance
              WHERE employee_id = $1 AND timestamp >= $2 AND timestamp < $3
              ORDER BY timestamp ASC`

	rows, err := r.DB.QueryContext(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Type, &rec.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Insert appends a record. The unique index on (employee_id, work_day, type)
// turns a concurrent duplicate into ErrDuplicate.
func (r *AttendancePostgresRepository) Insert(ctx context.Context, rec model.AttendanceRecord, workDay string) error {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", rec.EmployeeID))

	query := `INSERT INTO attendance (id, employee_id, type, work_day, timestamp)
              VALUES ($1, $2, $3, $4, $5)`

	_, err := r.DB.ExecContext(ctx, query, rec.ID, rec.EmployeeID, rec.Type, workDay, rec.Timestamp)
	return translate(err)
}

// History returns one page of the employee's records, newest first.
func (r *AttendancePostgresRepository) History(ctx context.Context, employeeID string, dr model.DateRange, p model.Page) ([]model.AttendanceRecord, int64, error) {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	where, args := rangeFilter([]string{"a.employee_id = $1"}, []any{employeeID}, dr)

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendance a WHERE ` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	query := fmt.Sprintf(`SELECT a.id, a.employee_id, a.type, a.timestamp
              FROM attendance a
              WHERE %s
              ORDER BY a.timestamp DESC
              LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	rows, err := r.DB.QueryContext(ctx, query, append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	out := make([]model.AttendanceRecord, 0, p.Limit)
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Type, &rec.Timestamp); err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// Monitoring returns one page of records across all employees, newest first.
// Records of deleted employees keep an empty name.
func (r *AttendancePostgresRepository) Monitoring(ctx context.Context, dr model.DateRange, p model.Page) ([]model.MonitoringRecord, int64, error) {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	where, args := rangeFilter(nil, nil, dr)

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendance a WHERE ` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	query := fmt.Sprintf(`SELECT a.id, a.employee_id, COALESCE(e.name, ''), a.type, a.timestamp
              FROM attendance a
              LEFT JOIN employees e ON e.id = a.employee_id
              WHERE %s
              ORDER BY a.timestamp DESC
              LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	rows, err := r.DB.QueryContext(ctx, query, append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	out := make([]model.MonitoringRecord, 0, p.Limit)
	for rows.Next() {
		var rec model.MonitoringRecord
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &rec.Type, &rec.Timestamp); err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// rangeFilter appends the optional timestamp bounds to conds and returns the
// joined WHERE clause with its positional args.
func rangeFilter(conds []string, args []any, dr model.DateRange) (string, []any) {
	if dr.Start != nil {
		args = append(args, *dr.Start)
		conds = append(conds, fmt.Sprintf("a.timestamp >= $%d", len(args)))
	}
	if dr.End != nil {
		args = append(args, *dr.End)
		conds = append(conds, fmt.Sprintf("a.timestamp < $%d", len(args)))
	}
	if len(conds) == 0 {
		return "TRUE", args
	}
	return strings.Join(conds, " AND "), args
}
