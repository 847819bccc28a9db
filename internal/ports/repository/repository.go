package repository

import (
	"context"
	"errors"
	"time"

	"attendance.service/internal/core/model"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// AttendanceRepository contract
type AttendanceRepository interface {
	// ListBetween returns the employee's records with from <= timestamp < to.
	ListBetween(ctx context.Context, employeeID string, from, to time.Time) ([]model.AttendanceRecord, error)
	// Insert persists rec. workDay is the calendar date the record counts
	// against; a second record of the same type on the same workDay fails with ErrDuplicate.
	Insert(ctx context.Context, rec model.AttendanceRecord, workDay string) error
	History(ctx context.Context, employeeID string, r model.DateRange, p model.Page) ([]model.AttendanceRecord, int64, error)
	Monitoring(ctx context.Context, r model.DateRange, p model.Page) ([]model.MonitoringRecord, int64, error)
}

// EmployeeRepository contract
type EmployeeRepository interface {
	Create(ctx context.Context, e model.Employee) error
	FindByID(ctx context.Context, id string) (*model.Employee, error)
	FindByEmail(ctx context.Context, email string) (*model.Employee, error)
	List(ctx context.Context, p model.Page) ([]model.Employee, int64, error)
	Update(ctx context.Context, e model.Employee) error
	Delete(ctx context.Context, id string) error
}

// AuditRepository is the append-only audit log owned by the audit worker.
type AuditRepository interface {
	Insert(ctx context.Context, row model.AuditTrail) error
}

// bounded applies the repository's per-call timeout to ctx.
func bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

const (
	pgUniqueViolation     = "23505"
	pgInvalidTextEncoding = "22P02"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch pgCode(err) {
	case pgUniqueViolation:
		return ErrDuplicate
	case pgInvalidTextEncoding:
		// Malformed uuid in a lookup; nothing can match it.
		return ErrNotFound
	}
	return err
}
