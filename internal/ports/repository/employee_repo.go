package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"attendance.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type EmployeePostgresRepository struct {
	DB *sql.DB
	// Timeout bounds each call. Zero leaves the caller's deadline alone.
	Timeout time.Duration
}

func NewEmployeeRepository(db *sql.DB) *EmployeePostgresRepository {
	return &EmployeePostgresRepository{DB: db}
}

const employeeColumns = `id, name, email, password_hash, position, COALESCE(phone, ''), COALESCE(photo_url, ''), created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (*model.Employee, error) {
	e := &model.Employee{}
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &e.Position, &e.Phone, &e.PhotoURL, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// Create inserts a new employee. A taken email fails with ErrDuplicate.
func (r *EmployeePostgresRepository) Create(ctx context.Context, e model.Employee) error {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", e.ID))

	query := `INSERT INTO employees (id, name, email, password_hash, position, phone, photo_url, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`

	_, err := r.DB.ExecContext(ctx, query, e.ID, e.Name, e.Email, e.PasswordHash, e.Position, e.Phone, e.PhotoURL, e.CreatedAt, e.UpdatedAt)
	return translate(err)
}

// FindByID fetches one employee.
func (r *EmployeePostgresRepository) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", id))

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	return scanEmployee(r.DB.QueryRowContext(ctx, query, id))
}

// FindByEmail fetches one employee by login email.
func (r *EmployeePostgresRepository) FindByEmail(ctx context.Context, email string) (*model.Employee, error) {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email = $1`
	return scanEmployee(r.DB.QueryRowContext(ctx, query, email))
}

// List returns one page of employees, newest first.
func (r *EmployeePostgresRepository) List(ctx context.Context, p model.Page) ([]model.Employee, int64, error) {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + employeeColumns + `
              FROM employees
              ORDER BY created_at DESC
              LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Employee, 0, p.Limit)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

// Update overwrites the mutable columns of an employee.
func (r *EmployeePostgresRepository) Update(ctx context.Context, e model.Employee) error {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", e.ID))

	query := `UPDATE employees
              SET name = $1,
                  email = $2,
                  password_hash = $3,
                  position = $4,
                  phone = NULLIF($5, ''),
                  photo_url = NULLIF($6, ''),
                  updated_at = $7
              WHERE id = $8`

	res, err := r.DB.ExecContext(ctx, query, e.Name, e.Email, e.PasswordHash, e.Position, e.Phone, e.PhotoURL, e.UpdatedAt, e.ID)
	if err != nil {
		return translate(err)
	}
	return expectOneRow(res)
}

// Delete removes an employee. Attendance rows are kept.
func (r *EmployeePostgresRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := bounded(ctx, r.Timeout)
	defer cancel()

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", id))

	res, err := r.DB.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
