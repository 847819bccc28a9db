package model

import (
	"encoding/json"
	"time"
)

// AttendanceType is the kind of attendance event.
type AttendanceType string

const (
	AttendanceIn  AttendanceType = "in"
	AttendanceOut AttendanceType = "out"
)

// Valid reports whether t is one of the known attendance types.
func (t AttendanceType) Valid() bool {
	return t == AttendanceIn || t == AttendanceOut
}

// Position is the role an employee holds.
type Position string

const (
	PositionStaff Position = "staff"
	PositionAdmin Position = "admin"
)

// AttendanceRecord is an immutable check-in or check-out event.
type AttendanceRecord struct {
	ID         string         `json:"id"`
	EmployeeID string         `json:"employeeId"`
	Type       AttendanceType `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
}

// MonitoringRecord is an attendance record joined with the employee's display name.
type MonitoringRecord struct {
	ID           string         `json:"id"`
	EmployeeID   string         `json:"employeeId"`
	EmployeeName string         `json:"employeeName"`
	Type         AttendanceType `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
}

type Employee struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Position     Position  `json:"position"`
	Phone        string    `json:"phone,omitempty"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the employee holds the admin position.
func (e Employee) IsAdmin() bool {
	return e.Position == PositionAdmin
}

// AuditAction is the mutation an audit event describes.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditEntity is the kind of row the audit event is about.
type AuditEntity string

const (
	EntityEmployee   AuditEntity = "employee"
	EntityAttendance AuditEntity = "attendance"
)

// AuditTrail is one persisted row of the audit log. Duplicates by EventID
// are allowed; the consumer does not deduplicate.
type AuditTrail struct {
	ID         string          `json:"id"`
	EventID    string          `json:"eventId"`
	EmployeeID string          `json:"employeeId"`
	Entity     AuditEntity     `json:"entity"`
	Action     AuditAction     `json:"action"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
	CreatedAt  time.Time       `json:"createdAt"`
}
