package core

import "fmt"

// ErrorKind classifies errors the caller can act on. Anything that is not a
// *Error is treated as a store failure by the HTTP layer.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindForbidden    ErrorKind = "forbidden"
	KindUnauthorized ErrorKind = "unauthorized"
)

// Error is a user-facing domain error.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on kind and reason so sentinels compare equal to errors built
// with a different message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Reason == e.Reason
}

func newError(kind ErrorKind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

var (
	ErrAlreadyCheckedIn      = newError(KindValidation, "AlreadyCheckedIn", "Already checked in today")
	ErrNotCheckedInYet       = newError(KindValidation, "NotCheckedInYet", "Check in first before checkout")
	ErrAlreadyCheckedOut     = newError(KindValidation, "AlreadyCheckedOut", "Already checked out today")
	ErrInvalidAttendanceType = newError(KindValidation, "InvalidAttendanceType", "type must be one of: in, out")

	ErrEmployeeNotFound   = newError(KindNotFound, "EmployeeNotFound", "Employee not found")
	ErrEmailTaken         = newError(KindConflict, "EmailTaken", "Email already registered")
	ErrStaffEmailChange   = newError(KindForbidden, "StaffEmailChange", "Forbidden: Staff cannot update email")
	ErrStaffPosition      = newError(KindForbidden, "StaffPositionChange", "Forbidden: Staff cannot update position")
	ErrForbidden          = newError(KindForbidden, "Forbidden", "Forbidden")
	ErrAdminRequired      = newError(KindForbidden, "AdminRequired", "Admin access required")
	ErrInvalidCredentials = newError(KindUnauthorized, "InvalidCredentials", "Invalid credentials")
	ErrInvalidToken       = newError(KindUnauthorized, "InvalidToken", "invalid or expired token")

	ErrNoPhoto       = newError(KindValidation, "NoPhoto", "No file provided")
	ErrPhotoTooLarge = newError(KindValidation, "PhotoTooLarge", "File size must not exceed 5MB")
)

func photoTooLarge(limit int64) *Error {
	return newError(KindValidation, ErrPhotoTooLarge.Reason, fmt.Sprintf("File size must not exceed %dMB", limit/(1024*1024)))
}

// ValidationError wraps a request validation failure.
func ValidationError(message string) *Error {
	return newError(KindValidation, "Invalid", message)
}
