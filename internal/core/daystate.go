package core

import (
	"time"

	"attendance.service/internal/core/model"
)

// DayWindow is the half-open interval [Start, End) of one calendar day.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// DayOf returns the calendar day containing t in loc.
func DayOf(t time.Time, loc *time.Location) DayWindow {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	// AddDate keeps DST days correct (23h / 25h).
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether t falls within the window.
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Key is the calendar date of the window, e.g. "2024-03-01".
func (w DayWindow) Key() string {
	return w.Start.Format(time.DateOnly)
}

// EvaluateCheck decides whether requested is legal given the records that
// exist for the employee. Records outside day are ignored. A nil result
// means the request is allowed.
func EvaluateCheck(records []model.AttendanceRecord, requested model.AttendanceType, day DayWindow) error {
	var hasIn, hasOut bool
	for _, r := range records {
		if !day.Contains(r.Timestamp) {
			continue
		}
		switch r.Type {
		case model.AttendanceIn:
			hasIn = true
		case model.AttendanceOut:
			hasOut = true
		}
	}

	switch requested {
	case model.AttendanceIn:
		if hasIn {
			return ErrAlreadyCheckedIn
		}
	case model.AttendanceOut:
		if !hasIn {
			return ErrNotCheckedInYet
		}
		if hasOut {
			return ErrAlreadyCheckedOut
		}
	default:
		return ErrInvalidAttendanceType
	}
	return nil
}
