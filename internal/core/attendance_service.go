package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultHistoryLimit    = 20
	defaultMonitoringLimit = 50

	EventAttendanceRecorded = "attendance-recorded"
)

// RangeQuery is a paginated query with optional ISO-8601 date bounds.
// Dates that do not parse are ignored.
type RangeQuery struct {
	StartDate string
	EndDate   string
	Page      model.Page
}

// AttendanceOptions configure the attendance service.
type AttendanceOptions struct {
	// Location is the zone day boundaries are computed in.
	Location *time.Location
	MaxLimit int
	Now      func() time.Time
}

type AttendanceService struct {
	repo     repository.AttendanceRepository
	fx       *Effects
	loc      *time.Location
	maxLimit int
	now      func() time.Time
}

// NewAttendanceService creates the attendance service over its store and
// the shared side effects.
func NewAttendanceService(repo repository.AttendanceRepository, fx *Effects, opts AttendanceOptions) *AttendanceService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AttendanceService{
		repo:     repo,
		fx:       fx,
		loc:      opts.Location,
		maxLimit: opts.MaxLimit,
		now:      opts.Now,
	}
}

// CheckInOut records a check-in or check-out for today. Success depends
// only on the store write; cache, audit, email and broadcast are advisory.
func (s *AttendanceService) CheckInOut(ctx context.Context, employeeID string, typ model.AttendanceType) (*model.AttendanceRecord, error) {
	if !typ.Valid() {
		return nil, ErrInvalidAttendanceType
	}

	// Postgres keeps microseconds; truncate so the returned record matches the stored one.
	now := s.now().Truncate(time.Microsecond)
	day := DayOf(now, s.loc)

	today, err := s.repo.ListBetween(ctx, employeeID, day.Start, day.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load today's attendance: %w", err)
	}
	if err := EvaluateCheck(today, typ, day); err != nil {
		return nil, err
	}

	rec := model.AttendanceRecord{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Type:       typ,
		Timestamp:  now,
	}
	if err := s.repo.Insert(ctx, rec, day.Key()); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race against a concurrent request for the same day.
			if typ == model.AttendanceIn {
				return nil, ErrAlreadyCheckedIn
			}
			return nil, ErrAlreadyCheckedOut
		}
		return nil, fmt.Errorf("failed to create attendance record: %w", err)
	}

	log.Ctx(ctx).Info().Str("employee_id", employeeID).Str("type", string(typ)).Str("attendance_id", rec.ID).Msg("Attendance recorded")

	s.fx.invalidate(ctx, []string{historyEmployeePrefix(employeeID), monitoringPrefix})
	s.fx.audit(ctx, employeeID, model.EntityAttendance, model.AuditCreate, rec)
	if typ == model.AttendanceOut {
		s.fx.email(ctx, messaging.EmailEvent{
			AttendanceID: rec.ID,
			EmployeeID:   employeeID,
			HoursWorked:  hoursSinceCheckIn(today, now),
			OccurredAt:   now,
		})
	}
	s.fx.broadcast(ctx, EventAttendanceRecorded, rec)

	return &rec, nil
}

// History returns the employee's records, newest first.
func (s *AttendanceService) History(ctx context.Context, employeeID string, q RangeQuery) (model.PageResult[model.AttendanceRecord], error) {
	page := q.Page.Sanitize(defaultHistoryLimit, s.maxLimit)
	dr, startKey, endKey := s.dateRange(q)

	key := historyKey(employeeID, startKey, endKey, page)
	return readThrough(ctx, s.fx, key, func(ctx context.Context) (model.PageResult[model.AttendanceRecord], error) {
		items, total, err := s.repo.History(ctx, employeeID, dr, page)
		if err != nil {
			return model.PageResult[model.AttendanceRecord]{}, fmt.Errorf("failed to query attendance history: %w", err)
		}
		return model.PageResult[model.AttendanceRecord]{Items: items, Meta: model.NewPageMeta(total, page)}, nil
	})
}

// Monitoring returns records across all employees with their names, newest first.
func (s *AttendanceService) Monitoring(ctx context.Context, q RangeQuery) (model.PageResult[model.MonitoringRecord], error) {
	page := q.Page.Sanitize(defaultMonitoringLimit, s.maxLimit)
	dr, startKey, endKey := s.dateRange(q)

	key := monitoringKey(startKey, endKey, page)
	return readThrough(ctx, s.fx, key, func(ctx context.Context) (model.PageResult[model.MonitoringRecord], error) {
		items, total, err := s.repo.Monitoring(ctx, dr, page)
		if err != nil {
			return model.PageResult[model.MonitoringRecord]{}, fmt.Errorf("failed to query attendance monitoring: %w", err)
		}
		return model.PageResult[model.MonitoringRecord]{Items: items, Meta: model.NewPageMeta(total, page)}, nil
	})
}

// dateRange turns the query's dates into [start-of-day(StartDate),
// start-of-day(EndDate)+1d) and returns the day keys used in cache keys.
func (s *AttendanceService) dateRange(q RangeQuery) (model.DateRange, string, string) {
	var dr model.DateRange
	var startKey, endKey string
	if t, ok := ParseDate(q.StartDate, s.loc); ok {
		day := DayOf(t, s.loc)
		dr.Start = &day.Start
		startKey = day.Key()
	}
	if t, ok := ParseDate(q.EndDate, s.loc); ok {
		day := DayOf(t, s.loc)
		dr.End = &day.End
		endKey = day.Key()
	}
	return dr, startKey, endKey
}

// ParseDate accepts an ISO-8601 calendar date or an RFC 3339 timestamp.
func ParseDate(v string, loc *time.Location) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(time.DateOnly, v, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

func hoursSinceCheckIn(today []model.AttendanceRecord, out time.Time) float64 {
	for _, r := range today {
		if r.Type == model.AttendanceIn {
			return out.Sub(r.Timestamp).Hours()
		}
	}
	return 0
}
