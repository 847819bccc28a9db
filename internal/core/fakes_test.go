package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	passwordCost = bcrypt.MinCost
}

type fakeAttendanceRepo struct {
	mu        sync.Mutex
	records   []model.AttendanceRecord
	unique    map[string]bool
	names     map[string]string
	listDelay time.Duration
	listErr   error

	historyCalls int
	lastRange    model.DateRange
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{unique: map[string]bool{}, names: map[string]string{}}
}

func (r *fakeAttendanceRepo) ListBetween(_ context.Context, employeeID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	if r.listDelay > 0 {
		time.Sleep(r.listDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.AttendanceRecord
	for _, rec := range r.records {
		if rec.EmployeeID == employeeID && !rec.Timestamp.Before(from) && rec.Timestamp.Before(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeAttendanceRepo) Insert(_ context.Context, rec model.AttendanceRecord, workDay string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := rec.EmployeeID + "|" + workDay + "|" + string(rec.Type)
	if r.unique[key] {
		return repository.ErrDuplicate
	}
	r.unique[key] = true
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeAttendanceRepo) matching(employeeID string, dr model.DateRange) []model.AttendanceRecord {
	var out []model.AttendanceRecord
	for _, rec := range r.records {
		if employeeID != "" && rec.EmployeeID != employeeID {
			continue
		}
		if dr.Start != nil && rec.Timestamp.Before(*dr.Start) {
			continue
		}
		if dr.End != nil && !rec.Timestamp.Before(*dr.End) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func paginate[T any](items []T, p model.Page) []T {
	start := p.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[start:end]...)
}

func (r *fakeAttendanceRepo) History(_ context.Context, employeeID string, dr model.DateRange, p model.Page) ([]model.AttendanceRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.historyCalls++
	r.lastRange = dr
	all := r.matching(employeeID, dr)
	return paginate(all, p), int64(len(all)), nil
}

func (r *fakeAttendanceRepo) Monitoring(_ context.Context, dr model.DateRange, p model.Page) ([]model.MonitoringRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.matching("", dr)
	out := make([]model.MonitoringRecord, 0, len(all))
	for _, rec := range all {
		out = append(out, model.MonitoringRecord{
			ID: rec.ID, EmployeeID: rec.EmployeeID, EmployeeName: r.names[rec.EmployeeID], Type: rec.Type, Timestamp: rec.Timestamp,
		})
	}
	return paginate(out, p), int64(len(out)), nil
}

func (r *fakeAttendanceRepo) count(employeeID string, typ model.AttendanceType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.EmployeeID == employeeID && rec.Type == typ {
			n++
		}
	}
	return n
}

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	employees map[string]model.Employee
	order     []string
	findCalls int
	listCalls int
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: map[string]model.Employee{}}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e model.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.employees {
		if other.Email == e.Email {
			return repository.ErrDuplicate
		}
	}
	r.employees[e.ID] = e
	r.order = append([]string{e.ID}, r.order...)
	return nil
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id string) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	e, ok := r.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *fakeEmployeeRepo) FindByEmail(_ context.Context, email string) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.Email == email {
			e := e
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEmployeeRepo) List(_ context.Context, p model.Page) ([]model.Employee, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	all := make([]model.Employee, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.employees[id])
	}
	return paginate(all, p), int64(len(all)), nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, e model.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[e.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.employees {
		if id != e.ID && other.Email == e.Email {
			return repository.ErrDuplicate
		}
	}
	r.employees[e.ID] = e
	return nil
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.employees, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

type fakeProducer struct {
	mu     sync.Mutex
	audits []messaging.AuditEvent
	emails []messaging.EmailEvent
	err    error
}

func (p *fakeProducer) PublishAudit(_ context.Context, event messaging.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.audits = append(p.audits, event)
	return nil
}

func (p *fakeProducer) PublishEmail(_ context.Context, event messaging.EmailEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.emails = append(p.emails, event)
	return nil
}

type broadcastCall struct {
	name string
	data any
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *fakeBroadcaster) Broadcast(name string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{name: name, data: data})
}

func (b *fakeBroadcaster) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.calls))
	for _, c := range b.calls {
		out = append(out, c.name)
	}
	return out
}

var errBackend = errors.New("backend unavailable")

// brokenCache fails every call.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string, any) (bool, error) { return false, errBackend }
func (brokenCache) Set(context.Context, string, any, time.Duration) error { return errBackend }
func (brokenCache) Delete(context.Context, ...string) error { return errBackend }
func (brokenCache) DeletePrefix(context.Context, string) error { return errBackend }
func (brokenCache) Close() error { return nil }
