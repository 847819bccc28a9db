package core

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakePhotoStore struct {
	mu          sync.Mutex
	keys        []string
	contentType string
	body        string
	err         error
}

func (s *fakePhotoStore) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.keys = append(s.keys, key)
	s.contentType = contentType
	s.body = string(b)
	return "https://photos.example.com/" + key, nil
}

type employeeFixture struct {
	svc      *EmployeeService
	repo     *fakeEmployeeRepo
	photos   *fakePhotoStore
	producer *fakeProducer
	hub      *fakeBroadcaster
	fx       *Effects
}

func newEmployeeFixture(t *testing.T, c cache.Cache) *employeeFixture {
	t.Helper()
	f := &employeeFixture{
		repo:     newFakeEmployeeRepo(),
		photos:   &fakePhotoStore{},
		producer: &fakeProducer{},
		hub:      &fakeBroadcaster{},
	}
	f.fx = NewEffects(c, f.producer, f.hub, EffectsConfig{CacheTTL: time.Minute, AdvisoryTimeout: time.Second})
	f.svc = NewEmployeeService(f.repo, f.photos, f.fx, EmployeeOptions{MaxLimit: 100, MaxPhotoSize: 1024})
	return f
}

func (f *employeeFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.fx.Drain(ctx))
}

func (f *employeeFixture) create(t *testing.T, name, email string, pos model.Position) *model.Employee {
	t.Helper()
	e, err := f.svc.Create(context.Background(), CreateEmployeeInput{Name: name, Email: email, Password: "secret123", Position: pos})
	require.NoError(t, err)
	return e
}

func strPtr(s string) *string { return &s }

func TestCreateEmployee(t *testing.T) {
	f := newEmployeeFixture(t, nil)

	e := f.create(t, " Ada ", "Ada@Example.com", model.PositionStaff)
	assert.Equal(t, "Ada", e.Name)
	assert.Equal(t, "ada@example.com", e.Email)
	assert.NotEmpty(t, e.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte("secret123")))

	f.drain(t)
	require.Len(t, f.producer.audits, 1)
	assert.Equal(t, model.AuditCreate, f.producer.audits[0].Action)
	assert.Equal(t, model.EntityEmployee, f.producer.audits[0].Entity)
	assert.NotContains(t, string(f.producer.audits[0].Payload), e.PasswordHash)
}

func TestCreateEmployeeValidation(t *testing.T) {
	f := newEmployeeFixture(t, nil)

	tests := []struct {
		name    string
		in      CreateEmployeeInput
		message string
	}{
		{name: "Missing name", in: CreateEmployeeInput{Email: "a@b.co", Password: "secret123", Position: model.PositionStaff}, message: "name is required"},
		{name: "Bad email", in: CreateEmployeeInput{Name: "A", Email: "nope", Password: "secret123", Position: model.PositionStaff}, message: "email must be a valid email"},
		{name: "Short password", in: CreateEmployeeInput{Name: "A", Email: "a@b.co", Password: "123", Position: model.PositionStaff}, message: "password must be at least 6 characters"},
		{name: "Unknown position", in: CreateEmployeeInput{Name: "A", Email: "a@b.co", Password: "secret123", Position: "ceo"}, message: "position must be one of: staff, admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.in)
			var domainErr *Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, KindValidation, domainErr.Kind)
			assert.Contains(t, domainErr.Message, tt.message)
		})
	}
}

func TestCreateEmployeeEmailTaken(t *testing.T) {
	f := newEmployeeFixture(t, nil)
	f.create(t, "Ada", "ada@example.com", model.PositionStaff)

	_, err := f.svc.Create(context.Background(), CreateEmployeeInput{Name: "Other", Email: "ADA@example.com", Password: "secret123", Position: model.PositionStaff})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestListEmployeesCachedAndInvalidated(t *testing.T) {
	f := newEmployeeFixture(t, cache.NewMemoryCache())
	ctx := context.Background()
	f.create(t, "Ada", "ada@example.com", model.PositionStaff)

	first, err := f.svc.List(ctx, model.Page{})
	require.NoError(t, err)
	assert.Equal(t, model.PageMeta{Total: 1, Page: 1, Limit: 10, TotalPages: 1}, first.Meta)

	_, err = f.svc.List(ctx, model.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.listCalls)

	bob := f.create(t, "Bob", "bob@example.com", model.PositionAdmin)

	after, err := f.svc.List(ctx, model.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.listCalls)
	require.Len(t, after.Items, 2)
	assert.Equal(t, bob.ID, after.Items[0].ID, "newest first")
}

func TestGetEmployeeCachedUntilUpdate(t *testing.T) {
	f := newEmployeeFixture(t, cache.NewMemoryCache())
	ctx := context.Background()
	e := f.create(t, "Ada", "ada@example.com", model.PositionStaff)

	_, err := f.svc.Get(ctx, e.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, e.ID)
	require.NoError(t, err)
	calls := f.repo.findCalls

	_, err = f.svc.Update(ctx, e.ID, UpdateEmployeeInput{Phone: strPtr("555-0100")}, false)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Greater(t, f.repo.findCalls, calls+1, "detail is reloaded after update")
}

func TestGetEmployeeNotFound(t *testing.T) {
	f := newEmployeeFixture(t, nil)

	_, err := f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestUpdateEmployeeStaffRules(t *testing.T) {
	f := newEmployeeFixture(t, nil)
	ctx := context.Background()
	e := f.create(t, "Ada", "ada@example.com", model.PositionStaff)

	_, err := f.svc.Update(ctx, e.ID, UpdateEmployeeInput{Email: strPtr("new@example.com")}, false)
	assert.ErrorIs(t, err, ErrStaffEmailChange)

	admin := model.PositionAdmin
	_, err = f.svc.Update(ctx, e.ID, UpdateEmployeeInput{Position: &admin}, false)
	assert.ErrorIs(t, err, ErrStaffPosition)

	updated, err := f.svc.Update(ctx, e.ID, UpdateEmployeeInput{Email: strPtr("new@example.com"), Position: &admin}, true)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, model.PositionAdmin, updated.Position)
}

func TestUpdateEmployeeFields(t *testing.T) {
	f := newEmployeeFixture(t, nil)
	ctx := context.Background()
	e := f.create(t, "Ada", "ada@example.com", model.PositionStaff)
	f.create(t, "Bob", "bob@example.com", model.PositionStaff)

	_, err := f.svc.Update(ctx, e.ID, UpdateEmployeeInput{Name: strPtr("")}, false)
	var domainErr *Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, KindValidation, domainErr.Kind)

	_, err = f.svc.Update(ctx, e.ID, UpdateEmployeeInput{Email: strPtr("bob@example.com")}, true)
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.svc.Update(ctx, "missing", UpdateEmployeeInput{Name: strPtr("X")}, true)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	updated, err := f.svc.Update(ctx, e.ID, UpdateEmployeeInput{Name: strPtr("Ada L."), Password: strPtr("another-secret")}, false)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, "ada@example.com", updated.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("another-secret")))

	f.drain(t)
	assert.Equal(t, []string{EventProfileUpdated}, f.hub.names())
}

func TestDeleteEmployee(t *testing.T) {
	f := newEmployeeFixture(t, cache.NewMemoryCache())
	ctx := context.Background()
	e := f.create(t, "Ada", "ada@example.com", model.PositionStaff)

	_, err := f.svc.Get(ctx, e.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, e.ID))

	_, err = f.svc.Get(ctx, e.ID)
	assert.ErrorIs(t, err, ErrEmployeeNotFound, "cached detail is dropped")

	assert.ErrorIs(t, f.svc.Delete(ctx, e.ID), ErrEmployeeNotFound)

	f.drain(t)
	require.Len(t, f.producer.audits, 2)
	actions := []model.AuditAction{f.producer.audits[0].Action, f.producer.audits[1].Action}
	assert.ElementsMatch(t, []model.AuditAction{model.AuditCreate, model.AuditDelete}, actions)
}

func TestUploadPhoto(t *testing.T) {
	f := newEmployeeFixture(t, nil)
	ctx := context.Background()
	e := f.create(t, "Ada", "ada@example.com", model.PositionStaff)

	updated, err := f.svc.UploadPhoto(ctx, e.ID, &PhotoUpload{
		Body:        strings.NewReader("jpeg-bytes"),
		Size:        10,
		ContentType: "image/jpeg",
		Filename:    "me.JPG",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"employees/employee-" + e.ID + ".jpg"}, f.photos.keys)
	assert.Equal(t, "image/jpeg", f.photos.contentType)
	assert.Equal(t, "jpeg-bytes", f.photos.body)
	assert.Equal(t, "https://photos.example.com/employees/employee-"+e.ID+".jpg", updated.PhotoURL)

	stored, err := f.repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.PhotoURL, stored.PhotoURL)

	f.drain(t)
	require.Len(t, f.hub.calls, 1)
	assert.Equal(t, EventProfileUpdated, f.hub.calls[0].name)
	data, ok := f.hub.calls[0].data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Real-time Alert", data["message"])
}

func TestUploadPhotoRejects(t *testing.T) {
	f := newEmployeeFixture(t, nil)
	ctx := context.Background()
	e := f.create(t, "Ada", "ada@example.com", model.PositionStaff)

	_, err := f.svc.UploadPhoto(ctx, e.ID, nil)
	assert.ErrorIs(t, err, ErrNoPhoto)

	_, err = f.svc.UploadPhoto(ctx, e.ID, &PhotoUpload{Body: strings.NewReader("x"), Size: 4096, Filename: "big.png"})
	assert.ErrorIs(t, err, ErrPhotoTooLarge)

	_, err = f.svc.UploadPhoto(ctx, "missing", &PhotoUpload{Body: strings.NewReader("x"), Size: 1, Filename: "a.png"})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	f.photos.err = errBackend
	_, err = f.svc.UploadPhoto(ctx, e.ID, &PhotoUpload{Body: strings.NewReader("x"), Size: 1, Filename: "a.png"})
	assert.ErrorIs(t, err, errBackend)
	assert.Empty(t, f.photos.keys)
}

func TestRenameInvalidatesMonitoringCache(t *testing.T) {
	shared := cache.NewMemoryCache()
	emp := newEmployeeFixture(t, shared)
	att := newAttendanceFixture(t, shared)
	ctx := context.Background()

	e := emp.create(t, "Ada", "ada@example.com", model.PositionStaff)
	att.repo.names[e.ID] = "Ada"
	_, err := att.svc.CheckInOut(ctx, e.ID, model.AttendanceIn)
	require.NoError(t, err)

	before, err := att.svc.Monitoring(ctx, RangeQuery{})
	require.NoError(t, err)
	require.Len(t, before.Items, 1)
	assert.Equal(t, "Ada", before.Items[0].EmployeeName)

	_, err = emp.svc.Update(ctx, e.ID, UpdateEmployeeInput{Name: strPtr("Grace")}, true)
	require.NoError(t, err)
	att.repo.mu.Lock()
	att.repo.names[e.ID] = "Grace"
	att.repo.mu.Unlock()

	after, err := att.svc.Monitoring(ctx, RangeQuery{})
	require.NoError(t, err)
	require.Len(t, after.Items, 1)
	assert.Equal(t, "Grace", after.Items[0].EmployeeName)
}

func TestDeleteInvalidatesAttendanceCaches(t *testing.T) {
	shared := cache.NewMemoryCache()
	emp := newEmployeeFixture(t, shared)
	att := newAttendanceFixture(t, shared)
	ctx := context.Background()

	e := emp.create(t, "Ada", "ada@example.com", model.PositionStaff)
	att.repo.names[e.ID] = "Ada"
	_, err := att.svc.CheckInOut(ctx, e.ID, model.AttendanceIn)
	require.NoError(t, err)

	_, err = att.svc.Monitoring(ctx, RangeQuery{})
	require.NoError(t, err)
	_, err = att.svc.History(ctx, e.ID, RangeQuery{})
	require.NoError(t, err)
	_, err = att.svc.History(ctx, e.ID, RangeQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, att.repo.historyCalls, "second read is served from cache")

	require.NoError(t, emp.svc.Delete(ctx, e.ID))
	att.repo.mu.Lock()
	delete(att.repo.names, e.ID)
	att.repo.mu.Unlock()

	monitoring, err := att.svc.Monitoring(ctx, RangeQuery{})
	require.NoError(t, err)
	require.Len(t, monitoring.Items, 1)
	assert.Empty(t, monitoring.Items[0].EmployeeName)

	_, err = att.svc.History(ctx, e.ID, RangeQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, att.repo.historyCalls)
}
