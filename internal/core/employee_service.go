package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/ports/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultEmployeeLimit = 10
	defaultMaxPhotoSize  = 5 * 1024 * 1024

	EventProfileUpdated = "profile-updated"
)

type CreateEmployeeInput struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"min=6"`
	Position model.Position `json:"position" validate:"oneof=staff admin"`
	Phone    string         `json:"phone"`
}

// UpdateEmployeeInput is a partial update; nil fields are left unchanged.
type UpdateEmployeeInput struct {
	Name     *string         `json:"name" validate:"omitnil,min=1"`
	Email    *string         `json:"email" validate:"omitempty,email"`
	Password *string         `json:"password" validate:"omitempty,min=6"`
	Position *model.Position `json:"position" validate:"omitempty,oneof=staff admin"`
	Phone    *string         `json:"phone"`
}

// PhotoUpload is a photo file received from the client.
type PhotoUpload struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Filename    string
}

type EmployeeOptions struct {
	MaxLimit      int
	MaxPhotoSize  int64
	UploadTimeout time.Duration
}

type EmployeeService struct {
	repo     repository.EmployeeRepository
	photos   storage.PhotoStore
	fx       *Effects
	validate *validator.Validate
	opts     EmployeeOptions
	now      func() time.Time
}

func NewEmployeeService(repo repository.EmployeeRepository, photos storage.PhotoStore, fx *Effects, opts EmployeeOptions) *EmployeeService {
	if opts.MaxPhotoSize <= 0 {
		opts.MaxPhotoSize = defaultMaxPhotoSize
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 30 * time.Second
	}
	return &EmployeeService{
		repo:     repo,
		photos:   photos,
		fx:       fx,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
		now:      time.Now,
	}
}

// Create registers a new employee.
func (s *EmployeeService) Create(ctx context.Context, in CreateEmployeeInput) (*model.Employee, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	log.Ctx(ctx).Info().Str("email", in.Email).Str("position", string(in.Position)).Msg("Creating employee")

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		log.Ctx(ctx).Warn().Str("email", in.Email).Msg("Create failed: email already exists")
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	e := model.Employee{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		Position:     in.Position,
		Phone:        in.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	log.Ctx(ctx).Info().Str("employee_id", e.ID).Msg("Employee created")

	s.fx.invalidate(ctx, []string{employeeListPrefix})
	s.fx.audit(ctx, e.ID, model.EntityEmployee, model.AuditCreate, e)
	return &e, nil
}

// List returns one page of employees, newest first.
func (s *EmployeeService) List(ctx context.Context, p model.Page) (model.PageResult[model.Employee], error) {
	page := p.Sanitize(defaultEmployeeLimit, s.opts.MaxLimit)
	return readThrough(ctx, s.fx, employeeListKey(page), func(ctx context.Context) (model.PageResult[model.Employee], error) {
		items, total, err := s.repo.List(ctx, page)
		if err != nil {
			return model.PageResult[model.Employee]{}, fmt.Errorf("failed to list employees: %w", err)
		}
		return model.PageResult[model.Employee]{Items: items, Meta: model.NewPageMeta(total, page)}, nil
	})
}

// Get returns one employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*model.Employee, error) {
	e, err := readThrough(ctx, s.fx, employeeDetailKey(id), func(ctx context.Context) (model.Employee, error) {
		e, err := s.load(ctx, id)
		if err != nil {
			return model.Employee{}, err
		}
		return *e, nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Update applies a partial update. Staff may not change their email or position.
func (s *EmployeeService) Update(ctx context.Context, id string, in UpdateEmployeeInput, isAdmin bool) (*model.Employee, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if !isAdmin && in.Email != nil {
		return nil, ErrStaffEmailChange
	}
	if !isAdmin && in.Position != nil {
		return nil, ErrStaffPosition
	}

	e, err := s.load(ctx, id)
	if err != nil {
		log.Ctx(ctx).Warn().Str("employee_id", id).Msg("Update failed: employee not found")
		return nil, err
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != e.Email {
			if _, err := s.repo.FindByEmail(ctx, email); err == nil {
				return nil, ErrEmailTaken
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to look up email: %w", err)
			}
		}
		e.Email = email
	}
	if in.Name != nil {
		e.Name = strings.TrimSpace(*in.Name)
	}
	if in.Position != nil {
		e.Position = *in.Position
	}
	if in.Phone != nil {
		e.Phone = *in.Phone
	}
	if in.Password != nil {
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		e.PasswordHash = hash
	}

	if err := s.save(ctx, e); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("employee_id", id).Msg("Employee updated")
	s.afterProfileChange(ctx, e)
	return e, nil
}

// Delete removes an employee. Their attendance history is retained.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	log.Ctx(ctx).Info().Str("employee_id", id).Msg("Employee deleted")

	s.fx.invalidate(ctx, []string{employeeListPrefix, monitoringPrefix, historyEmployeePrefix(id)}, employeeDetailKey(id))
	s.fx.audit(ctx, id, model.EntityEmployee, model.AuditDelete, e)
	return nil
}

// UploadPhoto stores a new profile photo. The upload is a single blocking
// call bounded by the configured upload timeout.
func (s *EmployeeService) UploadPhoto(ctx context.Context, id string, photo *PhotoUpload) (*model.Employee, error) {
	if photo == nil || photo.Body == nil {
		return nil, ErrNoPhoto
	}
	if photo.Size > s.opts.MaxPhotoSize {
		log.Ctx(ctx).Warn().Int64("size", photo.Size).Msg("Photo upload failed: file too large")
		return nil, photoTooLarge(s.opts.MaxPhotoSize)
	}

	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.opts.UploadTimeout)
	defer cancel()
	key := fmt.Sprintf("employees/employee-%s%s", id, strings.ToLower(filepath.Ext(photo.Filename)))
	url, err := s.photos.Put(uploadCtx, key, photo.ContentType, photo.Body, photo.Size)
	if err != nil {
		return nil, fmt.Errorf("photo upload failed: %w", err)
	}
	log.Ctx(ctx).Info().Str("employee_id", id).Str("url", url).Msg("Photo uploaded")

	e.PhotoURL = url
	if err := s.save(ctx, e); err != nil {
		return nil, err
	}
	s.afterProfileChange(ctx, e)
	return e, nil
}

func (s *EmployeeService) load(ctx context.Context, id string) (*model.Employee, error) {
	e, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	return e, nil
}

func (s *EmployeeService) save(ctx context.Context, e *model.Employee) error {
	e.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)
	err := s.repo.Update(ctx, *e)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrNotFound):
		return ErrEmployeeNotFound
	case err != nil:
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}

// afterProfileChange also drops monitoring pages, which embed the employee name.
func (s *EmployeeService) afterProfileChange(ctx context.Context, e *model.Employee) {
	s.fx.invalidate(ctx, []string{employeeListPrefix, monitoringPrefix}, employeeDetailKey(e.ID))
	s.fx.audit(ctx, e.ID, model.EntityEmployee, model.AuditUpdate, e)
	s.fx.broadcast(ctx, EventProfileUpdated, map[string]any{
		"message": "Real-time Alert",
		"employee": map[string]any{
			"id":       e.ID,
			"name":     e.Name,
			"email":    e.Email,
			"photoUrl": e.PhotoURL,
			"position": e.Position,
		},
	})
}

// check runs struct validation and flattens the result into a ValidationError.
func (s *EmployeeService) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return ValidationError(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return field + " is invalid"
}
