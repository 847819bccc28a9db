package handler

import (
	"context"
	"errors"
	"net/http"

	"attendance.service/internal/api/middleware"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"github.com/gorilla/mux"
)

const photoField = "photo"

type EmployeeService interface {
	Create(ctx context.Context, in core.CreateEmployeeInput) (*model.Employee, error)
	List(ctx context.Context, p model.Page) (model.PageResult[model.Employee], error)
	Get(ctx context.Context, id string) (*model.Employee, error)
	Update(ctx context.Context, id string, in core.UpdateEmployeeInput, isAdmin bool) (*model.Employee, error)
	Delete(ctx context.Context, id string) error
	UploadPhoto(ctx context.Context, id string, photo *core.PhotoUpload) (*model.Employee, error)
}

type EmployeeHandler struct {
	Service EmployeeService
	// MaxPhotoSize bounds the multipart body; the service enforces the exact limit.
	MaxPhotoSize int64
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in core.CreateEmployeeInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, e)
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.List(r.Context(), pageFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, page)
}

// Me returns the caller's own profile.
func (h *EmployeeHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	h.get(w, r, id.EmployeeID)
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	target, ok := h.authorizeTarget(w, r)
	if !ok {
		return
	}
	h.get(w, r, target)
}

func (h *EmployeeHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	e, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

// Update applies a partial update. Staff may only update themselves.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	target, ok := h.authorizeTarget(w, r)
	if !ok {
		return
	}
	caller, _ := middleware.IdentityFrom(r.Context())

	var in core.UpdateEmployeeInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.Service.Update(r.Context(), target, in, caller.IsAdmin())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "Employee deleted"})
}

// UploadPhoto accepts a multipart form with the image in the "photo" field.
func (h *EmployeeHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	target, ok := h.authorizeTarget(w, r)
	if !ok {
		return
	}

	// Leave room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxPhotoSize+1<<20)
	file, header, err := r.FormFile(photoField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, core.ErrPhotoTooLarge)
			return
		}
		writeError(w, r, core.ErrNoPhoto)
		return
	}
	defer file.Close()

	e, err := h.Service.UploadPhoto(r.Context(), target, &core.PhotoUpload{
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

// authorizeTarget returns the {id} path variable if the caller may act on it.
func (h *EmployeeHandler) authorizeTarget(w http.ResponseWriter, r *http.Request) (string, bool) {
	target := mux.Vars(r)["id"]
	caller, _ := middleware.IdentityFrom(r.Context())
	if !caller.IsAdmin() && caller.EmployeeID != target {
		writeError(w, r, core.ErrForbidden)
		return "", false
	}
	return target, true
}
