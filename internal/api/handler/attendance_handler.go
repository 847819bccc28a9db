package handler

import (
	"context"
	"net/http"

	"attendance.service/internal/api/middleware"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
)

type AttendanceService interface {
	CheckInOut(ctx context.Context, employeeID string, typ model.AttendanceType) (*model.AttendanceRecord, error)
	History(ctx context.Context, employeeID string, q core.RangeQuery) (model.PageResult[model.AttendanceRecord], error)
	Monitoring(ctx context.Context, q core.RangeQuery) (model.PageResult[model.MonitoringRecord], error)
}

type AttendanceHandler struct {
	Service AttendanceService
}

type CheckInOutRequest struct {
	Type model.AttendanceType `json:"type"`
}

type CheckInOutResponse struct {
	ID        string               `json:"id"`
	Type      model.AttendanceType `json:"type"`
	Timestamp string               `json:"timestamp"`
}

// CheckInOut records a check-in or check-out for the caller.
func (h *AttendanceHandler) CheckInOut(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())

	var req CheckInOutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.Service.CheckInOut(r.Context(), id.EmployeeID, req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, CheckInOutResponse{
		ID:        rec.ID,
		Type:      rec.Type,
		Timestamp: rec.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// History lists the caller's own records.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())

	page, err := h.Service.History(r.Context(), id.EmployeeID, rangeQueryFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, page)
}

// Monitoring lists every employee's records.
func (h *AttendanceHandler) Monitoring(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.Monitoring(r.Context(), rangeQueryFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, page)
}

func rangeQueryFrom(r *http.Request) core.RangeQuery {
	q := r.URL.Query()
	return core.RangeQuery{
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Page:      pageFrom(r),
	}
}
