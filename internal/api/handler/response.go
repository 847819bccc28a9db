package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"github.com/rs/zerolog/log"
)

// SuccessResponse is the envelope of every successful response.
type SuccessResponse struct {
	Success bool            `json:"success"`
	Data    any             `json:"data"`
	Meta    *model.PageMeta `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of every failed response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessResponse{Success: true, Data: data})
}

func writePage[T any](w http.ResponseWriter, page model.PageResult[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: items, Meta: &page.Meta})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// writeError maps domain errors to their status code. Anything else is a
// server failure and is reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *core.Error
	if !errors.As(err, &domainErr) {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeMessage(w, StatusFor(domainErr.Kind), domainErr.Message)
}

// StatusFor is the HTTP status of a domain error kind.
func StatusFor(kind core.ErrorKind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindUnauthorized:
		return http.StatusUnauthorized
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return core.ValidationError("Invalid request body")
	}
	return nil
}

// pageFrom reads page and limit from the query string. Missing or invalid
// values are left at zero for the service defaults.
func pageFrom(r *http.Request) model.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return model.Page{Page: page, Limit: limit}
}
