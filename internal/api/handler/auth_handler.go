package handler

import (
	"context"
	"net/http"
	"strings"

	"attendance.service/internal/core"
	"github.com/rs/zerolog/log"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*core.LoginResult, error)
}

type AuthHandler struct {
	Service AuthService
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, r, core.ValidationError("email and password are required"))
		return
	}

	res, err := h.Service.Login(r.Context(), email, req.Password)
	if err != nil {
		log.Ctx(r.Context()).Warn().Str("email", email).Msg("Login failed")
		writeError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().Str("employee_id", res.User.ID).Msg("Login succeeded")
	writeData(w, http.StatusOK, res)
}
