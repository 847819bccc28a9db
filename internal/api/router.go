package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.service/internal/api/handler"
	"attendance.service/internal/api/middleware"
)

// Services are the collaborators the HTTP surface is built on.
type Services struct {
	Auth       handler.AuthService
	Attendance handler.AttendanceService
	Employees  handler.EmployeeService
	Tokens     middleware.TokenVerifier
	// Realtime serves the websocket endpoint. Nil disables it.
	Realtime     http.Handler
	MaxPhotoSize int64
}

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(s Services) *mux.Router {
	authHandler := handler.AuthHandler{Service: s.Auth}
	attendanceHandler := handler.AttendanceHandler{Service: s.Attendance}
	employeeHandler := handler.EmployeeHandler{Service: s.Employees, MaxPhotoSize: s.MaxPhotoSize}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	if s.Realtime != nil {
		api.Handle("/ws", s.Realtime).Methods(http.MethodGet)
	}

	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.Authentication(s.Tokens))

	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(h)
	}

	authed.HandleFunc("/attendance", attendanceHandler.CheckInOut).Methods(http.MethodPost)
	authed.HandleFunc("/attendance/history", attendanceHandler.History).Methods(http.MethodGet)
	authed.Handle("/attendance/monitoring", admin(attendanceHandler.Monitoring)).Methods(http.MethodGet)

	authed.Handle("/employees", admin(employeeHandler.Create)).Methods(http.MethodPost)
	authed.Handle("/employees", admin(employeeHandler.List)).Methods(http.MethodGet)
	authed.HandleFunc("/employees/me", employeeHandler.Me).Methods(http.MethodGet)
	authed.HandleFunc("/employees/{id}", employeeHandler.Get).Methods(http.MethodGet)
	authed.HandleFunc("/employees/{id}", employeeHandler.Update).Methods(http.MethodPut)
	authed.Handle("/employees/{id}", admin(employeeHandler.Delete)).Methods(http.MethodDelete)
	authed.HandleFunc("/employees/{id}/photo", employeeHandler.UploadPhoto).Methods(http.MethodPost)

	return r
}
