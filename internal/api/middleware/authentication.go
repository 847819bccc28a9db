package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"attendance.service/internal/core"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (core.Identity, error)
}

// Authentication rejects requests without a valid Bearer token and stores
// the caller's identity in the request context.
func Authentication(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				reject(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			id, err := verifier.Verify(parts[1])
			if err != nil {
				reject(w, http.StatusUnauthorized, core.ErrInvalidToken.Message)
				return
			}

			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("app.employeeId", id.EmployeeID))
			ctx := log.Ctx(r.Context()).With().Str("employee_id", id.EmployeeID).Logger().WithContext(r.Context())
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
		})
	}
}

// RequireAdmin only lets admins through. It must run after Authentication.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok || !id.IsAdmin() {
			reject(w, http.StatusForbidden, core.ErrAdminRequired.Message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id core.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the authenticated caller stored by Authentication.
func IdentityFrom(ctx context.Context) (core.Identity, bool) {
	id, ok := ctx.Value(identityKey).(core.Identity)
	return id, ok
}

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
