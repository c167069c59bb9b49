package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/storefront/pkg/httputil"
)

// AdminChecker answers whether the caller in ctx is an administrator.
type AdminChecker interface {
	IsAdmin(ctx context.Context) (bool, error)
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin asks the backend whether the caller is an administrator and
// rejects everyone else with 403.
func RequireAdmin(admins AdminChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := admins.IsAdmin(r.Context())
			if err != nil {
				httputil.WriteError(w, r, err, logger)
				return
			}
			if !ok {
				httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "access denied"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
