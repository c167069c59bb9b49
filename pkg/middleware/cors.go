package middleware

import (
	"net/http"
	"strings"
)

const (
	corsMethods       = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders       = "Accept, Authorization, Content-Type, " + CorrelationHeader + ", " + DeviceHeader
	corsExposed       = CorrelationHeader + ", " + DeviceHeader
	corsPreflightSecs = "3600"
)

// CORSConfig selects which browser origins may call the storefront API.
type CORSConfig struct {
	// AllowedOrigins lists exact origins such as "https://shop.example".
	// "*" accepts any origin.
	AllowedOrigins []string

	// Environment "development" accepts any origin as well.
	Environment string
}

// CORS answers cross-origin requests from allowed origins. The device cookie
// has to travel with every call, so an accepted origin is always echoed back
// with credentials enabled and never answered with a bare "*".
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	anyOrigin := cfg.Environment == "development"
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			anyOrigin = true
			continue
		}
		if o != "" {
			allowed[o] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			_, listed := allowed[origin]
			if origin != "" && (anyOrigin || listed) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Expose-Headers", corsExposed)
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Max-Age", corsPreflightSecs)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
