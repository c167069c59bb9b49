package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/pkg/logger"
)

const (
	// DeviceCookie names the cookie that carries the device identifier.
	DeviceCookie = "sf_device"
	// DeviceHeader is accepted from non-browser clients.
	DeviceHeader = "X-Device-ID"

	deviceIDKey     contextKeyType = "device_id"
	maxDeviceIDLen                 = 128
	deviceCookieAge                = 365 * 24 * time.Hour
)

// DeviceID identifies the browser or device a request comes from. The header
// wins over the cookie; when neither is usable a new id is minted and set as
// a cookie so later requests reach the same cart.
func DeviceID(secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(DeviceHeader)
			if !validDeviceID(id) {
				id = ""
				if c, err := r.Cookie(DeviceCookie); err == nil && validDeviceID(c.Value) {
					id = c.Value
				}
			}

			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(deviceCookieAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(DeviceHeader, id)

			next.ServeHTTP(w, r.WithContext(WithDeviceID(r.Context(), id)))
		})
	}
}

// validDeviceID accepts short printable ASCII without separators so the id
// can be embedded in a storage key.
func validDeviceID(id string) bool {
	if id == "" || len(id) > maxDeviceIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c <= ' ' || c > '~' || c == ':' {
			return false
		}
	}
	return true
}

// WithDeviceID stores the device id in ctx.
func WithDeviceID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, deviceIDKey, id)
	return logger.WithDeviceID(ctx, id)
}

// DeviceIDFromContext returns the device id set by DeviceID.
func DeviceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(deviceIDKey).(string); ok {
		return id
	}
	return ""
}
