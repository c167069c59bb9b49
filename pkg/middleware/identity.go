package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/storefront/pkg/logger"
)

type contextKeyType string

const (
	principalKey contextKeyType = "principal"
	tokenKey     contextKeyType = "bearer_token"
)

// Claims are the identity fields read from a verified token.
type Claims struct {
	Principal string
}

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// NewHMACValidator returns a TokenValidator for HMAC-signed JWTs. The
// principal is taken from the "principal" claim, falling back to "sub".
func NewHMACValidator(secret string) TokenValidator {
	return func(tokenString string) (*Claims, error) {
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, err
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return nil, errors.New("invalid token claims")
		}

		principal := claimString(claims, "principal")
		if principal == "" {
			principal = claimString(claims, "sub")
		}
		if principal == "" {
			return nil, errors.New("token has no principal")
		}
		return &Claims{Principal: principal}, nil
	}
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// Identity resolves the caller from an optional bearer token. Requests
// without an Authorization header continue as guests; a header that is
// present but malformed or invalid is rejected with 401.
func Identity(validate TokenValidator, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
				return
			}

			claims, err := validate(parts[1])
			if err != nil {
				l.Warn("invalid bearer token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			ctx := WithIdentity(r.Context(), claims.Principal, parts[1])
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthenticated rejects guests with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == "" {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity stores the caller's principal and raw token in ctx.
func WithIdentity(ctx context.Context, principal, token string) context.Context {
	ctx = context.WithValue(ctx, principalKey, principal)
	ctx = context.WithValue(ctx, tokenKey, token)
	return logger.WithPrincipal(ctx, principal)
}

// PrincipalFromContext returns the authenticated principal, or "" for guests.
func PrincipalFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(principalKey).(string); ok {
		return p
	}
	return ""
}

// BearerTokenFromContext returns the caller's raw token for forwarding.
func BearerTokenFromContext(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey).(string); ok {
		return t
	}
	return ""
}
