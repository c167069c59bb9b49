package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

const serviceName = "backend"

// envelope is the {"data": ...} wrapper of every backend response.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// HTTPClient talks to the backend over its JSON API.
type HTTPClient struct {
	baseURL string
	doer    httpclient.Doer
	logger  *slog.Logger
}

// NewHTTPClient creates a backend client. doer is normally a circuit
// breaker wrapped around httpclient.Client.
func NewHTTPClient(baseURL string, doer httpclient.Doer, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		logger:  logger,
	}
}

// --- Catalog ---

func (c *HTTPClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, http.MethodGet, "/api/v1/products", nil, &out)
	return out, err
}

func (c *HTTPClient) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Bestsellers(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, http.MethodGet, "/api/v1/products/bestsellers", nil, &out)
	return out, err
}

func (c *HTTPClient) TopRated(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, http.MethodGet, "/api/v1/products/top-rated", nil, &out)
	return out, err
}

func (c *HTTPClient) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	q := url.Values{"category": {category}}
	var out []domain.Product
	err := c.do(ctx, http.MethodGet, "/api/v1/products?"+q.Encode(), nil, &out)
	return out, err
}

func (c *HTTPClient) ProductsByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]domain.Product, error) {
	q := url.Values{"min_price": {minPrice.String()}, "max_price": {maxPrice.String()}}
	var out []domain.Product
	err := c.do(ctx, http.MethodGet, "/api/v1/products?"+q.Encode(), nil, &out)
	return out, err
}

func (c *HTTPClient) AddProduct(ctx context.Context, p domain.Product) error {
	return c.do(ctx, http.MethodPost, "/api/v1/products", p, nil)
}

func (c *HTTPClient) UpdateProduct(ctx context.Context, p domain.Product) error {
	return c.do(ctx, http.MethodPut, "/api/v1/products/"+url.PathEscape(p.ID), p, nil)
}

func (c *HTTPClient) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/products/"+url.PathEscape(id), nil, nil)
}

// --- Identity ---

func (c *HTTPClient) CallerRole(ctx context.Context) (domain.Role, error) {
	var out struct {
		Role string `json:"role"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me/role", nil, &out); err != nil {
		return "", err
	}
	role, err := domain.ParseRole(out.Role)
	if err != nil {
		return "", fmt.Errorf("decode caller role: %w", err)
	}
	return role, nil
}

func (c *HTTPClient) IsCallerAdmin(ctx context.Context) (bool, error) {
	var out struct {
		IsAdmin bool `json:"is_admin"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/me/is-admin", nil, &out)
	return out.IsAdmin, err
}

func (c *HTTPClient) AssignRole(ctx context.Context, principal string, role domain.Role) error {
	body := struct {
		Role domain.Role `json:"role"`
	}{Role: role}
	return c.do(ctx, http.MethodPut, "/api/v1/users/"+url.PathEscape(principal)+"/role", body, nil)
}

// --- Profiles ---

// MyProfile returns nil without error when the caller has not saved one.
func (c *HTTPClient) MyProfile(ctx context.Context) (*domain.Profile, error) {
	var out domain.Profile
	err := c.do(ctx, http.MethodGet, "/api/v1/me/profile", nil, &out)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SaveMyProfile(ctx context.Context, p domain.Profile) error {
	body := struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
	}{p.Email, p.FullName, p.Phone, p.Address}
	return c.do(ctx, http.MethodPut, "/api/v1/me/profile", body, nil)
}

func (c *HTTPClient) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	var out []domain.Profile
	err := c.do(ctx, http.MethodGet, "/api/v1/users/profiles", nil, &out)
	return out, err
}

// --- Payments ---

// CreateCheckoutSession fails when the backend answers without a redirect URL.
func (c *HTTPClient) CreateCheckoutSession(ctx context.Context, items []domain.ShoppingItem, successURL, cancelURL string) (*domain.CheckoutSession, error) {
	body := struct {
		Items      []domain.ShoppingItem `json:"items"`
		SuccessURL string                `json:"success_url"`
		CancelURL  string                `json:"cancel_url"`
	}{items, successURL, cancelURL}

	var out domain.CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/api/v1/checkout/sessions", body, &out); err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: "payment session missing url",
			Status:  http.StatusServiceUnavailable,
			Err:     fmt.Errorf("%w: session %q has no url", apperrors.ErrServiceUnavail, out.ID),
		}
	}
	return &out, nil
}

func (c *HTTPClient) SessionStatus(ctx context.Context, sessionID string) (*domain.SessionStatus, error) {
	var out domain.SessionStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	switch out.State {
	case domain.SessionCompleted, domain.SessionFailed:
		return &out, nil
	default:
		return nil, fmt.Errorf("decode session status: unknown state %q", out.State)
	}
}

func (c *HTTPClient) IsPaymentConfigured(ctx context.Context) (bool, error) {
	var out struct {
		Configured bool `json:"configured"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/payment/configured", nil, &out)
	return out.Configured, err
}

func (c *HTTPClient) SetPaymentConfig(ctx context.Context, cfg domain.PaymentConfig) error {
	return c.do(ctx, http.MethodPut, "/api/v1/payment/config", cfg, nil)
}

// do performs one request. The caller's bearer token, correlation id and
// trace context are forwarded. Non-2xx answers become AppErrors; transport
// failures and an open breaker become SERVICE_UNAVAILABLE. Nothing is retried.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) (err error) {
	route := path
	if i := strings.IndexByte(route, '?'); i >= 0 {
		route = route[:i]
	}
	ctx, span := tracing.StartClientSpan(ctx, serviceName, method+" "+route,
		attribute.String("http.request.method", method),
		attribute.String("url.path", route),
	)
	defer func() { tracing.EndSpan(span, err) }()

	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, route, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, route, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := middleware.BearerTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationHeader, id)
	}
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return c.transportError(ctx, method, route, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, route, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("decode %s %s response: missing data", method, route)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, route, err)
	}
	return nil
}

func (c *HTTPClient) transportError(ctx context.Context, method, route string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var serverErr *httpclient.ServerError
	switch {
	case errors.As(err, &serverErr):
		c.logger.WarnContext(ctx, "backend server error",
			slog.String("route", method+" "+route),
			slog.Int("status", serverErr.StatusCode),
		)
	case errors.Is(err, httpclient.ErrCircuitOpen):
		c.logger.WarnContext(ctx, "backend circuit open", slog.String("route", method+" "+route))
	default:
		c.logger.WarnContext(ctx, "backend request failed",
			slog.String("route", method+" "+route),
			slog.String("error", err.Error()),
		)
	}

	return &apperrors.AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: "backend is temporarily unavailable",
		Status:  http.StatusServiceUnavailable,
		Err:     fmt.Errorf("%w: %s %s: %v", apperrors.ErrServiceUnavail, method, route, err),
	}
}
