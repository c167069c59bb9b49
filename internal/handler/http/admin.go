package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/listing"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// AdminHandler serves the admin console: users, roles and payment setup.
type AdminHandler struct {
	service *service.AdminService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service: svc,
		logger:  logger,
	}
}

// AssignRoleRequest is the JSON request body for changing a user's role.
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=guest user admin"`
}

// PaymentConfigRequest is the JSON request body of the payment setup form.
// Countries is a comma separated list of two-letter codes.
type PaymentConfigRequest struct {
	SecretKey string `json:"secret_key" validate:"required,max=256"`
	Countries string `json:"countries" validate:"required,max=2000"`
}

type paymentConfigResponse struct {
	Configured       bool     `json:"configured"`
	AllowedCountries []string `json:"allowed_countries,omitempty"`
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort, err := listing.ParseSort(q.Get("sort"), q.Get("order"))
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.Users(r.Context(),
		listing.UserQuery{Search: q.Get("search"), Sort: sort},
		pagination.FromRequest(r),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// AssignRole handles PUT /api/v1/admin/users/{principal}/role
func (h *AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req AssignRoleRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.AssignRole(r.Context(), chi.URLParam(r, "principal"), req.Role); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPaymentConfig handles GET /api/v1/admin/payment-config
func (h *AdminHandler) GetPaymentConfig(w http.ResponseWriter, r *http.Request) {
	ok, err := h.service.PaymentConfigured(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, paymentConfigResponse{Configured: ok})
}

// SetPaymentConfig handles PUT /api/v1/admin/payment-config
func (h *AdminHandler) SetPaymentConfig(w http.ResponseWriter, r *http.Request) {
	var req PaymentConfigRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	countries, err := h.service.SetPaymentConfig(r.Context(), service.PaymentConfigInput{
		SecretKey: req.SecretKey,
		Countries: req.Countries,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, paymentConfigResponse{Configured: true, AllowedCountries: countries})
}
