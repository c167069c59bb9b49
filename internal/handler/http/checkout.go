package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

// CheckoutHandler starts and confirms payment sessions for the device cart.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// Status handles GET /api/v1/checkout
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Status(r.Context(), middleware.DeviceIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, st)
}

// StartCheckout handles POST /api/v1/checkout/sessions
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.StartCheckout(r.Context(), middleware.DeviceIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, session)
}

// ConfirmSession handles GET /api/v1/checkout/sessions/{sessionId}
func (h *CheckoutHandler) ConfirmSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.ConfirmSession(r.Context(), middleware.DeviceIDFromContext(r.Context()),
		chi.URLParam(r, "sessionId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, st)
}
