package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// AccountHandler serves the caller's role and profile.
type AccountHandler struct {
	service *service.ProfileService
	logger  *slog.Logger
}

// NewAccountHandler creates a new account HTTP handler.
func NewAccountHandler(svc *service.ProfileService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		service: svc,
		logger:  logger,
	}
}

// ProfileRequest is the JSON request body for saving contact information.
type ProfileRequest struct {
	FullName string `json:"full_name" validate:"max=200"`
	Email    string `json:"email" validate:"required,max=254"`
	Address  string `json:"address" validate:"max=500"`
	Phone    string `json:"phone" validate:"max=50"`
}

type roleResponse struct {
	Role domain.Role `json:"role"`
}

type profileResponse struct {
	Profile *domain.Profile `json:"profile"`
}

// Role handles GET /api/v1/me/role
func (h *AccountHandler) Role(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Role(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, roleResponse{Role: role})
}

// GetProfile handles GET /api/v1/profile. A caller without a saved profile
// gets a null profile.
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Profile(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, profileResponse{Profile: p})
}

// SaveProfile handles PUT /api/v1/profile
func (h *AccountHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p, err := h.service.SaveProfile(r.Context(), service.ProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
		Address:  req.Address,
		Phone:    req.Phone,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, profileResponse{Profile: p})
}
