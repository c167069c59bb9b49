package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/listing"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// CatalogHandler handles the public catalog and the admin product form.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// ProductRequest is the admin product form. Price is in major units.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"required,max=5000"`
	Category    string          `json:"category" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock" validate:"gte=0"`
	Images      []string        `json:"images" validate:"required,min=1,dive,max=2048"`
}

func (req ProductRequest) input(id string) service.ProductInput {
	return service.ProductInput{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Images:      req.Images,
	}
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	priceRange, err := listing.ParsePriceRange(q.Get("price"))
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.ListProducts(r.Context(), service.ListProductsInput{
		Filter: listing.ProductFilter{
			Search:     q.Get("search"),
			Category:   q.Get("category"),
			PriceRange: priceRange,
		},
		Page: pagination.FromRequest(r),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// Categories handles GET /api/v1/products/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, categories)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// Home handles GET /api/v1/home
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.service.Home(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, home)
}

// CreateProduct handles POST /api/v1/admin/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p, err := h.service.SaveProduct(r.Context(), req.input(""))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, p)
}

// UpdateProduct handles PUT /api/v1/admin/products/{id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p, err := h.service.SaveProduct(r.Context(), req.input(chi.URLParam(r, "id")))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
