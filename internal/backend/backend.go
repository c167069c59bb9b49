package backend

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// Client is the external system of record for the catalog, accounts and
// payment sessions. Every call runs as the caller whose bearer token is in
// ctx, or anonymously when there is none.
type Client interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	Bestsellers(ctx context.Context) ([]domain.Product, error)
	TopRated(ctx context.Context) ([]domain.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	ProductsByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]domain.Product, error)
	AddProduct(ctx context.Context, p domain.Product) error
	UpdateProduct(ctx context.Context, p domain.Product) error
	DeleteProduct(ctx context.Context, id string) error

	CallerRole(ctx context.Context) (domain.Role, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	AssignRole(ctx context.Context, principal string, role domain.Role) error

	MyProfile(ctx context.Context) (*domain.Profile, error)
	SaveMyProfile(ctx context.Context, p domain.Profile) error
	ListProfiles(ctx context.Context) ([]domain.Profile, error)

	CreateCheckoutSession(ctx context.Context, items []domain.ShoppingItem, successURL, cancelURL string) (*domain.CheckoutSession, error)
	SessionStatus(ctx context.Context, sessionID string) (*domain.SessionStatus, error)
	IsPaymentConfigured(ctx context.Context) (bool, error)
	SetPaymentConfig(ctx context.Context, cfg domain.PaymentConfig) error
}
