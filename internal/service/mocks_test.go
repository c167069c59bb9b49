package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/storage/memory"
)

// --- Mock Backend ---

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) products(args mock.Arguments) ([]domain.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockBackend) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *mockBackend) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockBackend) Bestsellers(ctx context.Context) ([]domain.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *mockBackend) TopRated(ctx context.Context) ([]domain.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *mockBackend) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return m.products(m.Called(ctx, category))
}

func (m *mockBackend) ProductsByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]domain.Product, error) {
	return m.products(m.Called(ctx, minPrice, maxPrice))
}

func (m *mockBackend) AddProduct(ctx context.Context, p domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockBackend) UpdateProduct(ctx context.Context, p domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockBackend) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) CallerRole(ctx context.Context) (domain.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Role), args.Error(1)
}

func (m *mockBackend) IsCallerAdmin(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockBackend) AssignRole(ctx context.Context, principal string, role domain.Role) error {
	return m.Called(ctx, principal, role).Error(0)
}

func (m *mockBackend) MyProfile(ctx context.Context) (*domain.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockBackend) SaveMyProfile(ctx context.Context, p domain.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockBackend) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Profile), args.Error(1)
}

func (m *mockBackend) CreateCheckoutSession(ctx context.Context, items []domain.ShoppingItem, successURL, cancelURL string) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, items, successURL, cancelURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

func (m *mockBackend) SessionStatus(ctx context.Context, sessionID string) (*domain.SessionStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionStatus), args.Error(1)
}

func (m *mockBackend) IsPaymentConfigured(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockBackend) SetPaymentConfig(ctx context.Context, cfg domain.PaymentConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

// --- Fake Events ---

type fakeEvents struct {
	mu        sync.Mutex
	started   []event.CheckoutStartedData
	completed []event.CheckoutCompletedData
	cleared   []event.CartClearedData
}

func (f *fakeEvents) CheckoutStarted(_ context.Context, d event.CheckoutStartedData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, d)
}

func (f *fakeEvents) CheckoutCompleted(_ context.Context, d event.CheckoutCompletedData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, d)
}

func (f *fakeEvents) CartCleared(_ context.Context, d event.CartClearedData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, d)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) *cart.Manager {
	t.Helper()
	m := cart.NewManager(memory.NewStore(), cart.ManagerConfig{
		IdleTTL:       time.Hour,
		SweepInterval: time.Minute,
		LoadTimeout:   time.Second,
	}, newTestLogger())
	t.Cleanup(m.Close)
	return m
}

func testProduct(id, category string, priceCents int64) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        "Product " + id,
		Description: "Description of " + id,
		Category:    category,
		Price:       decimal.NewFromInt(priceCents),
		Stock:       decimal.NewFromInt(10),
		Purchases:   decimal.Zero,
		ReviewCount: decimal.Zero,
		Ratings:     []decimal.Decimal{},
		Images:      []string{"https://img.example.com/" + id + ".jpg"},
	}
}

func productPtr(p domain.Product) *domain.Product {
	return &p
}
