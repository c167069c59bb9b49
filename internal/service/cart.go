package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CartService exposes the device carts held by the cart manager.
type CartService struct {
	carts   *cart.Manager
	backend backend.Client
	events  EventPublisher
	logger  *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts *cart.Manager, b backend.Client, events EventPublisher, logger *slog.Logger) *CartService {
	return &CartService{
		carts:   carts,
		backend: b,
		events:  events,
		logger:  logger,
	}
}

// GetCart returns the device's cart.
func (s *CartService) GetCart(ctx context.Context, deviceID string) (domain.Cart, error) {
	var c domain.Cart
	err := s.with(ctx, deviceID, func(st *cart.Store) error {
		c = st.Snapshot()
		return nil
	})
	return c, err
}

// AddItem adds quantity units of productID, using a product snapshot fresh
// from the backend. A quantity below 1 adds a single unit.
func (s *CartService) AddItem(ctx context.Context, deviceID, productID string, quantity int64) (domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Cart{}, apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		quantity = 1
	}

	p, err := s.backend.GetProduct(ctx, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("get product for cart: %w", err)
	}

	var c domain.Cart
	err = s.with(ctx, deviceID, func(st *cart.Store) error {
		var err error
		c, err = st.AddItem(*p, quantity)
		return err
	})
	if err != nil {
		return domain.Cart{}, err
	}

	s.logger.DebugContext(ctx, "item added to cart",
		slog.String("product_id", productID),
		slog.Int64("quantity", quantity),
	)
	return c, nil
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, deviceID, productID string, quantity int64) (domain.Cart, error) {
	var c domain.Cart
	err := s.with(ctx, deviceID, func(st *cart.Store) error {
		var err error
		c, err = st.UpdateQuantity(productID, quantity)
		return err
	})
	return c, err
}

// RemoveItem drops a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, deviceID, productID string) (domain.Cart, error) {
	var c domain.Cart
	err := s.with(ctx, deviceID, func(st *cart.Store) error {
		var err error
		c, err = st.RemoveItem(productID)
		return err
	})
	return c, err
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, deviceID string) (domain.Cart, error) {
	c, err := clearCart(ctx, s.carts, deviceID)
	if err != nil {
		return domain.Cart{}, err
	}
	s.events.CartCleared(ctx, event.CartClearedData{DeviceID: deviceID, Reason: event.ClearedByUser})
	return c, nil
}

func (s *CartService) with(ctx context.Context, deviceID string, fn func(*cart.Store) error) error {
	return withCart(ctx, s.carts, deviceID, fn)
}

func withCart(ctx context.Context, carts *cart.Manager, deviceID string, fn func(*cart.Store) error) error {
	if deviceID == "" {
		return apperrors.InvalidInput("device id is required")
	}
	if err := carts.With(ctx, deviceID, fn); err != nil {
		if errors.Is(err, cart.ErrClosed) {
			return apperrors.ServiceUnavailable("cart is unavailable")
		}
		return err
	}
	return nil
}

func clearCart(ctx context.Context, carts *cart.Manager, deviceID string) (domain.Cart, error) {
	var c domain.Cart
	err := withCart(ctx, carts, deviceID, func(st *cart.Store) error {
		var err error
		c, err = st.Clear()
		return err
	})
	return c, err
}
