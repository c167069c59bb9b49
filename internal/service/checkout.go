package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/middleware"
)

// CheckoutStatus tells the checkout page what it can offer.
type CheckoutStatus struct {
	PaymentConfigured bool        `json:"payment_configured"`
	Cart              domain.Cart `json:"cart"`
}

// CheckoutService turns a device cart into a payment session.
type CheckoutService struct {
	carts   *cart.Manager
	backend backend.Client
	events  EventPublisher
	baseURL string
	logger  *slog.Logger
}

// NewCheckoutService creates a checkout service. baseURL is the public
// storefront origin the payment provider redirects back to.
func NewCheckoutService(carts *cart.Manager, b backend.Client, events EventPublisher, baseURL string, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		carts:   carts,
		backend: b,
		events:  events,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Status reports whether payment is configured, along with the cart.
func (s *CheckoutService) Status(ctx context.Context, deviceID string) (*CheckoutStatus, error) {
	configured, err := s.backend.IsPaymentConfigured(ctx)
	if err != nil {
		return nil, fmt.Errorf("check payment configuration: %w", err)
	}

	var c domain.Cart
	err = withCart(ctx, s.carts, deviceID, func(st *cart.Store) error {
		c = st.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutStatus{PaymentConfigured: configured, Cart: c}, nil
}

// StartCheckout creates a payment session for the device's cart.
func (s *CheckoutService) StartCheckout(ctx context.Context, deviceID string) (*domain.CheckoutSession, error) {
	var c domain.Cart
	err := withCart(ctx, s.carts, deviceID, func(st *cart.Store) error {
		c = st.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	configured, err := s.backend.IsPaymentConfigured(ctx)
	if err != nil {
		return nil, fmt.Errorf("check payment configuration: %w", err)
	}
	if !configured {
		return nil, apperrors.ServiceUnavailable("payment is not configured")
	}

	items := domain.ShoppingItemsFromCart(c)
	session, err := s.backend.CreateCheckoutSession(ctx, items, s.baseURL+"/success", s.baseURL+"/cancel")
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.events.CheckoutStarted(ctx, event.CheckoutStartedData{
		SessionID:  session.ID,
		DeviceID:   deviceID,
		Principal:  middleware.PrincipalFromContext(ctx),
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalCents: c.TotalPrice(),
		Currency:   domain.DefaultCurrency,
	})
	s.logger.InfoContext(ctx, "checkout started",
		slog.String("session_id", session.ID),
		slog.Int64("total_items", c.TotalItems()),
		slog.String("total_cents", c.TotalPrice().String()),
	)

	return session, nil
}

// ConfirmSession looks up the outcome of a payment session and clears the
// device's cart when it completed.
func (s *CheckoutService) ConfirmSession(ctx context.Context, deviceID, sessionID string) (*domain.SessionStatus, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	status, err := s.backend.SessionStatus(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session status: %w", err)
	}
	if !status.Completed() {
		s.logger.InfoContext(ctx, "checkout session not completed",
			slog.String("session_id", sessionID),
			slog.String("error", status.Error),
		)
		return status, nil
	}

	if _, err := clearCart(ctx, s.carts, deviceID); err != nil {
		return nil, err
	}

	principal := status.UserPrincipal
	if principal == "" {
		principal = middleware.PrincipalFromContext(ctx)
	}
	s.events.CheckoutCompleted(ctx, event.CheckoutCompletedData{
		SessionID: sessionID,
		DeviceID:  deviceID,
		Principal: principal,
	})
	s.events.CartCleared(ctx, event.CartClearedData{DeviceID: deviceID, Reason: event.ClearedByCheckout})
	s.logger.InfoContext(ctx, "checkout completed", slog.String("session_id", sessionID))

	return status, nil
}
