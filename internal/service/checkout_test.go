package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/middleware"
)

type checkoutFixture struct {
	backend  *mockBackend
	events   *fakeEvents
	carts    *CartService
	checkout *CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	b := &mockBackend{}
	ev := &fakeEvents{}
	m := newTestManager(t)
	return &checkoutFixture{
		backend:  b,
		events:   ev,
		carts:    NewCartService(m, b, ev, newTestLogger()),
		checkout: NewCheckoutService(m, b, ev, "https://shop.test/", newTestLogger()),
	}
}

func (f *checkoutFixture) fill(t *testing.T, deviceID string) {
	t.Helper()
	p := testProduct("p1", "c", 2500)
	p.Name = "Shirt"
	f.backend.On("GetProduct", mock.Anything, "p1").Return(productPtr(p), nil)
	_, err := f.carts.AddItem(context.Background(), deviceID, "p1", 2)
	require.NoError(t, err)
}

// ---------------------------------------------------------------------------
// StartCheckout
// ---------------------------------------------------------------------------

func TestCheckoutService_EmptyCartIsRejected(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.checkout.StartCheckout(context.Background(), "dev-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.backend.AssertNotCalled(t, "IsPaymentConfigured", mock.Anything)
	f.backend.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckoutService_PaymentNotConfigured(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t, "dev-1")
	f.backend.On("IsPaymentConfigured", mock.Anything).Return(false, nil)

	_, err := f.checkout.StartCheckout(context.Background(), "dev-1")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	f.backend.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckoutService_StartCheckout(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t, "dev-1")
	f.backend.On("IsPaymentConfigured", mock.Anything).Return(true, nil)

	wantItems := []domain.ShoppingItem{{
		ProductName:        "Shirt",
		ProductDescription: "Description of p1",
		PriceInCents:       decimal.NewFromInt(2500),
		Quantity:           2,
		Currency:           "usd",
	}}
	f.backend.On("CreateCheckoutSession", mock.Anything, wantItems,
		"https://shop.test/success", "https://shop.test/cancel",
	).Return(&domain.CheckoutSession{ID: "cs_1", URL: "https://pay.test/cs_1"}, nil)

	ctx := middleware.WithIdentity(context.Background(), "user-1", "tok")
	s, err := f.checkout.StartCheckout(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.test/cs_1", s.URL)

	require.Len(t, f.events.started, 1)
	started := f.events.started[0]
	assert.Equal(t, "cs_1", started.SessionID)
	assert.Equal(t, "user-1", started.Principal)
	assert.Equal(t, int64(2), started.TotalItems)
	assert.True(t, started.TotalCents.Equal(decimal.NewFromInt(5000)))

	c, err := f.carts.GetCart(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.False(t, c.IsEmpty(), "starting checkout keeps the cart")
}

func TestCheckoutService_SessionErrorPropagates(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t, "dev-1")
	f.backend.On("IsPaymentConfigured", mock.Anything).Return(true, nil)
	f.backend.On("CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ServiceUnavailable("payment session missing url"))

	_, err := f.checkout.StartCheckout(context.Background(), "dev-1")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Empty(t, f.events.started)
}

// ---------------------------------------------------------------------------
// ConfirmSession
// ---------------------------------------------------------------------------

func TestCheckoutService_ConfirmCompletedClearsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t, "dev-1")
	f.backend.On("SessionStatus", mock.Anything, "cs_1").
		Return(&domain.SessionStatus{State: domain.SessionCompleted, UserPrincipal: "user-1"}, nil)

	st, err := f.checkout.ConfirmSession(context.Background(), "dev-1", "cs_1")
	require.NoError(t, err)
	assert.True(t, st.Completed())

	c, err := f.carts.GetCart(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	assert.Equal(t, []event.CheckoutCompletedData{{SessionID: "cs_1", DeviceID: "dev-1", Principal: "user-1"}}, f.events.completed)
	assert.Equal(t, []event.CartClearedData{{DeviceID: "dev-1", Reason: event.ClearedByCheckout}}, f.events.cleared)
}

func TestCheckoutService_ConfirmFailedKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t, "dev-1")
	f.backend.On("SessionStatus", mock.Anything, "cs_1").
		Return(&domain.SessionStatus{State: domain.SessionFailed, Error: "card declined"}, nil)

	st, err := f.checkout.ConfirmSession(context.Background(), "dev-1", "cs_1")
	require.NoError(t, err)
	assert.False(t, st.Completed())

	c, err := f.carts.GetCart(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.TotalItems())
	assert.Empty(t, f.events.completed)
	assert.Empty(t, f.events.cleared)
}

func TestCheckoutService_ConfirmRequiresSessionID(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.checkout.ConfirmSession(context.Background(), "dev-1", " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCheckoutService_Status(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t, "dev-1")
	f.backend.On("IsPaymentConfigured", mock.Anything).Return(true, nil)

	st, err := f.checkout.Status(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.True(t, st.PaymentConfigured)
	assert.Equal(t, int64(2), st.Cart.TotalItems())
}
