package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/event"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func newTestCartService(t *testing.T, b *mockBackend) (*CartService, *fakeEvents) {
	t.Helper()
	ev := &fakeEvents{}
	return NewCartService(newTestManager(t), b, ev, newTestLogger()), ev
}

func TestCartService_AddItemUsesFreshProduct(t *testing.T) {
	b := &mockBackend{}
	b.On("GetProduct", mock.Anything, "p1").Return(productPtr(testProduct("p1", "c", 1250)), nil)
	svc, _ := newTestCartService(t, b)

	c, err := svc.AddItem(context.Background(), "dev-1", "p1", 2)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(2), c.TotalItems())
	assert.True(t, c.TotalPrice().Equal(decimal.NewFromInt(2500)))
}

func TestCartService_AddItemDefaultsToOne(t *testing.T) {
	b := &mockBackend{}
	b.On("GetProduct", mock.Anything, "p1").Return(productPtr(testProduct("p1", "c", 100)), nil)
	svc, _ := newTestCartService(t, b)

	c, err := svc.AddItem(context.Background(), "dev-1", "p1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.TotalItems())
}

func TestCartService_AddItemUnknownProduct(t *testing.T) {
	b := &mockBackend{}
	b.On("GetProduct", mock.Anything, "ghost").Return(nil, apperrors.NotFound("product", "ghost"))
	svc, _ := newTestCartService(t, b)

	_, err := svc.AddItem(context.Background(), "dev-1", "ghost", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	c, err := svc.GetCart(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestCartService_AddItemRejectsFractionalPrice(t *testing.T) {
	odd := testProduct("p1", "c", 100)
	odd.Price = decimal.RequireFromString("12.5")
	b := &mockBackend{}
	b.On("GetProduct", mock.Anything, "p1").Return(productPtr(odd), nil)
	svc, _ := newTestCartService(t, b)

	_, err := svc.AddItem(context.Background(), "dev-1", "p1", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	c, err := svc.GetCart(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestCartService_RequiresIDs(t *testing.T) {
	svc, _ := newTestCartService(t, &mockBackend{})

	_, err := svc.AddItem(context.Background(), "dev-1", "", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = svc.GetCart(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	b := &mockBackend{}
	b.On("GetProduct", mock.Anything, "p1").Return(productPtr(testProduct("p1", "c", 100)), nil)
	b.On("GetProduct", mock.Anything, "p2").Return(productPtr(testProduct("p2", "c", 200)), nil)
	svc, ev := newTestCartService(t, b)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "dev-1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "dev-1", "p2", 1)
	require.NoError(t, err)

	c, err := svc.UpdateQuantity(ctx, "dev-1", "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(6), c.TotalItems())

	c, err = svc.RemoveItem(ctx, "dev-1", "p2")
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.TotalItems())

	c, err = svc.UpdateQuantity(ctx, "dev-1", "p1", 0)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	_, err = svc.AddItem(ctx, "dev-1", "p1", 1)
	require.NoError(t, err)
	c, err = svc.Clear(ctx, "dev-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, []event.CartClearedData{{DeviceID: "dev-1", Reason: event.ClearedByUser}}, ev.cleared)
}

func TestCartService_DevicesAreSeparate(t *testing.T) {
	b := &mockBackend{}
	b.On("GetProduct", mock.Anything, "p1").Return(productPtr(testProduct("p1", "c", 100)), nil)
	svc, _ := newTestCartService(t, b)

	_, err := svc.AddItem(context.Background(), "dev-a", "p1", 3)
	require.NoError(t, err)

	c, err := svc.GetCart(context.Background(), "dev-b")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestCartService_ClosedManagerIsUnavailable(t *testing.T) {
	m := newTestManager(t)
	svc := NewCartService(m, &mockBackend{}, &fakeEvents{}, newTestLogger())
	m.Close()

	_, err := svc.GetCart(context.Background(), "dev-1")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}
