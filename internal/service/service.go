package service

import (
	"context"

	"github.com/utafrali/storefront/internal/event"
)

// EventPublisher is the set of storefront events services emit. Calls never
// fail from the caller's point of view.
type EventPublisher interface {
	CheckoutStarted(ctx context.Context, data event.CheckoutStartedData)
	CheckoutCompleted(ctx context.Context, data event.CheckoutCompletedData)
	CartCleared(ctx context.Context, data event.CartClearedData)
}
