package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics for storefront events.
const (
	TopicCheckoutStarted   = "storefront.checkout.started"
	TopicCheckoutCompleted = "storefront.checkout.completed"
	TopicCartCleared       = "storefront.cart.cleared"
)

// Aggregate types.
const (
	AggregateTypeCheckout = "checkout"
	AggregateTypeCart     = "cart"
)

// SourceStorefront identifies events published by this service.
const SourceStorefront = "storefront"

// Reasons a cart was cleared.
const (
	ClearedByUser     = "user"
	ClearedByCheckout = "checkout"
)

const publishTimeout = 5 * time.Second

// CheckoutStartedData is the payload of a checkout.started event.
type CheckoutStartedData struct {
	SessionID  string                `json:"session_id"`
	DeviceID   string                `json:"device_id"`
	Principal  string                `json:"principal,omitempty"`
	Items      []domain.ShoppingItem `json:"items"`
	TotalItems int64                 `json:"total_items"`
	TotalCents decimal.Decimal       `json:"total_cents"`
	Currency   string                `json:"currency"`
}

// CheckoutCompletedData is the payload of a checkout.completed event.
type CheckoutCompletedData struct {
	SessionID string `json:"session_id"`
	DeviceID  string `json:"device_id"`
	Principal string `json:"principal,omitempty"`
}

// CartClearedData is the payload of a cart.cleared event.
type CartClearedData struct {
	DeviceID string `json:"device_id"`
	Reason   string `json:"reason"`
}

// Publisher is the subset of the Kafka producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront events. Publishing never blocks the caller
// and failures are only logged.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewProducer creates an event producer. A nil publisher disables events.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// CheckoutStarted publishes a checkout.started event.
func (p *Producer) CheckoutStarted(ctx context.Context, data CheckoutStartedData) {
	p.publish(ctx, TopicCheckoutStarted, data.SessionID, AggregateTypeCheckout, data)
}

// CheckoutCompleted publishes a checkout.completed event.
func (p *Producer) CheckoutCompleted(ctx context.Context, data CheckoutCompletedData) {
	p.publish(ctx, TopicCheckoutCompleted, data.SessionID, AggregateTypeCheckout, data)
}

// CartCleared publishes a cart.cleared event.
func (p *Producer) CartCleared(ctx context.Context, data CartClearedData) {
	p.publish(ctx, TopicCartCleared, data.DeviceID, AggregateTypeCart, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) {
	if p == nil || p.kafka == nil {
		return
	}

	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		return
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	if id := logger.DeviceIDFromContext(ctx); id != "" {
		evt.WithMetadata("device_id", id)
	}

	pubCtx := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(pubCtx, publishTimeout)
		defer cancel()

		if err := p.kafka.Publish(ctx, topic, evt); err != nil {
			p.logger.WarnContext(ctx, "failed to publish event",
				slog.String("topic", topic),
				slog.String("aggregate_id", aggregateID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Wait blocks until every in-flight publish has finished.
func (p *Producer) Wait() {
	if p == nil {
		return
	}
	p.wg.Wait()
}
