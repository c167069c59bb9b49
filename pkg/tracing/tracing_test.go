package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), DefaultConfig("storefront"))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_Enabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cfg := Config{
		ServiceName:    "storefront",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "127.0.0.1:0",
		SampleRate:     0.5,
		Enabled:        true,
	}

	shutdown, err := InitTracer(context.Background(), cfg)
	require.NoError(t, err)
	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	_ = shutdown(context.Background())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("storefront")
	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Equal(t, "localhost:4318", cfg.OTLPEndpoint)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestStartClientSpan_EndSpanRecordsError(t *testing.T) {
	rec := withRecorder(t)

	_, span := StartClientSpan(context.Background(), "backend", "backend.getProduct", attribute.String("product.id", "p1"))
	EndSpan(span, errors.New("backend unavailable"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "backend.getProduct", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestInjectHeaders(t *testing.T) {
	withRecorder(t)
	_, err := InitTracer(context.Background(), DefaultConfig("storefront"))
	require.NoError(t, err)

	ctx, span := StartClientSpan(context.Background(), "backend", "call")
	defer span.End()

	h := http.Header{}
	InjectHeaders(ctx, h)
	assert.NotEmpty(t, h.Get("traceparent"))
}
