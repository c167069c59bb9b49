package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func spanAttrs(s tracetest.SpanStub) map[string]string {
	attrs := make(map[string]string, len(s.Attributes))
	for _, a := range s.Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	return attrs
}

func TestTraceQuery_Success(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "LoadCart", "SELECT payload FROM device_carts WHERE key = $1")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.LoadCart", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "LoadCart", attrs["db.operation"])
}

func TestTraceOp_ErrorRecorded(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceOp(context.Background(), "redis", "SaveCart", "SET")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "redis", spanAttrs(spans[0])["db.system"])
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events)
}

func TestSlowQueryLogging(t *testing.T) {
	setupTestTracer(t)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	var buf bytes.Buffer
	SetSlowQueryLogging(time.Nanosecond, slog.New(slog.NewJSONHandler(&buf, nil)))

	_, end := TraceQuery(context.Background(), "SaveCart", "INSERT INTO device_carts")
	end(errors.New("unique constraint violation"))

	out := buf.String()
	assert.Contains(t, out, "slow query detected")
	assert.Contains(t, out, "SaveCart")
	assert.Contains(t, out, "unique constraint violation")
}

func TestSlowQueryLogging_FastQueryNotLogged(t *testing.T) {
	setupTestTracer(t)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	var buf bytes.Buffer
	SetSlowQueryLogging(time.Hour, slog.New(slog.NewJSONHandler(&buf, nil)))

	_, end := TraceQuery(context.Background(), "LoadCart", "SELECT 1")
	end(nil)

	assert.Empty(t, buf.String())
}
