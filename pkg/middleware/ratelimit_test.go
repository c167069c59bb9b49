package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimit_WithinBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(ctx, 10, 10, discardLogger())(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
	}
}

func TestRateLimit_ExceedingBurstReturns429(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(ctx, 1, 3, discardLogger())(okHandler())

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests {
			assert.Contains(t, rr.Body.String(), "RATE_LIMITED")
			assert.Equal(t, "1", rr.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 200, 429}, codes)
}

func TestRateLimit_SeparateBucketsPerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(ctx, 1, 1, discardLogger())(okHandler())

	for _, ip := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestVisitorStore_CleanupEvictsIdle(t *testing.T) {
	now := time.Now()
	s := newVisitorStore(1, 1, time.Minute)
	s.nowFunc = func() time.Time { return now }

	s.limiter("10.0.0.1")
	now = now.Add(30 * time.Second)
	s.limiter("10.0.0.2")
	now = now.Add(45 * time.Second)

	s.cleanup()
	assert.Equal(t, 1, s.len())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.9:1", "203.0.113.7"},
		{"forwarded garbage", map[string]string{"X-Forwarded-For": "unknown, 198.51.100.2"}, "10.0.0.9:1", "198.51.100.2"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.9"}, "10.0.0.9:1", "198.51.100.9"},
		{"remote addr", nil, "10.0.0.9:1234", "10.0.0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
