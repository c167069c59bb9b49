package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusCreated, map[string]string{"id": "p1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"p1"}}`, rec.Body.String())
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)

	WriteError(rec, req, fmt.Errorf("list users: %w", apperrors.Forbidden("admin access required")), testLogger())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
	assert.Equal(t, "admin access required", resp.Error.Message)
}

func TestWriteError_Sentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("x: %w", apperrors.ErrServiceUnavail), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, testLogger())

		assert.Equal(t, tt.status, rec.Code)
		assert.Equal(t, tt.code, decode(t, rec).Error.Code)
	}
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithCorrelationID(req.Context(), "corr-1"))

	WriteError(rec, req, apperrors.NotFound("product", "p1"), testLogger())

	assert.Equal(t, "corr-1", decode(t, rec).Error.RequestID)
}

func TestWriteValidationError(t *testing.T) {
	type body struct {
		Email string `validate:"required"`
	}
	rec := httptest.NewRecorder()
	WriteValidationError(rec, validator.Validate(body{}))

	resp := decode(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Fields["Email"])

	rec = httptest.NewRecorder()
	WriteValidationError(rec, errors.New("decode request body: EOF"))
	assert.Equal(t, "INVALID_INPUT", decode(t, rec).Error.Code)
}
