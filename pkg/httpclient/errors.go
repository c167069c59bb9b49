package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// maxErrorBody caps how much of an error body is read.
const maxErrorBody = 1 << 20

// downstreamError mirrors the {"error":{"code","message"}} envelope.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// translates it into an AppError that keeps the downstream semantics.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", serviceName, resp.StatusCode, err)
	}

	code, message := "", string(body)
	var downstream downstreamError
	if json.Unmarshal(body, &downstream) == nil && downstream.Error != nil {
		code, message = downstream.Error.Code, downstream.Error.Message
	}

	return mapStatus(resp.StatusCode, code, message, serviceName)
}

func mapStatus(status int, code, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{Code: "NOT_FOUND", Message: message, Status: status, Err: apperrors.ErrNotFound}
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(message)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case status == http.StatusConflict:
		return apperrors.Conflict(message)
	case status >= 500:
		return &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: serviceName + " is temporarily unavailable",
			Status:  http.StatusServiceUnavailable,
			Err:     fmt.Errorf("%w: %s (%d/%s)", apperrors.ErrServiceUnavail, qualified, status, code),
		}
	default:
		return fmt.Errorf("%s returned unexpected status %d: %s", serviceName, status, message)
	}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
