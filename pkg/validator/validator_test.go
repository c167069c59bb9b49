package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quantityRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=999"`
	Contact   string `json:"contact" validate:"omitempty,has_at"`
}

func init() {
	RegisterValidation("has_at", func(v string) bool { return strings.Contains(v, "@") })
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(quantityRequest{ProductID: "p1", Quantity: 2}))
}

func TestValidate_FieldMessages(t *testing.T) {
	err := Validate(quantityRequest{Quantity: 0})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["ProductID"])
	assert.Equal(t, "must be greater than or equal to 1", fields["Quantity"])
	assert.Contains(t, err.Error(), "field 'ProductID' is required")
}

func TestValidate_CustomTag(t *testing.T) {
	err := Validate(quantityRequest{ProductID: "p1", Quantity: 1, Contact: "nobody"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Contact"], "has_at")
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"p1","quantity":3}`))
	var dst quantityRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, 3, dst.Quantity)

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":`))
	err := DecodeAndValidate(bad, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
