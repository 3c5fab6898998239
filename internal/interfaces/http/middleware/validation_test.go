package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLineItem struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"gt=0"`
}

type testInvoiceRequest struct {
	ClientID string         `json:"client_id" binding:"required,uuid"`
	Email    string         `json:"email" binding:"omitempty,email"`
	Status   string         `json:"status" binding:"omitempty,oneof=DRAFT SENT PAID"`
	Items    []testLineItem `json:"items" binding:"required,min=1,dive"`
}

func init() {
	SetupValidator()
}

func bindTestRequest(t *testing.T, body string) error {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var req testInvoiceRequest
	return c.ShouldBindJSON(&req)
}

func TestFormatValidationErrors_FieldDetails(t *testing.T) {
	err := bindTestRequest(t, `{"client_id":"nope","email":"x","status":"LOST","items":[{"description":"","quantity":0}]}`)
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-1")

	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)

	details, ok := resp.Error.Details.([]dto.ValidationDetail)
	require.True(t, ok)

	byField := make(map[string]string)
	for _, d := range details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid UUID format", byField["client_id"])
	assert.Equal(t, "Invalid email format", byField["email"])
	assert.Equal(t, "Must be one of: DRAFT SENT PAID", byField["status"])
	assert.Equal(t, "This field is required", byField["items[0].description"])
	assert.Equal(t, "Must be greater than 0", byField["items[0].quantity"])
}

func TestFormatValidationErrors_EmptyItems(t *testing.T) {
	err := bindTestRequest(t, `{"client_id":"6f1c1c5e-8d7a-4c55-9a53-0d6a5f2f2f01","items":[]}`)
	require.Error(t, err)

	details := FormatValidationErrors(err, "").Error.Details.([]dto.ValidationDetail)
	require.Len(t, details, 1)
	assert.Equal(t, "items", details[0].Field)
	assert.Equal(t, "Must contain at least 1 item(s)", details[0].Message)
}

func TestFormatValidationErrors_Malformed(t *testing.T) {
	resp := FormatValidationErrors(errors.New("unexpected EOF"), "req-2")

	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Request body is malformed", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
}

func TestHandleValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set(RequestIDKey, "req-3")

	HandleValidationError(c, errors.New("bad json"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	info := decodeError(t, rec)
	assert.Equal(t, dto.ErrCodeValidation, info.Code)
	assert.Equal(t, "req-3", info.RequestID)
	assert.True(t, c.IsAborted())
}
