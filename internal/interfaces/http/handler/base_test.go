package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_HandleDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound, "Resource not found"},
		{"validation", shared.NewValidationError("Invalid status"), http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid status"},
		{"conflict", shared.NewConflictError("Client has invoices"), http.StatusBadRequest, dto.ErrCodeConflict, "Client has invoices"},
		{"precondition", shared.ErrPrecondition, http.StatusBadRequest, dto.ErrCodePrecondition, "Operation precondition not met"},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden, "Access to this resource is forbidden"},
		{"upstream", fmt.Errorf("checkout: %w", shared.ErrUpstream), http.StatusBadGateway, dto.ErrCodeUpstream, "Upstream service unavailable"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newBaseHandler(nil)
			router := newTestRouter(uuid.Nil)
			router.GET("/test", func(c *gin.Context) {
				h.HandleDomainError(c, tt.err)
			})

			rec := doRequest(router, http.MethodGet, "/test", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Equal(t, tt.wantMsg, env.Error.Message)
			assert.NotEmpty(t, env.Error.RequestID)
			assert.NotContains(t, rec.Body.String(), "pq:")
		})
	}
}

func TestBaseHandler_HandleDomainError_Quota(t *testing.T) {
	h := newBaseHandler(nil)
	router := newTestRouter(uuid.Nil)
	router.GET("/test", func(c *gin.Context) {
		h.HandleDomainError(c, fmt.Errorf("create: %w", invoice.NewQuotaExceededError(5, 5)))
	})

	rec := doRequest(router, http.MethodGet, "/test", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, dto.ErrCodeQuotaExceeded, env.Error.Code)
	assert.Equal(t, invoice.QuotaExceededMessage, env.Error.Message)

	raw, err := json.Marshal(env.Error.Details)
	require.NoError(t, err)
	var detail dto.QuotaDetail
	require.NoError(t, json.Unmarshal(raw, &detail))
	assert.Equal(t, int64(5), detail.CurrentUsage)
	assert.Equal(t, int64(5), detail.Limit)
	assert.Equal(t, upgradePath, detail.UpgradePath)
}

func TestBaseHandler_HandleDomainError_Nil(t *testing.T) {
	h := newBaseHandler(nil)
	router := newTestRouter(uuid.Nil)
	router.GET("/test", func(c *gin.Context) {
		h.HandleDomainError(c, nil)
		c.Status(http.StatusTeapot)
	})

	rec := doRequest(router, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestBaseHandler_CurrentUser(t *testing.T) {
	h := newBaseHandler(nil)
	userID := uuid.New()

	t.Run("authenticated", func(t *testing.T) {
		router := newTestRouter(userID)
		router.GET("/test", func(c *gin.Context) {
			id, ok := h.currentUser(c)
			assert.True(t, ok)
			h.Success(c, id)
		})
		rec := doRequest(router, http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), userID.String())
	})

	t.Run("anonymous", func(t *testing.T) {
		router := newTestRouter(uuid.Nil)
		router.GET("/test", func(c *gin.Context) {
			_, ok := h.currentUser(c)
			assert.False(t, ok)
		})
		rec := doRequest(router, http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, decode(t, rec).Error.Code)
	})
}
