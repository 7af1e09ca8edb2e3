package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/api/handlers"
)

func TestBillingHandler_GenerateInvoices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockBilling := new(MockBillingService)
	handler := handlers.NewBillingHandler(mockBilling)

	r := gin.New()
	r.POST("/v1/billing/generate", handler.GenerateInvoices)

	mockBilling.On("GenerateDueInvoices", mock.Anything, mock.AnythingOfType("time.Time")).Return(4, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/billing/generate", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Created int `json:"created"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Created)
	mockBilling.AssertExpectations(t)
}

func TestBillingHandler_GenerateInvoices_Failure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockBilling := new(MockBillingService)
	handler := handlers.NewBillingHandler(mockBilling)

	r := gin.New()
	r.POST("/v1/billing/generate", handler.GenerateInvoices)

	mockBilling.On("GenerateDueInvoices", mock.Anything, mock.AnythingOfType("time.Time")).Return(0, errors.New("mongo down"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/billing/generate", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBillingHandler_SweepOverdue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockBilling := new(MockBillingService)
	handler := handlers.NewBillingHandler(mockBilling)

	r := gin.New()
	r.POST("/v1/billing/sweep-overdue", handler.SweepOverdue)

	mockBilling.On("SweepOverdueInvoices", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(7), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/billing/sweep-overdue", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Updated int64 `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Updated)
	mockBilling.AssertExpectations(t)
}
