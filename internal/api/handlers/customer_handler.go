package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/services"
)

// CustomerHandler handles REST requests for customers.
type CustomerHandler struct {
	customerService services.ICustomerService
	invoiceService  services.IInvoiceService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerService services.ICustomerService, invoiceService services.IInvoiceService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, invoiceService: invoiceService}
}

type createCustomerRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Status string `json:"status"`
}

// CreateCustomer handles POST /v1/customers.
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer name is required"})
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), req.Name, req.Email, req.Phone, models.CustomerStatus(req.Status))
	if err != nil {
		respondServiceError(c, err, "Customer not found")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GetCustomer handles GET /v1/customers/:id.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.FindCustomerByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Customer not found")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// ListCustomers handles GET /v1/customers.
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}
	customers, err := h.customerService.ListCustomers(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

type updateCustomerStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateCustomerStatus handles PUT /v1/customers/:id/status.
func (h *CustomerHandler) UpdateCustomerStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateCustomerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}
	if err := h.customerService.UpdateCustomerStatus(c.Request.Context(), id, models.CustomerStatus(req.Status)); err != nil {
		respondServiceError(c, err, "Customer not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListCustomerInvoices handles GET /v1/customers/:id/invoices.
func (h *CustomerHandler) ListCustomerInvoices(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	invoices, err := h.invoiceService.ListInvoicesForCustomer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Customer not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}
