package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/services"
)

// InvoiceHandler handles REST requests for invoices.
type InvoiceHandler struct {
	invoiceService services.IInvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService services.IInvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

type createManualInvoiceRequest struct {
	CustomerID  string     `json:"customer_id" binding:"required"`
	Amount      float64    `json:"amount" binding:"required"`
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
	Notes       string     `json:"notes"`
}

// CreateManualInvoice handles POST /v1/invoices.
func (h *InvoiceHandler) CreateManualInvoice(c *gin.Context) {
	var req createManualInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer ID and amount are required"})
		return
	}
	customerID, err := primitive.ObjectIDFromHex(req.CustomerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer_id format"})
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.CreateManualInvoice(c.Request.Context(), customerID, req.Amount, req.PeriodStart, req.PeriodEnd, req.Notes, actor)
	if err != nil {
		respondServiceError(c, err, "Customer not found")
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// GetInvoice handles GET /v1/invoices/:id.
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.FindInvoiceByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Invoice not found")
		return
	}
	c.JSON(http.StatusOK, invoice)
}
