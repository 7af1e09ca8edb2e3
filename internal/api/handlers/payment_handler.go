package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/services"
)

// PaymentHandler handles payment recording.
type PaymentHandler struct {
	paymentService services.IPaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService services.IPaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

type recordPaymentRequest struct {
	InvoiceID   string     `json:"invoice_id" binding:"required"`
	AmountPaid  float64    `json:"amount_paid" binding:"required"`
	PaymentDate *time.Time `json:"payment_date" binding:"required"`
	Notes       string     `json:"notes"`
}

// RecordPayment handles POST /v1/payments.
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invoice ID, paid amount and payment date are required"})
		return
	}
	if req.AmountPaid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paid amount must be positive"})
		return
	}
	invoiceID, err := primitive.ObjectIDFromHex(req.InvoiceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice_id format"})
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.RecordPayment(c.Request.Context(), invoiceID, req.AmountPaid, req.PaymentDate.UTC(), req.Notes, actor)
	if err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		respondServiceError(c, err, "Invoice not found")
		return
	}
	c.JSON(http.StatusCreated, payment)
}
