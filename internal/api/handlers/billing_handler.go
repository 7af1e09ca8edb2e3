package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/services"
)

// BillingHandler exposes manual triggers for the scheduled billing jobs.
// Both routes sit behind the admin middleware.
type BillingHandler struct {
	billingService services.IBillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billingService services.IBillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// GenerateInvoices handles POST /v1/billing/generate. It runs the same code
// path as the nightly scheduled job.
func (h *BillingHandler) GenerateInvoices(c *gin.Context) {
	created, err := h.billingService.GenerateDueInvoices(c.Request.Context(), time.Now().UTC())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invoice generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

// SweepOverdue handles POST /v1/billing/sweep-overdue.
func (h *BillingHandler) SweepOverdue(c *gin.Context) {
	count, err := h.billingService.SweepOverdueInvoices(c.Request.Context(), time.Now().UTC())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Overdue sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": count})
}
