package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/services"
)

// SubscriptionHandler handles REST requests for subscriptions.
type SubscriptionHandler struct {
	subscriptionService services.ISubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService services.ISubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

type createSubscriptionRequest struct {
	CustomerID  string   `json:"customer_id" binding:"required"`
	PlanID      string   `json:"plan_id" binding:"required"`
	CustomPrice *float64 `json:"custom_price"`
	BillingDay  string   `json:"billing_day"`
	Trial       bool     `json:"trial"`
}

// CreateSubscription handles POST /v1/subscriptions.
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer ID and plan ID are required"})
		return
	}
	customerID, err := primitive.ObjectIDFromHex(req.CustomerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer_id format"})
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan_id format"})
		return
	}

	sub, err := h.subscriptionService.CreateSubscription(c.Request.Context(), customerID, planID, req.CustomPrice, req.BillingDay, req.Trial)
	if err != nil {
		respondServiceError(c, err, "Subscription not found")
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// GetSubscription handles GET /v1/subscriptions/:id.
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sub, err := h.subscriptionService.FindSubscriptionByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Subscription not found")
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ListSubscriptions handles GET /v1/subscriptions, optionally filtered by
// customer_id.
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}
	var customerID *primitive.ObjectID
	if raw := c.Query("customer_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer_id format"})
			return
		}
		customerID = &id
	}

	subs, err := h.subscriptionService.ListSubscriptions(c.Request.Context(), customerID, limit)
	if err != nil {
		respondServiceError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

type updateSubscriptionStatusRequest struct {
	Status          string     `json:"status" binding:"required"`
	NextBillingDate *time.Time `json:"next_billing_date"`
}

// UpdateSubscriptionStatus handles PUT /v1/subscriptions/:id/status.
func (h *SubscriptionHandler) UpdateSubscriptionStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req updateSubscriptionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	err := h.subscriptionService.UpdateSubscriptionStatus(c.Request.Context(), id, models.SubscriptionStatus(req.Status), req.NextBillingDate, actor)
	if err != nil {
		respondServiceError(c, err, "Subscription not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type changePlanRequest struct {
	PlanID     string `json:"plan_id" binding:"required"`
	BillingDay string `json:"billing_day"`
}

// ChangePlan handles PUT /v1/subscriptions/:id/plan.
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req changePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan ID is required"})
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan_id format"})
		return
	}

	sub, err := h.subscriptionService.ChangePlan(c.Request.Context(), id, planID, req.BillingDay)
	if err != nil {
		respondServiceError(c, err, "Subscription not found")
		return
	}
	c.JSON(http.StatusOK, sub)
}
