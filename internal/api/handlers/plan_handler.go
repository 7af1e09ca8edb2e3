package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/services"
)

// PlanHandler handles REST requests for plans.
type PlanHandler struct {
	planService services.IPlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService services.IPlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

type createPlanRequest struct {
	Name         string  `json:"name" binding:"required"`
	BasePrice    float64 `json:"base_price"`
	BillingCycle string  `json:"billing_cycle" binding:"required"`
	TrialDays    *int    `json:"trial_days"`
}

// CreatePlan handles POST /v1/plans.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan name and billing cycle are required"})
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), req.Name, req.BasePrice, models.BillingCycle(req.BillingCycle), req.TrialDays)
	if err != nil {
		respondServiceError(c, err, "Plan not found")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GetPlan handles GET /v1/plans/:id.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	plan, err := h.planService.FindPlanByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Plan not found")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ListPlans handles GET /v1/plans.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}
