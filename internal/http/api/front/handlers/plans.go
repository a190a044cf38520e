package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shariastocks-in/backend/internal/models"
	"gorm.io/gorm"
)

// PlanHandler serves the public plan catalogue.
type PlanHandler struct {
	db *gorm.DB
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(db *gorm.DB) *PlanHandler {
	return &PlanHandler{db: db}
}

// List returns plan prices and features keyed by plan id, shaped the way
// the pricing page consumes them.
func (h *PlanHandler) List(c *gin.Context) {
	var plans []models.Plan
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("is_enabled = ?", true).
		Order("sort_order ASC").
		Find(&plans).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list plans failed"})
		return
	}

	planPrices := make(gin.H, len(plans))
	planFeatures := make(gin.H, len(plans))
	for _, plan := range plans {
		planPrices[string(plan.PlanID)] = gin.H{
			"monthly": plan.MonthPrice,
			"annual":  plan.AnnualPrice,
		}

		var features []string
		if len(plan.Features) > 0 {
			_ = json.Unmarshal(plan.Features, &features)
		}
		planFeatures[string(plan.PlanID)] = gin.H{
			"name":        plan.Name,
			"description": plan.Description,
			"features":    features,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"planPrices":   planPrices,
		"planFeatures": planFeatures,
	})
}
