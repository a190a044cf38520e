package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	internaldb "github.com/shariastocks-in/backend/internal/db"
	"github.com/shariastocks-in/backend/internal/entitlement"
	"github.com/shariastocks-in/backend/internal/models"
	"gorm.io/gorm"
)

// searchResultLimit caps how many rows a search returns.
const searchResultLimit = 20

// StockHandler serves the screened stock listings.
type StockHandler struct {
	db *gorm.DB
}

// NewStockHandler constructs a StockHandler.
func NewStockHandler(db *gorm.DB) *StockHandler {
	return &StockHandler{db: db}
}

// Trending lists trending stocks in rank order. Rows past the free tier's
// allowance come back blurred for free users.
func (h *StockHandler) Trending(c *gin.Context) {
	var rows []models.Stock
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("trending_rank > 0").
		Order("trending_rank ASC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list trending stocks failed"})
		return
	}
	h.respondListing(c, rows)
}

// Halal lists compliant stocks by score, best first. The same free-tier
// blurring applies.
func (h *StockHandler) Halal(c *gin.Context) {
	var rows []models.Stock
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("compliance_status = ?", models.ComplianceHalal).
		Order("compliance_score DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list halal stocks failed"})
		return
	}
	h.respondListing(c, rows)
}

// Search matches stocks by symbol or company name, best score first.
func (h *StockHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	pattern := internaldb.NormalizeLikePattern(h.db, "%"+query+"%")
	match := internaldb.CaseInsensitiveLikeExpr(h.db, "symbol") +
		" OR " + internaldb.CaseInsensitiveLikeExpr(h.db, "company_name")

	var rows []models.Stock
	if errFind := h.db.WithContext(c.Request.Context()).
		Where(match, pattern, pattern).
		Order("compliance_score DESC").
		Limit(searchResultLimit).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search stocks failed"})
		return
	}
	h.respondListing(c, rows)
}

// respondListing renders rows with per-row visibility for the caller's plan.
func (h *StockHandler) respondListing(c *gin.Context, rows []models.Stock) {
	plan, errPlan := h.callerPlan(c)
	if errPlan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i, row := range rows {
		visibility := entitlement.RowVisibility(plan, i)
		entry := gin.H{
			"symbol":      row.Symbol,
			"companyName": row.CompanyName,
			"visibility":  visibility,
		}
		if visibility == entitlement.VisibilityVisible {
			entry["sector"] = row.Sector
			entry["complianceStatus"] = row.ComplianceStatus
			entry["complianceScore"] = row.ComplianceScore
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"stocks": out})
}

// callerPlan resolves the effective plan for the request. Unauthenticated
// callers and lapsed subscribers are treated as the free tier.
func (h *StockHandler) callerPlan(c *gin.Context) (models.PlanID, error) {
	sess, ok := currentSession(c)
	if !ok {
		return models.PlanFree, nil
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, sess.UserID).Error; errFind != nil {
		return models.PlanFree, errFind
	}
	return user.EffectivePlan(), nil
}
