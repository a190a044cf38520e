package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shariastocks-in/backend/internal/entitlement"
	"github.com/shariastocks-in/backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WatchlistHandler serves the per-user watchlist. The watchlist is a paid
// feature; free-tier callers are rejected before any query runs.
type WatchlistHandler struct {
	db *gorm.DB
}

// NewWatchlistHandler constructs a WatchlistHandler.
func NewWatchlistHandler(db *gorm.DB) *WatchlistHandler {
	return &WatchlistHandler{db: db}
}

// gate loads the caller and enforces the paid-plan requirement. It returns
// the user and plan when access is allowed, having already written the
// response otherwise.
func (h *WatchlistHandler) gate(c *gin.Context) (*models.User, *models.Plan, bool) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, nil, false
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, sess.UserID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return nil, nil, false
	}

	plan := user.EffectivePlan()
	if !entitlement.CanAccessWatchlist(plan) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Watchlist requires a paid plan"})
		return nil, nil, false
	}

	var planRow models.Plan
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("plan_id = ?", plan).
		First(&planRow).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query plan failed"})
		return nil, nil, false
	}
	return &user, &planRow, true
}

// List returns the caller's watchlist, newest first.
func (h *WatchlistHandler) List(c *gin.Context) {
	user, _, ok := h.gate(c)
	if !ok {
		return
	}

	var entries []models.WatchlistEntry
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&entries).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list watchlist failed"})
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		out = append(out, gin.H{
			"symbol":      entry.Symbol,
			"companyName": entry.CompanyName,
			"stockData":   entry.StockData,
			"addedAt":     entry.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"watchlist": out})
}

// addWatchlistRequest defines the request body for adding a symbol.
type addWatchlistRequest struct {
	Symbol      string         `json:"symbol"`
	CompanyName string         `json:"companyName"`
	StockData   datatypes.JSON `json:"stockData"`
}

// Add puts a symbol on the caller's watchlist, up to the plan's limit.
func (h *WatchlistHandler) Add(c *gin.Context) {
	user, planRow, ok := h.gate(c)
	if !ok {
		return
	}

	var body addWatchlistRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(body.Symbol))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	var count int64
	if errCount := h.db.WithContext(c.Request.Context()).
		Model(&models.WatchlistEntry{}).
		Where("user_id = ?", user.ID).
		Count(&count).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query watchlist failed"})
		return
	}
	if planRow.WatchlistLimit > 0 && count >= int64(planRow.WatchlistLimit) {
		c.JSON(http.StatusForbidden, gin.H{"error": "watchlist limit reached for your plan"})
		return
	}

	entry := models.WatchlistEntry{
		UserID:      user.ID,
		Symbol:      symbol,
		CompanyName: strings.TrimSpace(body.CompanyName),
		StockData:   body.StockData,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&entry).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "symbol already on watchlist"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add to watchlist failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"symbol":      entry.Symbol,
		"companyName": entry.CompanyName,
		"addedAt":     entry.CreatedAt,
	})
}

// Remove takes a symbol off the caller's watchlist.
func (h *WatchlistHandler) Remove(c *gin.Context) {
	user, _, ok := h.gate(c)
	if !ok {
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND symbol = ?", user.ID, symbol).
		Delete(&models.WatchlistEntry{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove from watchlist failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "symbol not on watchlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
