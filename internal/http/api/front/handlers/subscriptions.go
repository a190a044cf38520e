package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shariastocks-in/backend/internal/checkout"
	"github.com/shariastocks-in/backend/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// endDateFormat is how period end dates are rendered for the client.
const endDateFormat = "January 2, 2006"

// SubscriptionHandler serves subscription state endpoints.
type SubscriptionHandler struct {
	db         *gorm.DB
	negotiator *checkout.Negotiator
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(db *gorm.DB, negotiator *checkout.Negotiator) *SubscriptionHandler {
	return &SubscriptionHandler{db: db, negotiator: negotiator}
}

// Status returns the caller's subscription summary.
func (h *SubscriptionHandler) Status(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, sess.UserID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}

	sub := user.Subscription
	active := sub.ActiveAt(time.Now().UTC())
	payload := gin.H{
		"hasActiveSubscription": active,
		"plan":                  sub.Plan,
		"billingCycle":          sub.BillingCycle,
		"status":                sub.Status,
		"autoRenew":             sub.AutoRenew,
	}
	if sub.EndDate != nil {
		payload["formattedEndDate"] = sub.EndDate.Format(endDateFormat)
	}
	c.JSON(http.StatusOK, payload)
}

// cancelSubscriptionRequest defines the request body for cancellation.
type cancelSubscriptionRequest struct {
	Reason   string `json:"reason"`
	Feedback string `json:"feedback"`
}

// Cancel turns off auto-renew; access continues until the period ends.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body cancelSubscriptionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	user, errCancel := h.negotiator.CancelSubscription(
		c.Request.Context(), sess.UserID,
		strings.TrimSpace(body.Reason), strings.TrimSpace(body.Feedback),
	)
	if errCancel != nil {
		if errors.Is(errCancel, checkout.ErrNoActiveSubscription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no active subscription to cancel"})
			return
		}
		log.WithError(errCancel).Error("cancel subscription failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel subscription failed"})
		return
	}

	payload := gin.H{
		"plan":      user.Subscription.Plan,
		"status":    user.Subscription.Status,
		"autoRenew": user.Subscription.AutoRenew,
	}
	if user.Subscription.EndDate != nil {
		payload["formattedEndDate"] = user.Subscription.EndDate.Format(endDateFormat)
	}
	c.JSON(http.StatusOK, payload)
}
