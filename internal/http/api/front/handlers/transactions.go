package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shariastocks-in/backend/internal/checkout"
	"github.com/shariastocks-in/backend/internal/mailer"
	"github.com/shariastocks-in/backend/internal/models"
	"github.com/shariastocks-in/backend/internal/payment"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TransactionHandler serves checkout negotiation and payment endpoints.
type TransactionHandler struct {
	db         *gorm.DB
	negotiator *checkout.Negotiator
	gateway    payment.Gateway
	mail       *mailer.Mailer
}

// NewTransactionHandler constructs a TransactionHandler.
func NewTransactionHandler(db *gorm.DB, negotiator *checkout.Negotiator, gateway payment.Gateway, mail *mailer.Mailer) *TransactionHandler {
	return &TransactionHandler{db: db, negotiator: negotiator, gateway: gateway, mail: mail}
}

// initiateRequest defines the request body for checkout negotiation.
type initiateRequest struct {
	Plan           string `json:"plan"`
	BillingCycle   string `json:"billingCycle"`
	ConfirmUpgrade bool   `json:"confirmUpgrade"`
}

// Initiate runs the pre-payment decision sequence and returns either a
// pending transaction or a conflict the client must resolve.
func (h *TransactionHandler) Initiate(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body initiateRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	plan := models.PlanID(strings.ToLower(strings.TrimSpace(body.Plan)))
	cycle := models.BillingCycle(strings.ToLower(strings.TrimSpace(body.BillingCycle)))
	if !models.ValidPlanID(plan) || plan == models.PlanFree {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan must be basic or premium"})
		return
	}
	if !models.ValidBillingCycle(cycle) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "billingCycle must be monthly or annual"})
		return
	}

	decision, errNegotiate := h.negotiator.Negotiate(c.Request.Context(), sess.UserID, plan, cycle, body.ConfirmUpgrade)
	if errNegotiate != nil {
		if errors.Is(errNegotiate, checkout.ErrPlanNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "plan not found"})
			return
		}
		log.WithError(errNegotiate).Error("initiate transaction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "initiate transaction failed"})
		return
	}

	switch decision.Kind {
	case checkout.DecisionAlreadySubscribed:
		payload := gin.H{
			"status":       "already_subscribed",
			"plan":         decision.Current.Plan,
			"billingCycle": decision.Current.BillingCycle,
		}
		if decision.Current.EndDate != nil {
			payload["formattedEndDate"] = decision.Current.EndDate.Format(endDateFormat)
		}
		c.JSON(http.StatusConflict, payload)
	case checkout.DecisionUpgradeRequired:
		c.JSON(http.StatusConflict, gin.H{
			"error":                 "Subscription already active",
			"status":                "upgrade_available",
			"currentPlan":           decision.Current.Plan,
			"currentBillingCycle":   decision.Current.BillingCycle,
			"requestedPlan":         plan,
			"requestedBillingCycle": cycle,
		})
	default:
		txn := decision.Transaction
		c.JSON(http.StatusOK, gin.H{
			"transactionId": txn.TransactionID,
			"plan":          txn.Plan,
			"billingCycle":  txn.BillingCycle,
			"planPrice":     txn.BaseAmount,
			"taxAmount":     txn.TaxAmount,
			"amount":        txn.TotalAmount,
			"isUpgrade":     txn.IsUpgrade,
		})
	}
}

// Pending returns the caller's resumable pending transaction, if any.
func (h *TransactionHandler) Pending(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	txn, errPending := h.negotiator.Pending(c.Request.Context(), sess.UserID)
	if errPending != nil {
		if errors.Is(errPending, checkout.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no pending transaction"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query pending transaction failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactionId": txn.TransactionID,
		"plan":          txn.Plan,
		"billingCycle":  txn.BillingCycle,
		"planPrice":     txn.BaseAmount,
		"taxAmount":     txn.TaxAmount,
		"amount":        txn.TotalAmount,
		"isUpgrade":     txn.IsUpgrade,
	})
}

// subscribeRequest defines the request body for payment submission.
type subscribeRequest struct {
	TransactionID string `json:"transactionId"`
	PaymentMethod string `json:"paymentMethod"`

	CardNumber string `json:"cardNumber"`
	CardName   string `json:"cardName"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`

	UPIID string `json:"upiId"`
}

// validate checks the instrument fields are present for the chosen method.
// Inputs are required-non-empty only; no card network validation happens here.
func (r *subscribeRequest) validate() string {
	if strings.TrimSpace(r.TransactionID) == "" {
		return "transactionId is required"
	}
	switch r.PaymentMethod {
	case models.PaymentMethodCard:
		if strings.TrimSpace(r.CardNumber) == "" ||
			strings.TrimSpace(r.CardName) == "" ||
			strings.TrimSpace(r.ExpiryDate) == "" ||
			strings.TrimSpace(r.CVV) == "" {
			return "card details are required"
		}
	case models.PaymentMethodUPI:
		if strings.TrimSpace(r.UPIID) == "" {
			return "upiId is required"
		}
	default:
		return "paymentMethod must be card or upi"
	}
	return ""
}

// Subscribe charges a pending transaction and activates the subscription.
func (h *TransactionHandler) Subscribe(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body subscribeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if msg := body.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	txn, errPending := h.negotiator.Pending(c.Request.Context(), sess.UserID)
	if errPending != nil || txn.TransactionID != strings.TrimSpace(body.TransactionID) {
		// Fall back to a direct lookup so older pendings stay payable.
		var direct models.Transaction
		errFind := h.db.WithContext(c.Request.Context()).
			Where("transaction_id = ? AND user_id = ?", strings.TrimSpace(body.TransactionID), sess.UserID).
			First(&direct).Error
		if errFind != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		if direct.Status != models.TransactionStatusPending {
			c.JSON(http.StatusConflict, gin.H{"error": "transaction is not pending"})
			return
		}
		txn = &direct
	}

	receipt, errCharge := h.gateway.Charge(c.Request.Context(), payment.ChargeRequest{
		Amount:     txn.TotalAmount,
		Currency:   txn.Currency,
		Method:     body.PaymentMethod,
		Reference:  txn.TransactionID,
		CardNumber: body.CardNumber,
		CardName:   body.CardName,
		ExpiryDate: body.ExpiryDate,
		CVV:        body.CVV,
		UPIID:      body.UPIID,
	})
	if errCharge != nil {
		if errors.Is(errCharge, payment.ErrDeclined) {
			// The transaction stays pending so the client can retry.
			c.JSON(http.StatusPaymentRequired, gin.H{"error": payment.ErrDeclined.Error()})
			return
		}
		log.WithError(errCharge).Error("charge failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment processing failed"})
		return
	}

	instrument := checkout.Instrument{Method: body.PaymentMethod}
	if body.PaymentMethod == models.PaymentMethodCard {
		instrument.CardBrand = payment.CardBrand(body.CardNumber)
		instrument.CardLast4 = payment.CardLast4(body.CardNumber)
	} else {
		instrument.UPIID = strings.TrimSpace(body.UPIID)
	}

	user, completed, errComplete := h.negotiator.Complete(c.Request.Context(), sess.UserID, txn.TransactionID, receipt, instrument)
	if errComplete != nil {
		switch {
		case errors.Is(errComplete, checkout.ErrTransactionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		case errors.Is(errComplete, checkout.ErrNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "transaction is not pending"})
		default:
			log.WithError(errComplete).Error("activate subscription failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "activate subscription failed"})
		}
		return
	}

	if user.Subscription.EndDate != nil {
		h.mail.SendPaymentConfirmation(user.Email, completed.Plan, completed.BillingCycle, completed.TotalAmount, *user.Subscription.EndDate)
	}

	payload := gin.H{
		"transactionId": completed.TransactionID,
		"plan":          completed.Plan,
		"billingCycle":  completed.BillingCycle,
		"amount":        completed.TotalAmount,
		"isUpgrade":     completed.IsUpgrade,
	}
	if user.Subscription.EndDate != nil {
		payload["endDate"] = user.Subscription.EndDate
		payload["formattedEndDate"] = user.Subscription.EndDate.Format(endDateFormat)
	}
	c.JSON(http.StatusOK, payload)
}

// Cancel voids the caller's pending transaction.
func (h *TransactionHandler) Cancel(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	transactionID := strings.TrimSpace(c.Param("id"))
	if transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction id is required"})
		return
	}

	if errCancel := h.negotiator.CancelPending(c.Request.Context(), sess.UserID, transactionID); errCancel != nil {
		if errors.Is(errCancel, checkout.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel transaction failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// List returns the caller's payment history, newest first.
func (h *TransactionHandler) List(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var rows []models.Transaction
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", sess.UserID).
		Order("created_at DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list transactions failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		entry := gin.H{
			"transactionId": row.TransactionID,
			"plan":          row.Plan,
			"billingCycle":  row.BillingCycle,
			"amount":        row.TotalAmount,
			"currency":      row.Currency,
			"status":        row.Status,
			"isUpgrade":     row.IsUpgrade,
			"createdAt":     row.CreatedAt,
		}
		if row.PaymentMethod != "" {
			entry["paymentMethod"] = row.PaymentMethod
		}
		if row.CardLast4 != "" {
			entry["cardLast4"] = row.CardLast4
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}
