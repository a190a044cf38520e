// Package checkout owns the pre-payment negotiation and subscription
// activation for plan purchases.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shariastocks-in/backend/internal/billing"
	internaldb "github.com/shariastocks-in/backend/internal/db"
	"github.com/shariastocks-in/backend/internal/models"
	"github.com/shariastocks-in/backend/internal/payment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Negotiation and activation errors surfaced to handlers.
var (
	// ErrPlanNotFound indicates the requested plan is unknown or disabled.
	ErrPlanNotFound = errors.New("checkout: plan not found")
	// ErrTransactionNotFound indicates no matching transaction for the caller.
	ErrTransactionNotFound = errors.New("checkout: transaction not found")
	// ErrNotPending indicates the transaction already left the pending state.
	ErrNotPending = errors.New("checkout: transaction is not pending")
	// ErrNoActiveSubscription indicates there is nothing to cancel.
	ErrNoActiveSubscription = errors.New("checkout: no active subscription")
)

// DecisionKind discriminates negotiation outcomes.
type DecisionKind int

// DecisionKind constants enumerate negotiation outcomes.
const (
	// DecisionProceed means a pending transaction is ready for payment.
	DecisionProceed DecisionKind = iota + 1
	// DecisionAlreadySubscribed means the exact plan and cycle is already active.
	DecisionAlreadySubscribed
	// DecisionUpgradeRequired means a different subscription is active and the
	// caller has not confirmed replacing it.
	DecisionUpgradeRequired
)

// Decision is the outcome of one negotiation attempt. Exactly one variant
// applies: Transaction is set for DecisionProceed, Current for the others.
type Decision struct {
	Kind        DecisionKind
	Transaction *models.Transaction
	Current     models.Subscription
}

// Negotiator runs the checkout decision sequence against the database.
type Negotiator struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// NewNegotiator constructs a Negotiator.
func NewNegotiator(db *gorm.DB) *Negotiator {
	return &Negotiator{db: db, nowFn: time.Now}
}

// lockForUpdate adds a row lock where the dialect supports one. SQLite has no
// row locks; its writes serialize on the database lock instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if internaldb.IsSQLite(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Negotiate resolves whether a purchase may proceed and, when it may, returns
// a pending transaction. The subscription check, pending-transaction check,
// and creation all run inside one database transaction so concurrent attempts
// for the same user cannot interleave.
func (n *Negotiator) Negotiate(ctx context.Context, userID uint64, plan models.PlanID, cycle models.BillingCycle, confirmUpgrade bool) (Decision, error) {
	var decision Decision
	errTx := n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := n.nowFn().UTC()

		var user models.User
		if errFind := lockForUpdate(tx).First(&user, userID).Error; errFind != nil {
			return fmt.Errorf("checkout: load user: %w", errFind)
		}

		active := user.Subscription.ActiveAt(now)
		if active {
			if user.Subscription.Plan == plan && user.Subscription.BillingCycle == cycle {
				decision = Decision{Kind: DecisionAlreadySubscribed, Current: user.Subscription}
				return nil
			}
			if !confirmUpgrade {
				decision = Decision{Kind: DecisionUpgradeRequired, Current: user.Subscription}
				return nil
			}
		}

		var planRow models.Plan
		if errFind := tx.Where("plan_id = ? AND is_enabled = ?", plan, true).
			First(&planRow).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return fmt.Errorf("checkout: load plan: %w", errFind)
		}

		var pending models.Transaction
		errPending := lockForUpdate(tx).
			Where("user_id = ? AND status = ? AND plan = ? AND billing_cycle = ?",
				userID, models.TransactionStatusPending, plan, cycle).
			Order("created_at DESC").
			First(&pending).Error
		if errPending == nil {
			decision = Decision{Kind: DecisionProceed, Transaction: &pending}
			return nil
		}
		if !errors.Is(errPending, gorm.ErrRecordNotFound) {
			return fmt.Errorf("checkout: load pending transaction: %w", errPending)
		}

		quote := billing.QuoteFor(&planRow, cycle)
		txn := models.Transaction{
			TransactionID: "txn_" + uuid.NewString(),
			UserID:        userID,
			Plan:          plan,
			BillingCycle:  cycle,
			BaseAmount:    quote.BasePrice,
			TaxAmount:     quote.TaxAmount,
			TotalAmount:   quote.TotalAmount,
			Currency:      "INR",
			Status:        models.TransactionStatusPending,
			IsUpgrade:     active,
			Description:   fmt.Sprintf("%s plan, %s billing", planRow.Name, cycle),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if active {
			txn.PreviousPlan = user.Subscription.Plan
		}
		if errCreate := tx.Create(&txn).Error; errCreate != nil {
			return fmt.Errorf("checkout: create transaction: %w", errCreate)
		}
		decision = Decision{Kind: DecisionProceed, Transaction: &txn}
		return nil
	})
	if errTx != nil {
		return Decision{}, errTx
	}
	return decision, nil
}

// Pending returns the caller's most recent pending transaction.
func (n *Negotiator) Pending(ctx context.Context, userID uint64) (*models.Transaction, error) {
	var txn models.Transaction
	errFind := n.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.TransactionStatusPending).
		Order("created_at DESC").
		First(&txn).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("checkout: load pending transaction: %w", errFind)
	}
	return &txn, nil
}

// Instrument carries the masked payment details recorded on completion.
type Instrument struct {
	Method    string
	CardBrand string
	CardLast4 string
	UPIID     string
}

// Complete converts a paid pending transaction into an active subscription.
// Upgrades carry the remaining time from the previous period into the new one.
func (n *Negotiator) Complete(ctx context.Context, userID uint64, transactionID string, receipt payment.Receipt, instrument Instrument) (*models.User, *models.Transaction, error) {
	var (
		user models.User
		txn  models.Transaction
	)
	errTx := n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := n.nowFn().UTC()

		if errFind := lockForUpdate(tx).
			Where("transaction_id = ? AND user_id = ?", transactionID, userID).
			First(&txn).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return fmt.Errorf("checkout: load transaction: %w", errFind)
		}
		if txn.Status != models.TransactionStatusPending {
			return ErrNotPending
		}

		if errFind := lockForUpdate(tx).First(&user, userID).Error; errFind != nil {
			return fmt.Errorf("checkout: load user: %w", errFind)
		}

		start := now
		var end time.Time
		if txn.BillingCycle == models.BillingCycleAnnual {
			end = start.AddDate(1, 0, 0)
		} else {
			end = start.AddDate(0, 1, 0)
		}
		if txn.IsUpgrade && user.Subscription.EndDate != nil && user.Subscription.EndDate.After(now) {
			end = end.Add(user.Subscription.EndDate.Sub(now))
		}

		previous := user.Subscription
		chargedAt := receipt.ChargedAt
		user.Subscription = models.Subscription{
			Plan:          txn.Plan,
			BillingCycle:  txn.BillingCycle,
			Status:        models.SubscriptionStatusActive,
			StartDate:     &start,
			EndDate:       &end,
			AutoRenew:     true,
			LastPaymentID: receipt.PaymentID,
			LastPaymentAt: &chargedAt,
		}
		if errSave := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"subscription_plan":                  user.Subscription.Plan,
				"subscription_billing_cycle":         user.Subscription.BillingCycle,
				"subscription_status":                user.Subscription.Status,
				"subscription_start_date":            start,
				"subscription_end_date":              end,
				"subscription_auto_renew":            true,
				"subscription_first_reminder_sent":   false,
				"subscription_second_reminder_sent":  false,
				"subscription_final_reminder_sent":   false,
				"subscription_cancellation_reason":   "",
				"subscription_cancellation_feedback": "",
				"subscription_cancelled_at":          nil,
				"subscription_last_payment_id":       receipt.PaymentID,
				"subscription_last_payment_at":       chargedAt,
				"updated_at":                         now,
			}).Error; errSave != nil {
			return fmt.Errorf("checkout: update subscription: %w", errSave)
		}

		txn.Status = models.TransactionStatusCompleted
		txn.PaymentID = receipt.PaymentID
		txn.PaymentMethod = instrument.Method
		txn.CardBrand = instrument.CardBrand
		txn.CardLast4 = instrument.CardLast4
		txn.UPIID = instrument.UPIID
		txn.UpdatedAt = now
		if errSave := tx.Model(&models.Transaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]any{
				"status":         txn.Status,
				"payment_id":     txn.PaymentID,
				"payment_method": txn.PaymentMethod,
				"card_brand":     txn.CardBrand,
				"card_last4":     txn.CardLast4,
				"upi_id":         txn.UPIID,
				"updated_at":     now,
			}).Error; errSave != nil {
			return fmt.Errorf("checkout: update transaction: %w", errSave)
		}

		reason := models.ChangeReasonPayment
		if txn.IsUpgrade {
			reason = models.ChangeReasonUpgrade
		}
		change := models.SubscriptionChangeLog{
			UserID:        userID,
			FromPlan:      previous.Plan,
			ToPlan:        txn.Plan,
			FromCycle:     previous.BillingCycle,
			ToCycle:       txn.BillingCycle,
			Reason:        reason,
			TransactionID: txn.TransactionID,
			CreatedAt:     now,
		}
		if errCreate := tx.Create(&change).Error; errCreate != nil {
			return fmt.Errorf("checkout: create change log: %w", errCreate)
		}

		note := models.Notification{
			UserID:  userID,
			Type:    models.NotificationTypePayment,
			Title:   "Payment successful",
			Message: fmt.Sprintf("Your %s plan is active until %s.", txn.Plan, end.Format("Jan 2, 2006")),
		}
		if errCreate := tx.Create(&note).Error; errCreate != nil {
			return fmt.Errorf("checkout: create notification: %w", errCreate)
		}

		return nil
	})
	if errTx != nil {
		return nil, nil, errTx
	}
	return &user, &txn, nil
}

// CancelPending voids the caller's pending transaction.
func (n *Negotiator) CancelPending(ctx context.Context, userID uint64, transactionID string) error {
	res := n.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("transaction_id = ? AND user_id = ? AND status = ?",
			transactionID, userID, models.TransactionStatusPending).
		Updates(map[string]any{
			"status":     models.TransactionStatusCancelled,
			"updated_at": n.nowFn().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("checkout: cancel transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// CancelSubscription turns off auto-renew and marks the subscription as
// cancelling until the paid period runs out.
func (n *Negotiator) CancelSubscription(ctx context.Context, userID uint64, reason, feedback string) (*models.User, error) {
	var user models.User
	errTx := n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := n.nowFn().UTC()

		if errFind := lockForUpdate(tx).First(&user, userID).Error; errFind != nil {
			return fmt.Errorf("checkout: load user: %w", errFind)
		}
		if !user.Subscription.ActiveAt(now) || user.Subscription.Status == models.SubscriptionStatusCancelling {
			return ErrNoActiveSubscription
		}

		if errSave := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"subscription_status":                models.SubscriptionStatusCancelling,
				"subscription_auto_renew":            false,
				"subscription_cancellation_reason":   reason,
				"subscription_cancellation_feedback": feedback,
				"subscription_cancelled_at":          now,
				"updated_at":                         now,
			}).Error; errSave != nil {
			return fmt.Errorf("checkout: cancel subscription: %w", errSave)
		}

		change := models.SubscriptionChangeLog{
			UserID:    userID,
			FromPlan:  user.Subscription.Plan,
			ToPlan:    user.Subscription.Plan,
			FromCycle: user.Subscription.BillingCycle,
			ToCycle:   user.Subscription.BillingCycle,
			Reason:    models.ChangeReasonCancel,
			CreatedAt: now,
		}
		if errCreate := tx.Create(&change).Error; errCreate != nil {
			return fmt.Errorf("checkout: create change log: %w", errCreate)
		}

		user.Subscription.Status = models.SubscriptionStatusCancelling
		user.Subscription.AutoRenew = false
		user.Subscription.CancellationReason = reason
		user.Subscription.CancellationFeedback = feedback
		user.Subscription.CancelledAt = &now
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &user, nil
}
