// Package expiry sweeps subscriptions past their period end and queues
// renewal reminders ahead of it.
package expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/shariastocks-in/backend/internal/mailer"
	"github.com/shariastocks-in/backend/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// defaultInterval is how often the sweeper runs.
const defaultInterval = time.Hour

// reminderStage maps a days-before-renewal threshold to its sent flag column.
type reminderStage struct {
	daysLeft int    // Days before period end.
	column   string // Sent-flag column guarding the stage.
}

// reminderStages lists reminder thresholds from earliest to latest.
func reminderStages() []reminderStage {
	return []reminderStage{
		{daysLeft: 7, column: "subscription_first_reminder_sent"},
		{daysLeft: 3, column: "subscription_second_reminder_sent"},
		{daysLeft: 1, column: "subscription_final_reminder_sent"},
	}
}

// Poller periodically expires lapsed subscriptions and sends reminders.
type Poller struct {
	db       *gorm.DB
	mail     *mailer.Mailer
	interval time.Duration
	nowFn    func() time.Time
}

// NewPoller constructs a Poller.
func NewPoller(db *gorm.DB, mail *mailer.Mailer) *Poller {
	if db == nil {
		return nil
	}
	return &Poller{
		db:       db,
		mail:     mail,
		interval: defaultInterval,
		nowFn:    time.Now,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (p *Poller) Start(ctx context.Context) {
	if p == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			if errSweep := p.Sweep(ctx); errSweep != nil {
				log.WithError(errSweep).Warn("expiry: sweep failed")
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Sweep runs one expiry and reminder pass.
func (p *Poller) Sweep(ctx context.Context) error {
	if errExpire := p.expireLapsed(ctx); errExpire != nil {
		return errExpire
	}
	return p.sendReminders(ctx)
}

// expireLapsed downgrades subscriptions whose period has ended.
func (p *Poller) expireLapsed(ctx context.Context) error {
	now := p.nowFn().UTC()

	var lapsed []models.User
	if errFind := p.db.WithContext(ctx).
		Where("subscription_status IN ? AND subscription_end_date IS NOT NULL AND subscription_end_date <= ?",
			[]models.SubscriptionStatus{models.SubscriptionStatusActive, models.SubscriptionStatusCancelling}, now).
		Find(&lapsed).Error; errFind != nil {
		return fmt.Errorf("expiry: query lapsed: %w", errFind)
	}

	for _, user := range lapsed {
		errTx := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if errSave := tx.Model(&models.User{}).
				Where("id = ? AND subscription_status IN ?", user.ID,
					[]models.SubscriptionStatus{models.SubscriptionStatusActive, models.SubscriptionStatusCancelling}).
				Updates(map[string]any{
					"subscription_plan":          models.PlanFree,
					"subscription_billing_cycle": "",
					"subscription_status":        models.SubscriptionStatusExpired,
					"subscription_auto_renew":    false,
					"updated_at":                 now,
				}).Error; errSave != nil {
				return fmt.Errorf("expiry: downgrade user %d: %w", user.ID, errSave)
			}

			change := models.SubscriptionChangeLog{
				UserID:    user.ID,
				FromPlan:  user.Subscription.Plan,
				ToPlan:    models.PlanFree,
				FromCycle: user.Subscription.BillingCycle,
				Reason:    models.ChangeReasonExpiry,
				CreatedAt: now,
			}
			if errCreate := tx.Create(&change).Error; errCreate != nil {
				return fmt.Errorf("expiry: change log user %d: %w", user.ID, errCreate)
			}

			note := models.Notification{
				UserID:  user.ID,
				Type:    models.NotificationTypeSubscription,
				Title:   "Subscription expired",
				Message: fmt.Sprintf("Your %s plan has expired. You are now on the free plan.", user.Subscription.Plan),
			}
			return tx.Create(&note).Error
		})
		if errTx != nil {
			log.WithError(errTx).Warnf("expiry: user %d", user.ID)
			continue
		}
		log.Infof("expiry: downgraded user %d from %s", user.ID, user.Subscription.Plan)
	}
	return nil
}

// sendReminders queues renewal reminders at each unsent stage.
func (p *Poller) sendReminders(ctx context.Context) error {
	now := p.nowFn().UTC()

	for _, stage := range reminderStages() {
		cutoff := now.AddDate(0, 0, stage.daysLeft)

		var due []models.User
		if errFind := p.db.WithContext(ctx).
			Where("subscription_status = ? AND subscription_auto_renew = ?", models.SubscriptionStatusActive, true).
			Where("subscription_end_date IS NOT NULL AND subscription_end_date > ? AND subscription_end_date <= ?", now, cutoff).
			Where(stage.column+" = ?", false).
			Find(&due).Error; errFind != nil {
			return fmt.Errorf("expiry: query reminders at %d days: %w", stage.daysLeft, errFind)
		}

		for _, user := range due {
			note := models.Notification{
				UserID: user.ID,
				Type:   models.NotificationTypeRenewal,
				Title:  fmt.Sprintf("Renewal in %d day(s)", stage.daysLeft),
				Message: fmt.Sprintf("Your %s plan renews on %s.",
					user.Subscription.Plan, user.Subscription.EndDate.Format("Jan 2, 2006")),
			}
			errTx := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				if errCreate := tx.Create(&note).Error; errCreate != nil {
					return errCreate
				}
				return tx.Model(&models.User{}).
					Where("id = ?", user.ID).
					Update(stage.column, true).Error
			})
			if errTx != nil {
				log.WithError(errTx).Warnf("expiry: reminder for user %d", user.ID)
				continue
			}
			p.mail.SendRenewalReminder(user.Email, user.Subscription.Plan, stage.daysLeft, *user.Subscription.EndDate)
		}
	}
	return nil
}
