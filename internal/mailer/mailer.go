// Package mailer sends subscription emails over SMTP. It degrades to a
// no-op when SMTP is not configured so local setups run without mail.
package mailer

import (
	"fmt"
	"time"

	"github.com/shariastocks-in/backend/internal/config"
	"github.com/shariastocks-in/backend/internal/models"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Sender delivers a composed message.
type Sender interface {
	DialAndSend(msgs ...*gomail.Message) error
}

// Mailer composes and sends subscription emails.
type Mailer struct {
	cfg    config.SMTPConfig
	sender Sender
}

// New constructs a Mailer. A nil sender uses a dialer from the config.
func New(cfg config.SMTPConfig, sender Sender) *Mailer {
	if sender == nil && cfg.Enabled() {
		sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return &Mailer{cfg: cfg, sender: sender}
}

// Enabled reports whether mail delivery is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.sender != nil && m.cfg.Enabled()
}

// SendPaymentConfirmation emails a receipt for a completed purchase.
func (m *Mailer) SendPaymentConfirmation(to string, plan models.PlanID, cycle models.BillingCycle, amount float64, endDate time.Time) {
	subject := "Your subscription is active"
	body := fmt.Sprintf(
		"Thanks for subscribing.\n\nPlan: %s\nBilling: %s\nAmount paid: ₹%.2f\nActive until: %s\n",
		plan, cycle, amount, endDate.Format("January 2, 2006"),
	)
	m.send(to, subject, body)
}

// SendRenewalReminder emails an upcoming-renewal notice.
func (m *Mailer) SendRenewalReminder(to string, plan models.PlanID, daysLeft int, endDate time.Time) {
	subject := fmt.Sprintf("Your %s plan renews in %d day(s)", plan, daysLeft)
	body := fmt.Sprintf(
		"Your %s subscription renews on %s. No action is needed if you want to keep it.\n",
		plan, endDate.Format("January 2, 2006"),
	)
	m.send(to, subject, body)
}

// send delivers one message, logging failures instead of propagating them.
// Mail is best-effort; checkout must not fail on SMTP trouble.
func (m *Mailer) send(to, subject, body string) {
	if !m.Enabled() || to == "" {
		return
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if errSend := m.sender.DialAndSend(msg); errSend != nil {
		log.WithError(errSend).Warnf("mailer: send to %s failed", to)
	}
}
