// Package payment charges negotiated transactions against a gateway.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDeclined indicates the gateway refused the charge.
var ErrDeclined = errors.New("payment declined by issuing bank")

// ChargeRequest describes one charge attempt.
type ChargeRequest struct {
	Amount    float64
	Currency  string
	Method    string
	Reference string

	CardNumber string
	CardName   string
	ExpiryDate string
	CVV        string

	UPIID string
}

// Receipt is the gateway's record of a successful charge.
type Receipt struct {
	PaymentID string
	ChargedAt time.Time
}

// Gateway processes charges for checkout transactions.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
}

// defaultChargeTimeout bounds in-flight gateway work per attempt.
const defaultChargeTimeout = 10 * time.Second

// SimulatedGateway approves charges locally without an external processor.
// Card numbers ending in 0000 are declined so failure paths stay testable.
type SimulatedGateway struct {
	timeout time.Duration
	nowFn   func() time.Time
}

// NewSimulatedGateway constructs a SimulatedGateway.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{
		timeout: defaultChargeTimeout,
		nowFn:   time.Now,
	}
}

// Charge approves or declines the simulated charge.
func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if errCtx := ctx.Err(); errCtx != nil {
		return Receipt{}, fmt.Errorf("payment: charge aborted: %w", errCtx)
	}

	if req.Amount <= 0 {
		return Receipt{}, errors.New("payment: non-positive amount")
	}
	if req.Method == "card" && strings.HasSuffix(strings.TrimSpace(req.CardNumber), "0000") {
		return Receipt{}, ErrDeclined
	}

	return Receipt{
		PaymentID: "pay_" + uuid.NewString(),
		ChargedAt: g.nowFn().UTC(),
	}, nil
}

// CardBrand guesses the card network from the leading digit.
func CardBrand(cardNumber string) string {
	trimmed := strings.TrimSpace(cardNumber)
	if trimmed == "" {
		return ""
	}
	switch trimmed[0] {
	case '4':
		return "visa"
	case '5':
		return "mastercard"
	case '6':
		return "rupay"
	default:
		return "card"
	}
}

// CardLast4 returns the final four digits of a card number.
func CardLast4(cardNumber string) string {
	trimmed := strings.TrimSpace(cardNumber)
	if len(trimmed) < 4 {
		return trimmed
	}
	return trimmed[len(trimmed)-4:]
}
