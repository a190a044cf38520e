package payment

import (
	"context"
	"errors"
	"testing"
)

func TestSimulatedGateway_ChargeSucceeds(t *testing.T) {
	gw := NewSimulatedGateway()
	receipt, err := gw.Charge(context.Background(), ChargeRequest{
		Amount:     352.82,
		Currency:   "INR",
		Method:     "card",
		CardNumber: "4111111111111111",
	})
	if err != nil {
		t.Fatalf("expected charge to succeed, got %v", err)
	}
	if receipt.PaymentID == "" {
		t.Fatal("expected payment id")
	}
	if receipt.ChargedAt.IsZero() {
		t.Fatal("expected charge timestamp")
	}
}

func TestSimulatedGateway_DeclinesTestCard(t *testing.T) {
	gw := NewSimulatedGateway()
	_, err := gw.Charge(context.Background(), ChargeRequest{
		Amount:     706.82,
		Currency:   "INR",
		Method:     "card",
		CardNumber: "4111111111110000",
	})
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected decline, got %v", err)
	}
}

func TestSimulatedGateway_CancelledContext(t *testing.T) {
	gw := NewSimulatedGateway()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gw.Charge(ctx, ChargeRequest{Amount: 100, Method: "upi", UPIID: "user@upi"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestCardBrandAndLast4(t *testing.T) {
	if got := CardBrand("4111111111111111"); got != "visa" {
		t.Fatalf("expected visa, got %q", got)
	}
	if got := CardBrand("5500000000000004"); got != "mastercard" {
		t.Fatalf("expected mastercard, got %q", got)
	}
	if got := CardLast4("4111111111111111"); got != "1111" {
		t.Fatalf("expected 1111, got %q", got)
	}
}
