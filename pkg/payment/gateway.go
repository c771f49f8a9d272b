// Package payment charges and refunds card payments.
package payment

import (
	"context"
	"math"
)

// ChargeRequest describes one card charge.
type ChargeRequest struct {
	Amount        float64
	Currency      string
	Description   string
	PaymentMethod string // provider token, e.g. a Stripe PaymentMethod id
	Reference     string // our booking id, stored as provider metadata
}

// Gateway is a card payment provider.
type Gateway interface {
	// Charge captures the amount and returns the provider transaction id.
	Charge(ctx context.Context, req ChargeRequest) (string, error)
	// Refund returns a captured charge in full.
	Refund(ctx context.Context, transactionID string) error
}

// toMinorUnits converts an amount to cents.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
