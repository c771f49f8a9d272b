package payment

import (
	"context"
	"errors"
	"fmt"

	"car-rental/pkg/apperror"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"go.uber.org/zap"
)

const defaultTestPaymentMethod = "pm_card_visa"

// StripeGateway charges cards through Stripe PaymentIntents.
type StripeGateway struct {
	api      *client.API
	currency string
	log      *zap.Logger
}

func NewStripeGateway(secretKey, currency string, log *zap.Logger) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{
		api:      api,
		currency: currency,
		log:      log.With(zap.String("gateway", "stripe")),
	}
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	currency := req.Currency
	if currency == "" {
		currency = g.currency
	}
	method := req.PaymentMethod
	if method == "" {
		method = defaultTestPaymentMethod
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(toMinorUnits(req.Amount)),
		Currency:           stripe.String(currency),
		Description:        stripe.String(req.Description),
		PaymentMethod:      stripe.String(method),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.Reference)
	params.SetIdempotencyKey("charge-" + req.Reference)

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			g.log.Warn("Card declined",
				zap.String("booking_id", req.Reference),
				zap.String("decline_code", string(stripeErr.DeclineCode)))
			return "", apperror.PaymentFailed("card was declined: " + stripeErr.Msg).Wrap(err)
		}
		g.log.Error("Stripe charge failed", zap.String("booking_id", req.Reference), zap.Error(err))
		return "", fmt.Errorf("stripe charge: %w", err)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		g.log.Warn("Payment intent not completed",
			zap.String("booking_id", req.Reference),
			zap.String("intent_id", intent.ID),
			zap.String("status", string(intent.Status)))
		return "", apperror.PaymentFailed(fmt.Sprintf("payment was not completed (status %s)", intent.Status))
	}

	return intent.ID, nil
}

func (g *StripeGateway) Refund(ctx context.Context, transactionID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(transactionID),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + transactionID)

	if _, err := g.api.Refunds.New(params); err != nil {
		g.log.Error("Stripe refund failed", zap.String("intent_id", transactionID), zap.Error(err))
		return fmt.Errorf("stripe refund %s: %w", transactionID, err)
	}
	return nil
}
