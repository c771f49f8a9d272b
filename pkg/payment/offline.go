package payment

import (
	"context"

	"car-rental/pkg/utils"

	"go.uber.org/zap"
)

// OfflineGateway approves every charge locally. It backs development and
// test setups where no Stripe key is configured.
type OfflineGateway struct {
	log *zap.Logger
}

func NewOfflineGateway(log *zap.Logger) *OfflineGateway {
	return &OfflineGateway{log: log.With(zap.String("gateway", "offline"))}
}

func (g *OfflineGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	ref := utils.GenerateReference("OFF")
	g.log.Info("Offline charge approved",
		zap.String("booking_id", req.Reference),
		zap.Int64("amount_minor", toMinorUnits(req.Amount)),
		zap.String("transaction_id", ref))
	return ref, nil
}

func (g *OfflineGateway) Refund(ctx context.Context, transactionID string) error {
	g.log.Info("Offline refund", zap.String("transaction_id", transactionID))
	return nil
}

// New picks Stripe when a secret key is configured.
func New(cfg utils.PaymentConfig, log *zap.Logger) Gateway {
	if cfg.StripeSecretKey != "" {
		return NewStripeGateway(cfg.StripeSecretKey, cfg.Currency, log)
	}
	return NewOfflineGateway(log)
}
