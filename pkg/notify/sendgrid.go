package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *zap.Logger
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string, log *zap.Logger) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
		log:    log.With(zap.String("notifier", "sendgrid")),
	}
}

func (n *SendGridNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return nil
	}

	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(n.from, msg.Subject, to, msg.Body, "")

	response, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", msg.ToEmail, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	n.log.Debug("Email sent", zap.String("to", msg.ToEmail), zap.Int("status", response.StatusCode))
	return nil
}
