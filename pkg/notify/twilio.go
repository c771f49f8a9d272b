package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
	log    *zap.Logger
}

func NewTwilioNotifier(accountSID, authToken, fromNumber string, log *zap.Logger) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioNotifier{
		client: client,
		from:   fromNumber,
		log:    log.With(zap.String("notifier", "twilio")),
	}
}

// Notify sends the subject line as an SMS. The Twilio client takes no
// context, so ctx only guards the start of the call.
func (n *TwilioNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.ToPhone == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(msg.ToPhone)
	params.SetFrom(n.from)
	params.SetBody(msg.Subject)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", msg.ToPhone, err)
	}
	if resp != nil && resp.Sid != nil {
		n.log.Debug("SMS sent", zap.String("sid", *resp.Sid))
	}
	return nil
}
