// Package notify sends booking and payment messages to customers.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"car-rental/pkg/utils"

	"go.uber.org/zap"
)

// Message is one customer notification. Channels skip a message that lacks
// their address.
type Message struct {
	ToName  string
	ToEmail string
	ToPhone string
	Subject string
	Body    string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi fans a message out to every channel and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier only logs. It is the fallback when no channel is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.log.Info("Notification",
		zap.String("to_email", msg.ToEmail),
		zap.String("subject", msg.Subject))
	return nil
}

// New builds the configured channels, falling back to logging.
func New(cfg utils.NotifyConfig, log *zap.Logger) Notifier {
	var channels Multi
	if cfg.SendGridAPIKey != "" && cfg.SendGridFromEmail != "" {
		channels = append(channels, NewSendGridNotifier(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, log))
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		channels = append(channels, NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, log))
	}
	if len(channels) == 0 {
		return NewLogNotifier(log)
	}
	return channels
}

// Dispatcher delivers notifications in the background. Failures are logged
// and never reach the request that triggered them.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		timeout:  10 * time.Second,
		log:      log.With(zap.String("component", "notify_dispatcher")),
	}
}

func (d *Dispatcher) Send(msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.Notify(ctx, msg); err != nil {
			d.log.Warn("Notification failed",
				zap.String("subject", msg.Subject),
				zap.Error(err))
		}
	}()
}

// Wait blocks until every pending notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
