package job

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BookingSweeper is the slice of the booking repository the jobs drive.
type BookingSweeper interface {
	ReleaseFinished(ctx context.Context, today time.Time) (int64, error)
	CancelUnpaidStarted(ctx context.Context, today time.Time) (int64, error)
}

// SessionCleaner removes sessions past their expiry.
type SessionCleaner interface {
	CleanExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

const (
	ReleaseFinishedSpec  = "@every 1h"
	CancelUnpaidSpec     = "@every 15m"
	CleanSessionsSpec    = "@daily"
	defaultSweepDeadline = 2 * time.Minute
)

// Scheduler runs the housekeeping jobs on a cron.
type Scheduler struct {
	cron     *cron.Cron
	bookings BookingSweeper
	sessions SessionCleaner
	now      func() time.Time
	timeout  time.Duration
	log      *zap.Logger
}

func NewScheduler(bookings BookingSweeper, sessions SessionCleaner, log *zap.Logger) *Scheduler {
	log = log.With(zap.String("component", "scheduler"))
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
		),
		bookings: bookings,
		sessions: sessions,
		now:      time.Now,
		timeout:  defaultSweepDeadline,
		log:      log,
	}
}

// Start registers every job and starts the cron in its own goroutine.
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		fn   func()
	}{
		{ReleaseFinishedSpec, s.wrap("release finished reservations", s.ReleaseFinished)},
		{CancelUnpaidSpec, s.wrap("cancel unpaid bookings", s.CancelUnpaid)},
		{CleanSessionsSpec, s.wrap("clean expired sessions", s.CleanSessions)},
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			return err
		}
	}

	s.log.Info("Starting background scheduler", zap.Int("jobs", len(jobs)))
	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.log.Info("Stopping background scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) wrap(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		started := time.Now()
		if err := fn(ctx); err != nil {
			s.log.Error("Job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Debug("Job finished", zap.String("job", name), zap.Duration("took", time.Since(started)))
	}
}

// ReleaseFinished puts cars whose rentals are over back to READY.
func (s *Scheduler) ReleaseFinished(ctx context.Context) error {
	released, err := s.bookings.ReleaseFinished(ctx, today(s.now()))
	if err != nil {
		return err
	}
	if released > 0 {
		s.log.Info("Released cars after finished rentals", zap.Int64("cars", released))
	}
	return nil
}

// CancelUnpaid cancels PENDING bookings whose start date arrived unpaid.
func (s *Scheduler) CancelUnpaid(ctx context.Context) error {
	cancelled, err := s.bookings.CancelUnpaidStarted(ctx, today(s.now()))
	if err != nil {
		return err
	}
	if cancelled > 0 {
		s.log.Info("Cancelled unpaid bookings", zap.Int64("bookings", cancelled))
	}
	return nil
}

func (s *Scheduler) CleanSessions(ctx context.Context) error {
	deleted, err := s.sessions.CleanExpiredSessions(ctx, s.now())
	if err != nil {
		return err
	}
	s.log.Info("Expired sessions cleaned", zap.Int64("sessions", deleted))
	return nil
}

func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
