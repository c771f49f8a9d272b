package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"car-rental/pkg/apperror"
	"car-rental/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const defaultRetryDelay = 50 * time.Millisecond

// Runner executes storage operations under a per-attempt deadline and
// retries transient failures a bounded number of times. A failure that is
// still transient after the last attempt surfaces as StorageUnavailable.
type Runner struct {
	timeout  time.Duration
	attempts uint64
	delay    time.Duration
	log      *zap.Logger
}

func NewRunner(cfg utils.DatabaseConfig, log *zap.Logger) *Runner {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Runner{
		timeout:  timeout,
		attempts: cfg.RetryAttempts,
		delay:    defaultRetryDelay,
		log:      log.With(zap.String("component", "db_runner")),
	}
}

// Run calls fn until it succeeds, fails permanently, or retries run out.
// Errors that are not transient are returned unchanged.
func (r *Runner) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(r.attempts, retry.NewConstant(r.delay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			r.log.Warn("Transient storage error",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}

	if IsTransient(err) {
		r.log.Error("Storage unavailable", zap.String("op", op), zap.Error(err))
		return apperror.StorageUnavailable(fmt.Errorf("%s: %w", op, err))
	}
	return err
}

// IsTransient reports whether err is worth retrying: timeouts, lost
// connections, serialization failures and deadlocks.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
			return true
		case pgErr.Code == "40001", pgErr.Code == "40P01":
			return true
		}
	}
	return false
}

// PgErrorCode returns the SQLSTATE of a Postgres error, or "".
func PgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

const (
	CodeUniqueViolation    = "23505"
	CodeExclusionViolation = "23P01"
	CodeForeignKey         = "23503"
)
