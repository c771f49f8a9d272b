package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"car-rental/pkg/apperror"
	"car-rental/pkg/database"
	"car-rental/pkg/utils"
)

func newRunner(timeout time.Duration) *database.Runner {
	return database.NewRunner(utils.DatabaseConfig{QueryTimeout: timeout, RetryAttempts: 1}, zap.NewNop())
}

func TestRunner_RetriesTransientOnceThenUnavailable(t *testing.T) {
	runner := newRunner(time.Second)
	calls := 0

	err := runner.Run(context.Background(), "find booking", func(ctx context.Context) error {
		calls++
		return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	})

	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
	assert.Equal(t, "storage temporarily unavailable, try again later", err.Error())
}

func TestRunner_SucceedsOnRetry(t *testing.T) {
	runner := newRunner(time.Second)
	calls := 0

	err := runner.Run(context.Background(), "find booking", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return context.DeadlineExceeded
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRunner_PermanentErrorNotRetried(t *testing.T) {
	runner := newRunner(time.Second)
	calls := 0
	overlap := apperror.Conflict(apperror.CodeOverlap, "car is already booked for the requested dates")

	err := runner.Run(context.Background(), "create booking", func(ctx context.Context) error {
		calls++
		return overlap
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, overlap, err)
}

func TestRunner_AppliesTimeoutPerAttempt(t *testing.T) {
	runner := newRunner(20 * time.Millisecond)

	start := time.Now()
	err := runner.Run(context.Background(), "slow query", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, database.IsTransient(&pgconn.PgError{Code: "08006"}))
	assert.True(t, database.IsTransient(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, database.IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, database.IsTransient(errors.New("syntax error")))
	assert.False(t, database.IsTransient(nil))
	assert.Equal(t, "23P01", database.PgErrorCode(&pgconn.PgError{Code: "23P01"}))
}
