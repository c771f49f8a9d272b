package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-rental/internal/usecase"
	"car-rental/pkg/apperror"
)

func TestComputePrice_ThreeDays(t *testing.T) {
	price, err := usecase.ComputePrice(50, date("2025-10-01"), date("2025-10-04"))

	require.NoError(t, err)
	assert.Equal(t, 150.0, price)
}

func TestComputePrice_PartialDayRoundsUp(t *testing.T) {
	start := date("2025-10-01")
	end := start.Add(26 * time.Hour)

	price, err := usecase.ComputePrice(40, start, end)

	require.NoError(t, err)
	assert.Equal(t, 80.0, price)
}

func TestComputePrice_ShortRangeIsOneDay(t *testing.T) {
	start := date("2025-10-01")

	price, err := usecase.ComputePrice(33.33, start, start.Add(time.Hour))

	require.NoError(t, err)
	assert.Equal(t, 33.33, price)
}

func TestComputePrice_RoundsToCents(t *testing.T) {
	price, err := usecase.ComputePrice(19.999, date("2025-10-01"), date("2025-10-04"))

	require.NoError(t, err)
	assert.Equal(t, 60.0, price)
}

func TestComputePrice_RejectsEmptyOrInvertedRange(t *testing.T) {
	start := date("2025-10-05")

	for _, end := range []time.Time{start, date("2025-10-01")} {
		_, err := usecase.ComputePrice(50, start, end)
		assert.ErrorIs(t, err, usecase.ErrInvalidRange)
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, apperror.CodeInvalidRange, apperror.CodeOf(err))
	}
}

func TestComputePrice_RejectsNonPositiveRate(t *testing.T) {
	for _, rate := range []float64{0, -10} {
		_, err := usecase.ComputePrice(rate, date("2025-10-01"), date("2025-10-02"))
		assert.ErrorIs(t, err, apperror.ErrValidation)
	}
}

func TestComputePrice_MonotonicInDuration(t *testing.T) {
	start := date("2025-10-01")
	prev := 0.0
	for hours := 1; hours <= 24*30; hours += 5 {
		price, err := usecase.ComputePrice(27.5, start, start.Add(time.Duration(hours)*time.Hour))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, price, prev, "hours=%d", hours)
		prev = price
	}
}
