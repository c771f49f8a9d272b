package apperror_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-rental/pkg/apperror"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperror.Validation(apperror.CodeInverted, "start_date must be before end_date"), http.StatusBadRequest},
		{"unauthorized", apperror.Unauthorized("missing token"), http.StatusUnauthorized},
		{"forbidden", apperror.Forbidden(apperror.CodeNotEligible, "not eligible"), http.StatusForbidden},
		{"not found", apperror.NotFound("booking not found"), http.StatusNotFound},
		{"conflict", apperror.Conflict(apperror.CodeOverlap, "overlap"), http.StatusConflict},
		{"transition", apperror.InvalidTransition("PAID -> PENDING"), http.StatusConflict},
		{"storage", apperror.StorageUnavailable(context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"payment", apperror.PaymentFailed("card declined"), http.StatusPaymentRequired},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("create booking: %w", tc.err)
			assert.Equal(t, tc.want, apperror.HTTPStatus(wrapped))
		})
	}
}

func TestError_MessageAndCause(t *testing.T) {
	err := fmt.Errorf("find car: %w", apperror.StorageUnavailable(context.DeadlineExceeded))

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "storage temporarily unavailable, try again later", appErr.Error())
	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "storage_unavailable", apperror.CodeOf(err))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Empty(t, apperror.CodeOf(errors.New("plain")))
}
