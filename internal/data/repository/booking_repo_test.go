package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-rental/internal/data/entity"
	"car-rental/pkg/apperror"
)

func TestBookingRepository_CreateReservesCar(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo)
	car := seedCar(t, repo, entity.CarStatusReady)

	booking := newBooking(user.ID, car.ID, "2025-10-01", "2025-10-04")
	require.NoError(t, repo.Booking.Create(ctx, booking))

	got, err := repo.Booking.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.PaymentStatusPending, got.PaymentStatus)
	assert.InDelta(t, 150.0, got.TotalPrice, 0.001)
	assert.True(t, got.StartDate.Equal(day("2025-10-01")))
	assert.Equal(t, entity.CarStatusReserved, carStatus(t, repo, car.ID))
}

func TestBookingRepository_OverlapRejected(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo)
	car := seedCar(t, repo, entity.CarStatusReady)

	require.NoError(t, repo.Booking.Create(ctx, newBooking(user.ID, car.ID, "2025-10-01", "2025-10-05")))

	err := repo.Booking.Create(ctx, newBooking(user.ID, car.ID, "2025-10-03", "2025-10-06"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, apperror.CodeOverlap, apperror.CodeOf(err))

	// Back-to-back ranges share no day.
	require.NoError(t, repo.Booking.Create(ctx, newBooking(user.ID, car.ID, "2025-10-05", "2025-10-08")))
}

func TestBookingRepository_CancelledDoesNotBlock(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo)
	car := seedCar(t, repo, entity.CarStatusReady)

	first := newBooking(user.ID, car.ID, "2025-10-01", "2025-10-05")
	require.NoError(t, repo.Booking.Create(ctx, first))
	require.NoError(t, repo.Booking.UpdateStatus(ctx, first.ID, entity.PaymentStatusPending, entity.PaymentStatusCancelled, today))
	assert.Equal(t, entity.CarStatusReady, carStatus(t, repo, car.ID))

	require.NoError(t, repo.Booking.Create(ctx, newBooking(user.ID, car.ID, "2025-10-02", "2025-10-04")))
	assert.Equal(t, entity.CarStatusReserved, carStatus(t, repo, car.ID))
}

func TestBookingRepository_UnavailableCar(t *testing.T) {
	repo := newRepo(t)
	user := seedUser(t, repo)
	car := seedCar(t, repo, entity.CarStatusMaintenance)

	err := repo.Booking.Create(context.Background(), newBooking(user.ID, car.ID, "2025-10-01", "2025-10-02"))

	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, apperror.CodeCarUnavailable, apperror.CodeOf(err))
	assert.Equal(t, entity.CarStatusMaintenance, carStatus(t, repo, car.ID))
}

func TestBookingRepository_ConcurrentCreateExactlyOneWins(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo)
	car := seedCar(t, repo, entity.CarStatusReady)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Booking.Create(ctx, newBooking(user.ID, car.ID, "2025-11-01", "2025-11-05"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperror.CodeOverlap, apperror.CodeOf(err))
	}
	assert.Equal(t, 1, succeeded)

	count, err := repo.Booking.Count(ctx, entity.BookingFilter{CarID: &car.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBookingRepository_UpdateExcludesSelfAndMovesCar(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo)
	carA := seedCar(t, repo, entity.CarStatusReady)
	carB := seedCar(t, repo, entity.CarStatusReady)

	booking := newBooking(user.ID, carA.ID, "2025-10-01", "2025-10-05")
	require.NoError(t, repo.Booking.Create(ctx, booking))
	previous := *booking

	// Extending over its own range is not an overlap.
	extended := *booking
	extended.EndDate = day("2025-10-07")
	require.NoError(t, repo.Booking.Update(ctx, &extended, &previous, today))

	moved := extended
	moved.CarID = carB.ID
	require.NoError(t, repo.Booking.Update(ctx, &moved, &extended, today))

	assert.Equal(t, entity.CarStatusReady, carStatus(t, repo, carA.ID))
	assert.Equal(t, entity.CarStatusReserved, carStatus(t, repo, carB.ID))

	// The old snapshot is now stale.
	err := repo.Booking.Update(ctx, &extended, &previous, today)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestBookingRepository_UpdateStatusCompareAndSet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo)
	car := seedCar(t, repo, entity.CarStatusReady)

	booking := newBooking(user.ID, car.ID, "2025-10-01", "2025-10-05")
	require.NoError(t, repo.Booking.Create(ctx, booking))

	require.NoError(t, repo.Booking.UpdateStatus(ctx, booking.ID, entity.PaymentStatusPending, entity.PaymentStatusPaid, today))
	// Same target again is a no-op.
	require.NoError(t, repo.Booking.UpdateStatus(ctx, booking.ID, entity.PaymentStatusPending, entity.PaymentStatusPaid, today))

	err := repo.Booking.UpdateStatus(ctx, booking.ID, entity.PaymentStatusPending, entity.PaymentStatusCancelled, today)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	err = repo.Booking.UpdateStatus(ctx, uuid.Nil, entity.PaymentStatusPending, entity.PaymentStatusPaid, today)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestBookingRepository_DeleteReleasesCar(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo)
	car := seedCar(t, repo, entity.CarStatusReady)

	booking := newBooking(user.ID, car.ID, "2025-10-01", "2025-10-05")
	require.NoError(t, repo.Booking.Create(ctx, booking))
	require.NoError(t, repo.Booking.Delete(ctx, booking.ID, today))

	got, err := repo.Booking.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, entity.CarStatusReady, carStatus(t, repo, car.ID))

	assert.ErrorIs(t, repo.Booking.Delete(ctx, booking.ID, today), apperror.ErrNotFound)
}

func TestBookingRepository_ListFilters(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	alice := seedUser(t, repo)
	bob := seedUser(t, repo)
	car := seedCar(t, repo, entity.CarStatusReady)
	other := seedCar(t, repo, entity.CarStatusReady)

	require.NoError(t, repo.Booking.Create(ctx, newBooking(alice.ID, car.ID, "2025-10-01", "2025-10-03")))
	require.NoError(t, repo.Booking.Create(ctx, newBooking(alice.ID, other.ID, "2025-10-01", "2025-10-03")))
	require.NoError(t, repo.Booking.Create(ctx, newBooking(bob.ID, car.ID, "2025-10-03", "2025-10-04")))

	all, err := repo.Booking.FindAll(ctx, entity.BookingFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byUser, err := repo.Booking.FindByUserID(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byCar, err := repo.Booking.FindByCarID(ctx, car.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byCar, 2)

	count, err := repo.Booking.Count(ctx, entity.BookingFilter{UserID: &bob.ID, CarID: &car.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBookingRepository_HasStartedBooking(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo)
	car := seedCar(t, repo, entity.CarStatusReady)
	require.NoError(t, repo.Booking.Create(ctx, newBooking(user.ID, car.ID, "2025-10-01", "2025-10-05")))

	started, err := repo.Booking.HasStartedBooking(ctx, user.ID, car.ID, day("2025-09-30"))
	require.NoError(t, err)
	assert.False(t, started)

	started, err = repo.Booking.HasStartedBooking(ctx, user.ID, car.ID, day("2025-10-01"))
	require.NoError(t, err)
	assert.True(t, started)
}

func TestBookingRepository_Maintenance(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo)
	finished := seedCar(t, repo, entity.CarStatusReady)
	unpaid := seedCar(t, repo, entity.CarStatusReady)

	done := newBooking(user.ID, finished.ID, "2025-09-01", "2025-09-05")
	require.NoError(t, repo.Booking.Create(ctx, done))
	require.NoError(t, repo.Booking.UpdateStatus(ctx, done.ID, entity.PaymentStatusPending, entity.PaymentStatusPaid, today))
	pending := newBooking(user.ID, unpaid.ID, "2025-09-18", "2025-09-25")
	require.NoError(t, repo.Booking.Create(ctx, pending))

	released, err := repo.Booking.ReleaseFinished(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)
	assert.Equal(t, entity.CarStatusReady, carStatus(t, repo, finished.ID))
	assert.Equal(t, entity.CarStatusReserved, carStatus(t, repo, unpaid.ID))

	cancelled, err := repo.Booking.CancelUnpaidStarted(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cancelled)

	got, err := repo.Booking.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCancelled, got.PaymentStatus)
	assert.Equal(t, entity.CarStatusReady, carStatus(t, repo, unpaid.ID))
}
