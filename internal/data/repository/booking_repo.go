package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"car-rental/internal/data/entity"
	"car-rental/pkg/apperror"
	"car-rental/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingRepository owns bookings and the car status side effects of
// creating, moving, cancelling and deleting them. Every mutation runs in one
// transaction that holds the row lock of each car it touches.
type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindAll(ctx context.Context, filter entity.BookingFilter, limit, offset int) ([]*entity.Booking, error)
	Count(ctx context.Context, filter entity.BookingFilter) (int64, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	FindByCarID(ctx context.Context, carID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	Update(ctx context.Context, booking, previous *entity.Booking, today time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.PaymentStatus, today time.Time) error
	Delete(ctx context.Context, id uuid.UUID, today time.Time) error

	HasStartedBooking(ctx context.Context, userID, carID uuid.UUID, asOf time.Time) (bool, error)
	ReleaseFinished(ctx context.Context, today time.Time) (int64, error)
	CancelUnpaidStarted(ctx context.Context, today time.Time) (int64, error)
}

type bookingRepository struct {
	db  database.PgxIface
	run *database.Runner
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, run *database.Runner, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		run: run,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, user_id, car_id, start_date, end_date, total_price, payment_status, created_at, updated_at`

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.CarID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.TotalPrice,
		&booking.PaymentStatus,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func overlapError() *apperror.Error {
	return apperror.Conflict(apperror.CodeOverlap, "car is already booked for the requested dates")
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error) error {
	switch database.PgErrorCode(err) {
	case database.CodeExclusionViolation:
		return overlapError().Wrap(err)
	case database.CodeForeignKey:
		return apperror.NotFound("user or car not found").Wrap(err)
	}
	return err
}

func (r *bookingRepository) logFailure(msg string, err error, fields ...zap.Field) {
	if _, ok := apperror.As(err); ok {
		return
	}
	r.log.Error(msg, append(fields, zap.Error(err))...)
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	err := r.run.Run(ctx, "create booking", func(ctx context.Context) error {
		return database.InTx(ctx, r.db, func(tx pgx.Tx) error {
			car, err := lockCar(ctx, tx, booking.CarID)
			if err != nil {
				return err
			}
			if !car.Status.Bookable() {
				return apperror.Validation(apperror.CodeCarUnavailable,
					fmt.Sprintf("car is not available for booking (status %s)", car.Status))
			}

			if err := checkOverlap(ctx, tx, booking, uuid.Nil); err != nil {
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO bookings (id, user_id, car_id, start_date, end_date, total_price,
				                      payment_status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				booking.ID,
				booking.UserID,
				booking.CarID,
				booking.StartDate,
				booking.EndDate,
				booking.TotalPrice,
				booking.PaymentStatus,
				booking.CreatedAt,
				booking.UpdatedAt,
			)
			if err != nil {
				return mapWriteError(err)
			}

			return reserveCar(ctx, tx, booking.CarID)
		})
	})
	if err != nil {
		r.logFailure("Failed to create booking", err,
			zap.String("booking_id", booking.ID.String()),
			zap.String("car_id", booking.CarID.String()),
		)
		return fmt.Errorf("create booking: %w", mapWriteError(err))
	}

	return nil
}

// checkOverlap fails when another car-holding booking intersects
// [start, end) on the same car. The caller holds the car row lock.
func checkOverlap(ctx context.Context, tx pgx.Tx, booking *entity.Booking, exclude uuid.UUID) error {
	var conflict bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE car_id = $1
			  AND id <> $2
			  AND payment_status <> 'CANCELLED'
			  AND start_date < $4
			  AND $3 < end_date
		)`, booking.CarID, exclude, booking.StartDate, booking.EndDate).Scan(&conflict)
	if err != nil {
		return err
	}
	if conflict {
		return overlapError()
	}
	return nil
}

func reserveCar(ctx context.Context, tx pgx.Tx, carID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE cars SET status = 'RESERVED', updated_at = NOW() WHERE id = $1 AND status = 'READY'`, carID)
	return err
}

// releaseCar returns a RESERVED car to READY once no car-holding booking
// ends after today. Other statuses belong to the maintenance workflow.
func releaseCar(ctx context.Context, tx pgx.Tx, carID uuid.UUID, today time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE cars SET status = 'READY', updated_at = NOW()
		WHERE id = $1
		  AND status = 'RESERVED'
		  AND NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE car_id = $1 AND payment_status <> 'CANCELLED' AND end_date > $2
		  )`, carID, today)
	return err
}

// lockCarsInOrder locks distinct cars in id order so concurrent movers
// cannot deadlock.
func lockCarsInOrder(ctx context.Context, tx pgx.Tx, ids ...uuid.UUID) (map[uuid.UUID]*entity.Car, error) {
	unique := sortedUnique(ids)
	cars := make(map[uuid.UUID]*entity.Car, len(unique))
	for _, id := range unique {
		car, err := lockCar(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		cars[id] = car
	}
	return cars, nil
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].String() < unique[j].String() })
	return unique
}

// lockBooking takes the booking row lock and returns the stored row.
func lockBooking(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*entity.Booking, error) {
	booking, err := scanBooking(tx.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("booking not found")
	}
	return booking, err
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var booking *entity.Booking
	err := r.run.Run(ctx, "find booking", func(ctx context.Context) error {
		var err error
		booking, err = scanBooking(r.db.QueryRow(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logFailure("Failed to find booking by ID", err, zap.String("booking_id", id.String()))
		return nil, fmt.Errorf("find booking %s: %w", id, err)
	}

	return booking, nil
}

func buildBookingFilter(filter entity.BookingFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.CarID != nil {
		args = append(args, *filter.CarID)
		clauses = append(clauses, fmt.Sprintf("car_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("payment_status = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *bookingRepository) FindAll(ctx context.Context, filter entity.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	where, args := buildBookingFilter(filter)
	query := `SELECT ` + bookingColumns + ` FROM bookings` + where +
		fmt.Sprintf(" ORDER BY start_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var bookings []*entity.Booking
	err := r.run.Run(ctx, "find bookings", func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		bookings = bookings[:0]
		for rows.Next() {
			booking, err := scanBooking(rows)
			if err != nil {
				return err
			}
			bookings = append(bookings, booking)
		}
		return rows.Err()
	})
	if err != nil {
		r.logFailure("Failed to find bookings", err,
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) Count(ctx context.Context, filter entity.BookingFilter) (int64, error) {
	where, args := buildBookingFilter(filter)

	var count int64
	err := r.run.Run(ctx, "count bookings", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&count)
	})
	if err != nil {
		r.logFailure("Failed to count bookings", err)
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return count, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return r.FindAll(ctx, entity.BookingFilter{UserID: &userID}, limit, offset)
}

func (r *bookingRepository) FindByCarID(ctx context.Context, carID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return r.FindAll(ctx, entity.BookingFilter{CarID: &carID}, limit, offset)
}

// Update writes booking over previous. It fails with a conflict when the
// stored row no longer matches previous.
func (r *bookingRepository) Update(ctx context.Context, booking, previous *entity.Booking, today time.Time) error {
	err := r.run.Run(ctx, "update booking", func(ctx context.Context) error {
		return database.InTx(ctx, r.db, func(tx pgx.Tx) error {
			current, err := lockBooking(ctx, tx, booking.ID)
			if err != nil {
				return err
			}
			if current.PaymentStatus != previous.PaymentStatus || current.CarID != previous.CarID ||
				!current.StartDate.Equal(previous.StartDate) || !current.EndDate.Equal(previous.EndDate) {
				return apperror.Conflict(apperror.CodeStale, "booking was modified by another request, reload and retry")
			}
			if err := checkUnpaid(ctx, tx, current); err != nil {
				return err
			}

			cars, err := lockCarsInOrder(ctx, tx, current.CarID, booking.CarID)
			if err != nil {
				return err
			}

			if booking.PaymentStatus.HoldsCar() {
				if booking.CarID != current.CarID && !cars[booking.CarID].Status.Bookable() {
					return apperror.Validation(apperror.CodeCarUnavailable,
						fmt.Sprintf("car is not available for booking (status %s)", cars[booking.CarID].Status))
				}
				if err := checkOverlap(ctx, tx, booking, booking.ID); err != nil {
					return err
				}
			}

			_, err = tx.Exec(ctx, `
				UPDATE bookings
				SET car_id = $2, start_date = $3, end_date = $4, total_price = $5,
				    payment_status = $6, updated_at = $7
				WHERE id = $1`,
				booking.ID,
				booking.CarID,
				booking.StartDate,
				booking.EndDate,
				booking.TotalPrice,
				booking.PaymentStatus,
				booking.UpdatedAt,
			)
			if err != nil {
				return mapWriteError(err)
			}

			if booking.PaymentStatus.HoldsCar() {
				if err := reserveCar(ctx, tx, booking.CarID); err != nil {
					return err
				}
			}
			if err := releaseCar(ctx, tx, booking.CarID, today); err != nil {
				return err
			}
			if current.CarID != booking.CarID {
				return releaseCar(ctx, tx, current.CarID, today)
			}
			return nil
		})
	})
	if err != nil {
		r.logFailure("Failed to update booking", err, zap.String("booking_id", booking.ID.String()))
		return fmt.Errorf("update booking %s: %w", booking.ID, mapWriteError(err))
	}

	return nil
}

// checkUnpaid refuses to rewrite dates, car or total once money is involved.
// Payment writes lock the same booking row, so the check holds until commit.
func checkUnpaid(ctx context.Context, tx pgx.Tx, current *entity.Booking) error {
	if current.PaymentStatus != entity.PaymentStatusPending {
		return apperror.InvalidTransition(
			fmt.Sprintf("booking is %s, only PENDING bookings can change dates or car", current.PaymentStatus))
	}
	var paid bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE booking_id = $1)`, current.ID).Scan(&paid); err != nil {
		return err
	}
	if paid {
		return apperror.InvalidTransition("a payment is already recorded, the booking can no longer change dates or car")
	}
	return nil
}

// UpdateStatus moves a booking from one status to another. A booking already
// in the target status is left untouched.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.PaymentStatus, today time.Time) error {
	err := r.run.Run(ctx, "update booking status", func(ctx context.Context) error {
		return database.InTx(ctx, r.db, func(tx pgx.Tx) error {
			current, err := lockBooking(ctx, tx, id)
			if err != nil {
				return err
			}
			if current.PaymentStatus == to {
				return nil
			}
			if current.PaymentStatus != from {
				return apperror.InvalidTransition(
					fmt.Sprintf("booking is %s, cannot change it to %s", current.PaymentStatus, to))
			}

			if _, err := tx.Exec(ctx,
				`UPDATE bookings SET payment_status = $2, updated_at = NOW() WHERE id = $1`, id, to); err != nil {
				return err
			}

			if !to.HoldsCar() {
				if _, err := lockCar(ctx, tx, current.CarID); err != nil {
					return err
				}
				return releaseCar(ctx, tx, current.CarID, today)
			}
			return nil
		})
	})
	if err != nil {
		r.logFailure("Failed to update booking status", err,
			zap.String("booking_id", id.String()),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("update booking status %s: %w", id, err)
	}
	return nil
}

// Delete removes a booking and its payment, then releases the car.
func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID, today time.Time) error {
	err := r.run.Run(ctx, "delete booking", func(ctx context.Context) error {
		return database.InTx(ctx, r.db, func(tx pgx.Tx) error {
			current, err := lockBooking(ctx, tx, id)
			if err != nil {
				return err
			}
			if _, err := lockCar(ctx, tx, current.CarID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
				return err
			}
			if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
				return err
			}
			return releaseCar(ctx, tx, current.CarID, today)
		})
	})
	if err != nil {
		r.logFailure("Failed to delete booking", err, zap.String("booking_id", id.String()))
		return fmt.Errorf("delete booking %s: %w", id, err)
	}
	return nil
}

func (r *bookingRepository) HasStartedBooking(ctx context.Context, userID, carID uuid.UUID, asOf time.Time) (bool, error) {
	var exists bool
	err := r.run.Run(ctx, "check started booking", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM bookings
				WHERE user_id = $1 AND car_id = $2 AND start_date <= $3
			)`, userID, carID, asOf.UTC()).Scan(&exists)
	})
	if err != nil {
		r.logFailure("Failed to check started booking", err,
			zap.String("user_id", userID.String()),
			zap.String("car_id", carID.String()),
		)
		return false, fmt.Errorf("check started booking: %w", err)
	}
	return exists, nil
}

// ReleaseFinished returns every RESERVED car without a current or upcoming
// booking to READY.
func (r *bookingRepository) ReleaseFinished(ctx context.Context, today time.Time) (int64, error) {
	var released int64
	err := r.run.Run(ctx, "release finished reservations", func(ctx context.Context) error {
		tag, err := r.db.Exec(ctx, `
			UPDATE cars c SET status = 'READY', updated_at = NOW()
			WHERE c.status = 'RESERVED'
			  AND c.deleted_at IS NULL
			  AND NOT EXISTS (
				SELECT 1 FROM bookings b
				WHERE b.car_id = c.id AND b.payment_status <> 'CANCELLED' AND b.end_date > $1
			  )`, today)
		if err != nil {
			return err
		}
		released = tag.RowsAffected()
		return nil
	})
	if err != nil {
		r.logFailure("Failed to release finished reservations", err)
		return 0, fmt.Errorf("release finished reservations: %w", err)
	}
	return released, nil
}

// CancelUnpaidStarted cancels PENDING bookings that reached their start date
// with no payment recorded, and releases their cars.
func (r *bookingRepository) CancelUnpaidStarted(ctx context.Context, today time.Time) (int64, error) {
	var cancelled int64
	err := r.run.Run(ctx, "cancel unpaid bookings", func(ctx context.Context) error {
		cancelled = 0
		return database.InTx(ctx, r.db, func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, `
				UPDATE bookings b SET payment_status = 'CANCELLED', updated_at = NOW()
				WHERE b.payment_status = 'PENDING'
				  AND b.start_date < $1
				  AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.booking_id = b.id)
				RETURNING b.car_id`, today)
			if err != nil {
				return err
			}
			carIDs, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
			if err != nil {
				return err
			}
			cancelled = int64(len(carIDs))

			for _, id := range sortedUnique(carIDs) {
				if err := releaseCar(ctx, tx, id, today); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		r.logFailure("Failed to cancel unpaid bookings", err)
		return 0, fmt.Errorf("cancel unpaid bookings: %w", err)
	}
	return cancelled, nil
}
