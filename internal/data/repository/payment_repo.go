package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"car-rental/internal/data/entity"
	"car-rental/pkg/apperror"
	"car-rental/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	// Record stores the payment for a PENDING booking. With settle set the
	// booking moves to PAID in the same transaction.
	Record(ctx context.Context, payment *entity.Payment, settle bool) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
}

type paymentRepository struct {
	db  database.PgxIface
	run *database.Runner
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, run *database.Runner, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		run: run,
		log: log.With(zap.String("repository", "payment")),
	}
}

func alreadyPaid() *apperror.Error {
	return apperror.Conflict(apperror.CodeAlreadyPaid, "a payment has already been recorded for this booking")
}

func (r *paymentRepository) Record(ctx context.Context, payment *entity.Payment, settle bool) error {
	err := r.run.Run(ctx, "record payment", func(ctx context.Context) error {
		return database.InTx(ctx, r.db, func(tx pgx.Tx) error {
			booking, err := lockBooking(ctx, tx, payment.BookingID)
			if err != nil {
				return err
			}
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM payments WHERE booking_id = $1)`, payment.BookingID).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return alreadyPaid()
			}

			if booking.PaymentStatus != entity.PaymentStatusPending {
				return apperror.InvalidTransition(
					fmt.Sprintf("booking is %s, only PENDING bookings can be paid", booking.PaymentStatus))
			}
			if math.Abs(booking.TotalPrice-payment.Amount) > 0.005 {
				return apperror.Validation(apperror.CodeAmountMismatch,
					fmt.Sprintf("amount %.2f does not match booking total %.2f", payment.Amount, booking.TotalPrice))
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO payments (id, booking_id, amount, method, transaction_id, payment_date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				payment.ID,
				payment.BookingID,
				payment.Amount,
				payment.Method,
				payment.TransactionID,
				payment.PaymentDate,
				payment.CreatedAt,
			)
			if err != nil {
				return err
			}

			if settle {
				_, err = tx.Exec(ctx,
					`UPDATE bookings SET payment_status = 'PAID', updated_at = NOW() WHERE id = $1`, payment.BookingID)
			}
			return err
		})
	})
	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return alreadyPaid().Wrap(err)
	}
	if err != nil {
		if _, ok := apperror.As(err); !ok {
			r.log.Error("Failed to record payment",
				zap.Error(err),
				zap.String("booking_id", payment.BookingID.String()),
			)
		}
		return fmt.Errorf("record payment for booking %s: %w", payment.BookingID, err)
	}

	return nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT id, booking_id, amount, method, transaction_id, payment_date, created_at
		FROM payments
		WHERE booking_id = $1
	`

	var payment entity.Payment
	err := r.run.Run(ctx, "find payment", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, bookingID).Scan(
			&payment.ID,
			&payment.BookingID,
			&payment.Amount,
			&payment.Method,
			&payment.TransactionID,
			&payment.PaymentDate,
			&payment.CreatedAt,
		)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payment for booking %s: %w", bookingID, err)
	}

	return &payment, nil
}
