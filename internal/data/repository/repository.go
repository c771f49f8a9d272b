package repository

import (
	"car-rental/pkg/database"

	"go.uber.org/zap"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type Repository struct {
	User     UserRepository
	Session  SessionRepository
	Car      CarRepository
	Booking  BookingRepository
	Payment  PaymentRepository
	Feedback FeedbackRepository
}

func NewRepository(db database.PgxIface, run *database.Runner, log *zap.Logger) *Repository {
	return &Repository{
		User:     NewUserRepository(db, run, log),
		Session:  NewSessionRepository(db, run, log),
		Car:      NewCarRepository(db, run, log),
		Booking:  NewBookingRepository(db, run, log),
		Payment:  NewPaymentRepository(db, run, log),
		Feedback: NewFeedbackRepository(db, run, log),
	}
}
