package entity

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle state of a booking.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// bookingTransitions is the booking state machine. PAID -> CANCELLED keeps
// the money; returning it is the REFUNDED event.
var bookingTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusPaid, PaymentStatusCancelled},
	PaymentStatusPaid:      {PaymentStatusRefunded, PaymentStatusCancelled},
	PaymentStatusCancelled: {},
	PaymentStatusRefunded:  {},
}

func (s PaymentStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether target is reachable in one step.
// Staying in the same status is not a transition.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return s.IsValid() && len(bookingTransitions[s]) == 0
}

// HoldsCar reports whether a booking in this status still occupies its car
// for the booked dates.
func (s PaymentStatus) HoldsCar() bool {
	return s != PaymentStatusCancelled
}

func (s PaymentStatus) String() string {
	return string(s)
}

type Booking struct {
	BaseNoDelete
	UserID        uuid.UUID     `db:"user_id"`
	CarID         uuid.UUID     `db:"car_id"`
	StartDate     time.Time     `db:"start_date"`
	EndDate       time.Time     `db:"end_date"`
	TotalPrice    float64       `db:"total_price"`
	PaymentStatus PaymentStatus `db:"payment_status"`
}

// Overlaps reports whether two half-open date ranges [start, end) intersect.
// Back-to-back ranges do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// BookingFilter selects bookings for listing. Nil fields mean "any".
type BookingFilter struct {
	UserID *uuid.UUID
	CarID  *uuid.UUID
	Status PaymentStatus
}
