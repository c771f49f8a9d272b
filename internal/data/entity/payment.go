package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

// SettlesImmediately reports whether the method marks a booking PAID as soon
// as the payment is recorded. Cash and online transfers wait for an admin.
func (m PaymentMethod) SettlesImmediately() bool {
	return m == PaymentMethodCard
}

type Payment struct {
	BaseSimple
	BookingID     uuid.UUID     `db:"booking_id"`
	Amount        float64       `db:"amount"`
	Method        PaymentMethod `db:"method"`
	TransactionID *string       `db:"transaction_id"`
	PaymentDate   time.Time     `db:"payment_date"`
}
