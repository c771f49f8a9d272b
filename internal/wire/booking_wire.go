package wire

import (
	"car-rental/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	paymentHandler *adaptor.PaymentHandler,
	g guards,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	// Customers see only their own bookings; the service enforces ownership.
	r.Group(func(r chi.Router) {
		r.Use(g.auth)

		r.Post("/bookings", bookingHandler.CreateBooking)
		r.Get("/bookings", bookingHandler.ListBookings)
		r.Get("/bookings/{id}", bookingHandler.GetBooking)
		r.Put("/bookings/{id}", bookingHandler.UpdateBooking)
		r.Post("/bookings/{id}/cancel", bookingHandler.CancelBooking)
		r.Get("/bookings/{id}/payment", paymentHandler.GetBookingPayment)
	})

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth)
		r.Use(g.admin)

		r.Post("/bookings/{id}/refund", bookingHandler.RefundBooking)
		r.Delete("/bookings/{id}", bookingHandler.DeleteBooking)
	})
}
