package wire

import (
	"car-rental/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireUser configures profile routes and admin user management.
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	bookingHandler *adaptor.BookingHandler,
	feedbackHandler *adaptor.FeedbackHandler,
	g guards,
) {
	// ==================== PROTECTED USER ROUTES ====================
	r.With(g.auth).Route("/users/me", func(r chi.Router) {
		r.Get("/", userHandler.GetProfile)
		r.Get("/bookings", bookingHandler.GetMyBookings)
		r.Get("/feedbacks", feedbackHandler.GetMyFeedback)
	})

	// ==================== ADMIN ROUTES ====================
	r.With(g.auth, g.admin).Route("/admin/users", func(r chi.Router) {
		r.Get("/", userHandler.GetAllUsers)
		r.Delete("/{id}", userHandler.DeleteUser)
		r.Get("/{id}/bookings", bookingHandler.GetUserBookings)
	})
}
