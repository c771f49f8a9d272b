package wire

import (
	"car-rental/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCar(
	r chi.Router,
	carHandler *adaptor.CarHandler,
	bookingHandler *adaptor.BookingHandler,
	feedbackHandler *adaptor.FeedbackHandler,
	g guards,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/cars", carHandler.ListCars)
	r.Get("/cars/{id}", carHandler.GetCar)
	r.Get("/cars/{id}/feedbacks", feedbackHandler.GetCarFeedback)

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth)  // Must be authenticated
		r.Use(g.admin) // Must be admin

		r.Post("/cars", carHandler.CreateCar)
		r.Put("/cars/{id}", carHandler.UpdateCar)
		r.Patch("/cars/{id}/status", carHandler.UpdateCarStatus)
		r.Delete("/cars/{id}", carHandler.DeleteCar)
		r.Get("/cars/{id}/bookings", bookingHandler.GetCarBookings)
	})
}
