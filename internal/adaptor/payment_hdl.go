package adaptor

import (
	"net/http"

	"car-rental/internal/dto/request"
	"car-rental/internal/usecase"
	"car-rental/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// ProcessPayment handles POST /api/payments
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req request.ProcessPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pay, err := h.service.ProcessPayment(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "process payment")
		return
	}

	utils.ResponseCreated(w, "Payment recorded successfully", pay)
}

// GetBookingPayment handles GET /api/bookings/{id}/payment
func (h *PaymentHandler) GetBookingPayment(w http.ResponseWriter, r *http.Request) {
	pay, err := h.service.GetBookingPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get booking payment")
		return
	}

	utils.ResponseSuccess(w, "Payment retrieved successfully", pay)
}
