package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"car-rental/internal/usecase"
	"car-rental/pkg/apperror"
	"car-rental/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Car      *CarHandler
	Booking  *BookingHandler
	Payment  *PaymentHandler
	Feedback *FeedbackHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, log),
		User:     NewUserHandler(service.User, log),
		Car:      NewCarHandler(service.Car, log),
		Booking:  NewBookingHandler(service.Booking, log),
		Payment:  NewPaymentHandler(service.Payment, log),
		Feedback: NewFeedbackHandler(service.Feedback, log),
	}
}

// maxBodyBytes caps request bodies; every payload here is a small JSON object.
const maxBodyBytes = 1 << 20

// decodeJSON reads the body into dst and writes a 400 when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			utils.ResponseBadRequest(w, "Request body is required", nil)
			return false
		}
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// handleServiceError logs a failed operation and writes the status its error
// kind maps to. Expected rejections log at warn level.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	status := apperror.HTTPStatus(err)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
	default:
		log.Warn(operation+" rejected",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("code", apperror.CodeOf(err)))
	}
	utils.ResponseError(w, err)
}
