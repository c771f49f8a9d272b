package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"car-rental/internal/data/repository"
	"car-rental/pkg/apperror"
	"car-rental/pkg/notify"
	"car-rental/pkg/payment"
	"car-rental/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

// Dispatcher delivers notifications without blocking the request.
type Dispatcher interface {
	Send(msg notify.Message)
}

type Service struct {
	Auth     AuthService
	User     UserService
	Car      CarService
	Booking  BookingService
	Payment  PaymentService
	Feedback FeedbackService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	gateway payment.Gateway,
	dispatcher Dispatcher,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(repo, config, log),
		User:     NewUserService(repo.User, log),
		Car:      NewCarService(repo, time.Now, log),
		Booking:  NewBookingService(repo, gateway, dispatcher, time.Now, log),
		Payment:  NewPaymentService(repo, gateway, dispatcher, config.Payment, log),
		Feedback: NewFeedbackService(repo, time.Now, log),
	}
}

func parseID(value, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("invalid %s format", field)).Wrap(err)
	}
	return id, nil
}

func validationFailed(errs map[string]string) error {
	return apperror.ValidationFields("validation failed: "+utils.FormatValidationErrors(errs), errs)
}

// callerID returns the authenticated user of the request.
func callerID(ctx context.Context) (uuid.UUID, error) {
	id, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, apperror.Unauthorized("authentication required")
	}
	return id, nil
}

// authorizeOwner lets admins through and everybody else only for their own
// records.
func authorizeOwner(ctx context.Context, ownerID uuid.UUID, what string) error {
	if utils.IsAdmin(ctx) {
		return nil
	}
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}
	if caller != ownerID {
		return apperror.Forbidden(apperror.CodeNotOwner, fmt.Sprintf("%s belongs to another user", what))
	}
	return nil
}

// logRejection logs business rejections at Warn and everything else at Error.
func logRejection(log *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if _, ok := apperror.As(err); ok && !errors.Is(err, apperror.ErrStorageUnavailable) {
		log.Warn(msg, fields...)
		return
	}
	log.Error(msg, fields...)
}
