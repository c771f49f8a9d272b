package usecase

import (
	"context"
	"fmt"
	"time"

	"car-rental/internal/data/entity"
	"car-rental/internal/data/repository"
	"car-rental/internal/dto/request"
	"car-rental/internal/dto/response"
	"car-rental/pkg/apperror"
	"car-rental/pkg/payment"
	"car-rental/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	ProcessPayment(ctx context.Context, req *request.ProcessPaymentRequest) (*response.PaymentResponse, error)
	GetBookingPayment(ctx context.Context, bookingID string) (*response.PaymentResponse, error)
}

type paymentService struct {
	repo       *repository.Repository
	gateway    payment.Gateway
	dispatcher Dispatcher
	config     utils.PaymentConfig
	now        Clock
	log        *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	gateway payment.Gateway,
	dispatcher Dispatcher,
	config utils.PaymentConfig,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:       repo,
		gateway:    gateway,
		dispatcher: dispatcher,
		config:     config,
		now:        time.Now,
		log:        log.With(zap.String("service", "payment")),
	}
}

// ProcessPayment records the payment for a PENDING booking. Cards are charged
// first and settle the booking at once; cash and online transfers leave it
// PENDING until an admin confirms them.
func (s *paymentService) ProcessPayment(ctx context.Context, req *request.ProcessPaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Process payment validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	bookingID, err := parseID(req.BookingID, "booking_id")
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("process payment: %w", err)
	}
	if booking == nil {
		return nil, apperror.NotFound("booking not found")
	}
	if err := authorizeOwner(ctx, booking.UserID, "booking"); err != nil {
		return nil, err
	}

	existing, err := s.repo.Payment.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("process payment: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict(apperror.CodeAlreadyPaid, "a payment has already been recorded for this booking")
	}
	if booking.PaymentStatus != entity.PaymentStatusPending {
		return nil, apperror.InvalidTransition(
			fmt.Sprintf("booking is %s, only PENDING bookings can be paid", booking.PaymentStatus))
	}
	if !pricesMatch(req.Amount, booking.TotalPrice) {
		return nil, apperror.Validation(apperror.CodeAmountMismatch,
			fmt.Sprintf("amount %.2f does not match the booking total %.2f", req.Amount, booking.TotalPrice))
	}

	method := entity.PaymentMethod(req.Method)
	settle := method.SettlesImmediately()

	now := s.now()
	pay := &entity.Payment{
		BaseSimple:  entity.NewBaseSimple(now),
		BookingID:   bookingID,
		Amount:      booking.TotalPrice,
		Method:      method,
		PaymentDate: now,
	}

	if settle {
		txID, err := s.gateway.Charge(ctx, payment.ChargeRequest{
			Amount:        booking.TotalPrice,
			Currency:      s.config.Currency,
			Description:   fmt.Sprintf("Car rental %s to %s", formatDay(booking.StartDate), formatDay(booking.EndDate)),
			PaymentMethod: req.PaymentMethodToken,
			Reference:     bookingID.String(),
		})
		if err != nil {
			logRejection(s.log, "Card charge failed", err, zap.String("booking_id", req.BookingID))
			return nil, fmt.Errorf("process payment: %w", err)
		}
		pay.TransactionID = &txID
	}

	if err := s.repo.Payment.Record(ctx, pay, settle); err != nil {
		logRejection(s.log, "Failed to record payment", err, zap.String("booking_id", req.BookingID))
		if pay.TransactionID != nil {
			s.compensate(ctx, bookingID, *pay.TransactionID)
		}
		return nil, fmt.Errorf("process payment: %w", err)
	}

	status := entity.PaymentStatusPending
	if settle {
		status = entity.PaymentStatusPaid
	}

	s.log.Info("Payment recorded",
		zap.String("booking_id", req.BookingID),
		zap.String("payment_id", pay.ID.String()),
		zap.String("method", string(method)),
		zap.String("booking_status", status.String()))

	sendToUser(ctx, s.repo.User, s.dispatcher, s.log, booking.UserID, "Payment received",
		fmt.Sprintf("We received %.2f by %s for booking %s. Booking status: %s.",
			pay.Amount, method, bookingID, status))

	resp := response.PaymentToResponse(pay, status)
	return &resp, nil
}

// compensate refunds a charge whose payment row could not be stored.
func (s *paymentService) compensate(ctx context.Context, bookingID uuid.UUID, txID string) {
	if err := s.gateway.Refund(context.WithoutCancel(ctx), txID); err != nil {
		s.log.Error("Refund of orphaned charge failed, manual action required",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("transaction_id", txID))
		return
	}
	s.log.Warn("Refunded charge after failed payment write",
		zap.String("booking_id", bookingID.String()),
		zap.String("transaction_id", txID))
}

func (s *paymentService) GetBookingPayment(ctx context.Context, bookingID string) (*response.PaymentResponse, error) {
	id, err := parseID(bookingID, "booking ID")
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking payment: %w", err)
	}
	if booking == nil {
		return nil, apperror.NotFound("booking not found")
	}
	if err := authorizeOwner(ctx, booking.UserID, "booking"); err != nil {
		return nil, err
	}

	pay, err := s.repo.Payment.FindByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking payment: %w", err)
	}
	if pay == nil {
		return nil, apperror.NotFound("no payment recorded for this booking")
	}

	resp := response.PaymentToResponse(pay, booking.PaymentStatus)
	return &resp, nil
}
