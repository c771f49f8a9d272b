package usecase

import (
	"context"
	"fmt"

	"car-rental/internal/data/entity"
	"car-rental/internal/data/repository"
	"car-rental/internal/dto/request"
	"car-rental/internal/dto/response"
	"car-rental/pkg/apperror"
	"car-rental/pkg/notify"
	"car-rental/pkg/payment"
	"car-rental/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	UpdateBooking(ctx context.Context, bookingID string, req *request.UpdateBookingRequest) (*response.BookingResponse, error)
	DeleteBooking(ctx context.Context, bookingID string) error

	GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	ListUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	ListCarBookings(ctx context.Context, carID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// Status events
	CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	RefundBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
}

type bookingService struct {
	repo       *repository.Repository
	gateway    payment.Gateway
	dispatcher Dispatcher
	now        Clock
	log        *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	gateway payment.Gateway,
	dispatcher Dispatcher,
	now Clock,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:       repo,
		gateway:    gateway,
		dispatcher: dispatcher,
		now:        now,
		log:        log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	// Customers book for themselves; admins may book on behalf of a user.
	userID := caller
	if req.UserID != "" {
		if userID, err = parseID(req.UserID, "user_id"); err != nil {
			return nil, err
		}
		if err := authorizeOwner(ctx, userID, "booking"); err != nil {
			return nil, err
		}
	}

	carID, err := parseID(req.CarID, "car_id")
	if err != nil {
		return nil, err
	}

	if req.PaymentStatus != "" && entity.PaymentStatus(req.PaymentStatus) != entity.PaymentStatusPending {
		return nil, apperror.Validation(apperror.CodeInvalidInput,
			"new bookings start as PENDING; payment_status must be empty or PENDING")
	}

	now := s.now()
	dates, err := ValidateDateRange(req.StartDate, req.EndDate, DateRangeOptions{Today: now})
	if err != nil {
		s.log.Warn("Create booking rejected", zap.Error(err),
			zap.String("start_date", req.StartDate), zap.String("end_date", req.EndDate))
		return nil, err
	}

	car, err := s.repo.Car.FindByID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if car == nil {
		return nil, apperror.NotFound("car not found")
	}
	if !car.Status.Bookable() {
		return nil, apperror.Validation(apperror.CodeCarUnavailable,
			fmt.Sprintf("car is not available for booking (status %s)", car.Status))
	}

	price, err := ComputePrice(car.PricePerDay, dates.Start, dates.End)
	if err != nil {
		return nil, err
	}
	if req.TotalPrice != nil && !pricesMatch(*req.TotalPrice, price) {
		return nil, apperror.Validation(apperror.CodeAmountMismatch,
			fmt.Sprintf("total_price %.2f does not match the computed price %.2f", *req.TotalPrice, price))
	}

	booking := &entity.Booking{
		BaseNoDelete:  entity.NewBaseNoDelete(now),
		UserID:        userID,
		CarID:         carID,
		StartDate:     dates.Start,
		EndDate:       dates.End,
		TotalPrice:    price,
		PaymentStatus: entity.PaymentStatusPending,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		logRejection(s.log, "Failed to create booking", err,
			zap.String("car_id", carID.String()), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("car_id", carID.String()),
		zap.Int("days", dates.Days()),
		zap.Float64("total_price", price))

	sendToUser(ctx, s.repo.User, s.dispatcher, s.log, userID, "Your booking is confirmed",
		fmt.Sprintf("Booking %s: %s %s from %s to %s, total %.2f. Payment status: %s.",
			booking.ID, car.Brand, car.Model, formatDay(booking.StartDate), formatDay(booking.EndDate),
			booking.TotalPrice, booking.PaymentStatus))

	resp := response.BookingToResponse(booking, car)
	return &resp, nil
}

// UpdateBooking applies a partial edit. A change of dates or car re-validates
// the range and reprices; a change of payment_status goes through the state
// machine. A request that changes nothing does not write.
func (s *bookingService) UpdateBooking(ctx context.Context, bookingID string, req *request.UpdateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update booking validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	id, err := parseID(bookingID, "booking ID")
	if err != nil {
		return nil, err
	}

	current, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, current.UserID, "booking"); err != nil {
		return nil, err
	}

	next := *current
	now := s.now()

	if req.CarID != nil {
		if next.CarID, err = parseID(*req.CarID, "car_id"); err != nil {
			return nil, err
		}
	}

	startStr, endStr := formatDay(current.StartDate), formatDay(current.EndDate)
	if req.StartDate != nil {
		startStr = *req.StartDate
	}
	if req.EndDate != nil {
		endStr = *req.EndDate
	}
	dates, err := ValidateDateRange(startStr, endStr, DateRangeOptions{AllowPast: true})
	if err == nil && !dates.Start.Equal(current.StartDate) && dates.Start.Before(Today(now)) {
		err = apperror.Validation(apperror.CodeInPast, "start_date cannot be in the past")
	}
	if err != nil {
		s.log.Warn("Update booking rejected", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, err
	}
	next.StartDate, next.EndDate = dates.Start, dates.End

	rebooked := next.CarID != current.CarID ||
		!next.StartDate.Equal(current.StartDate) ||
		!next.EndDate.Equal(current.EndDate)

	var car *entity.Car
	if rebooked {
		// The stored total must keep matching what was paid.
		if current.PaymentStatus != entity.PaymentStatusPending {
			return nil, apperror.InvalidTransition(
				fmt.Sprintf("booking is %s, only PENDING bookings can change dates or car", current.PaymentStatus))
		}
		pay, err := s.repo.Payment.FindByBookingID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("update booking: %w", err)
		}
		if pay != nil {
			return nil, apperror.InvalidTransition("a payment is already recorded, the booking can no longer change dates or car")
		}
		if car, err = s.repo.Car.FindByID(ctx, next.CarID); err != nil {
			return nil, fmt.Errorf("update booking: %w", err)
		}
		if car == nil {
			return nil, apperror.NotFound("car not found")
		}
		if next.TotalPrice, err = ComputePrice(car.PricePerDay, next.StartDate, next.EndDate); err != nil {
			return nil, err
		}
	}

	if req.PaymentStatus != nil {
		target := entity.PaymentStatus(*req.PaymentStatus)
		if target != current.PaymentStatus {
			if !utils.IsAdmin(ctx) {
				return nil, apperror.Forbidden(apperror.CodeNotOwner, "only an admin can change payment_status")
			}
			if !current.PaymentStatus.CanTransitionTo(target) {
				return nil, apperror.InvalidTransition(
					fmt.Sprintf("cannot change payment_status from %s to %s", current.PaymentStatus, target))
			}
			next.PaymentStatus = target
		}
	}

	if !rebooked && next.PaymentStatus == current.PaymentStatus {
		return s.toResponse(ctx, current, nil), nil
	}

	next.UpdatedAt = now
	today := Today(now)
	if rebooked {
		err = s.repo.Booking.Update(ctx, &next, current, today)
	} else {
		err = s.repo.Booking.UpdateStatus(ctx, id, current.PaymentStatus, next.PaymentStatus, today)
	}
	if err != nil {
		logRejection(s.log, "Failed to update booking", err, zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("update booking: %w", err)
	}

	s.log.Info("Booking updated",
		zap.String("booking_id", bookingID),
		zap.Bool("rebooked", rebooked),
		zap.String("payment_status", next.PaymentStatus.String()),
		zap.Float64("total_price", next.TotalPrice))

	return s.toResponse(ctx, &next, car), nil
}

// DeleteBooking removes the booking and its payment for good.
func (s *bookingService) DeleteBooking(ctx context.Context, bookingID string) error {
	id, err := parseID(bookingID, "booking ID")
	if err != nil {
		return err
	}

	if err := s.repo.Booking.Delete(ctx, id, Today(s.now())); err != nil {
		logRejection(s.log, "Failed to delete booking", err, zap.String("booking_id", bookingID))
		return fmt.Errorf("delete booking: %w", err)
	}

	s.log.Info("Booking deleted", zap.String("booking_id", bookingID))
	return nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID(bookingID, "booking ID")
	if err != nil {
		return nil, err
	}

	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, booking.UserID, "booking"); err != nil {
		return nil, err
	}

	resp := s.toResponse(ctx, booking, nil)

	pay, err := s.repo.Payment.FindByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking payment: %w", err)
	}
	if pay != nil {
		p := response.PaymentToResponse(pay, booking.PaymentStatus)
		resp.Payment = &p
	}

	return resp, nil
}

// ListBookings returns every booking to admins and only their own to
// customers.
func (s *bookingService) ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	filter := entity.BookingFilter{Status: entity.PaymentStatus(req.Status)}

	userID, err := utils.ParseOptionalUUID(req.UserID)
	if err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "invalid user_id format")
	}
	if !utils.IsAdmin(ctx) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}
		if userID != nil && *userID != caller {
			return nil, apperror.Forbidden(apperror.CodeNotOwner, "customers can only list their own bookings")
		}
		userID = &caller
	}
	filter.UserID = userID

	if filter.CarID, err = utils.ParseOptionalUUID(req.CarID); err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "invalid car_id format")
	}

	bookings, err := s.repo.Booking.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	total, err := s.repo.Booking.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	return s.page(bookings, req.PaginatedRequest, total), nil
}

func (s *bookingService) ListUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	id, err := parseID(userID, "user ID")
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, id, "bookings"); err != nil {
		return nil, err
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	total, err := s.repo.Booking.Count(ctx, entity.BookingFilter{UserID: &id})
	if err != nil {
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	return s.page(bookings, *req, total), nil
}

func (s *bookingService) ListCarBookings(ctx context.Context, carID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	id, err := parseID(carID, "car ID")
	if err != nil {
		return nil, err
	}

	car, err := s.repo.Car.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list car bookings: %w", err)
	}
	if car == nil {
		return nil, apperror.NotFound("car not found")
	}

	bookings, err := s.repo.Booking.FindByCarID(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list car bookings: %w", err)
	}
	total, err := s.repo.Booking.Count(ctx, entity.BookingFilter{CarID: &id})
	if err != nil {
		return nil, fmt.Errorf("count car bookings: %w", err)
	}

	return s.page(bookings, *req, total), nil
}

// CancelBooking cancels a booking and frees the car. Customers may only
// cancel bookings that are not paid yet.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	return s.moveTo(ctx, bookingID, entity.PaymentStatusCancelled, func(b *entity.Booking) error {
		if b.PaymentStatus == entity.PaymentStatusPaid && !utils.IsAdmin(ctx) {
			return apperror.Forbidden(apperror.CodeNotOwner, "a paid booking can only be cancelled by an admin")
		}
		return nil
	})
}

// RefundBooking returns a card charge through the gateway before the
// booking is stored as REFUNDED. Gateway refunds are idempotent per
// transaction, so a retry after a failed status write is safe.
func (s *bookingService) RefundBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	var refundedTx string
	resp, err := s.moveTo(ctx, bookingID, entity.PaymentStatusRefunded, func(b *entity.Booking) error {
		pay, err := s.repo.Payment.FindByBookingID(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("refund booking: %w", err)
		}
		if pay == nil || pay.Method != entity.PaymentMethodCard || pay.TransactionID == nil {
			return nil
		}
		if err := s.gateway.Refund(ctx, *pay.TransactionID); err != nil {
			s.log.Error("Gateway refund failed", zap.Error(err),
				zap.String("booking_id", b.ID.String()), zap.String("transaction_id", *pay.TransactionID))
			return fmt.Errorf("refund booking: %w", err)
		}
		refundedTx = *pay.TransactionID
		return nil
	})
	if err != nil && refundedTx != "" {
		s.log.Error("Charge refunded but booking status not stored, manual action required",
			zap.Error(err),
			zap.String("booking_id", bookingID),
			zap.String("transaction_id", refundedTx))
	}
	return resp, err
}

// moveTo drives a single status event. before runs once the transition is
// known to be legal and before anything is written.
func (s *bookingService) moveTo(ctx context.Context, bookingID string, target entity.PaymentStatus, before func(*entity.Booking) error) (*response.BookingResponse, error) {
	id, err := parseID(bookingID, "booking ID")
	if err != nil {
		return nil, err
	}

	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, booking.UserID, "booking"); err != nil {
		return nil, err
	}

	if booking.PaymentStatus == target {
		return s.toResponse(ctx, booking, nil), nil
	}
	if !booking.PaymentStatus.CanTransitionTo(target) {
		return nil, apperror.InvalidTransition(
			fmt.Sprintf("booking is %s, cannot change it to %s", booking.PaymentStatus, target))
	}
	if err := before(booking); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.Booking.UpdateStatus(ctx, id, booking.PaymentStatus, target, Today(now)); err != nil {
		logRejection(s.log, "Failed to change booking status", err,
			zap.String("booking_id", bookingID), zap.String("to", target.String()))
		return nil, fmt.Errorf("change booking status: %w", err)
	}

	s.log.Info("Booking status changed",
		zap.String("booking_id", bookingID),
		zap.String("from", booking.PaymentStatus.String()),
		zap.String("to", target.String()))

	booking.PaymentStatus = target
	booking.UpdatedAt = now

	sendToUser(ctx, s.repo.User, s.dispatcher, s.log, booking.UserID, "Your booking was updated",
		fmt.Sprintf("Booking %s is now %s.", booking.ID, target))

	return s.toResponse(ctx, booking, nil), nil
}

func (s *bookingService) findBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, apperror.NotFound("booking not found")
	}
	return booking, nil
}

// toResponse attaches the car summary when it can be loaded.
func (s *bookingService) toResponse(ctx context.Context, booking *entity.Booking, car *entity.Car) *response.BookingResponse {
	if car == nil {
		var err error
		if car, err = s.repo.Car.FindByID(ctx, booking.CarID); err != nil {
			s.log.Warn("Failed to load car for booking response", zap.Error(err),
				zap.String("booking_id", booking.ID.String()))
		}
	}
	resp := response.BookingToResponse(booking, car)
	return &resp
}

func (s *bookingService) page(bookings []*entity.Booking, req request.PaginatedRequest, total int64) *response.PaginatedResponse[response.BookingResponse] {
	items := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, response.BookingToResponse(b, nil))
	}
	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total)
}

// sendToUser queues a notification for a user. Lookup failures are logged
// and swallowed.
func sendToUser(ctx context.Context, users repository.UserRepository, dispatcher Dispatcher, log *zap.Logger, userID uuid.UUID, subject, body string) {
	if dispatcher == nil {
		return
	}
	user, err := users.FindByID(ctx, userID)
	if err != nil || user == nil {
		log.Warn("Skipping notification, user not loaded", zap.Error(err), zap.String("user_id", userID.String()))
		return
	}
	msg := notify.Message{
		ToName:  user.Username,
		ToEmail: user.Email,
		Subject: subject,
		Body:    body,
	}
	if user.Phone != nil {
		msg.ToPhone = *user.Phone
	}
	dispatcher.Send(msg)
}
