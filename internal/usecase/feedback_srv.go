package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"car-rental/internal/data/entity"
	"car-rental/internal/data/repository"
	"car-rental/internal/dto/request"
	"car-rental/internal/dto/response"
	"car-rental/pkg/apperror"
	"car-rental/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FeedbackService interface {
	// CanSubmit is the eligibility gate: the user has a booking for the car
	// that started on or before asOf, and has not left feedback for it yet.
	CanSubmit(ctx context.Context, userID, carID uuid.UUID, asOf time.Time) (bool, error)
	Submit(ctx context.Context, req *request.CreateFeedbackRequest) (*response.FeedbackResponse, error)

	GetEligibility(ctx context.Context, carID string) (*response.EligibilityResponse, error)
	ListCarFeedback(ctx context.Context, carID string, req *request.PaginatedRequest) (*response.CarFeedbackResponse, error)
	ListMyFeedback(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.FeedbackResponse], error)
}

type feedbackService struct {
	repo *repository.Repository
	now  Clock
	log  *zap.Logger
}

func NewFeedbackService(repo *repository.Repository, now Clock, log *zap.Logger) FeedbackService {
	return &feedbackService{
		repo: repo,
		now:  now,
		log:  log.With(zap.String("service", "feedback")),
	}
}

func (s *feedbackService) CanSubmit(ctx context.Context, userID, carID uuid.UUID, asOf time.Time) (bool, error) {
	existing, err := s.repo.Feedback.FindByUserAndCar(ctx, userID, carID)
	if err != nil {
		return false, fmt.Errorf("check existing feedback: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	started, err := s.repo.Booking.HasStartedBooking(ctx, userID, carID, asOf)
	if err != nil {
		return false, fmt.Errorf("check bookings: %w", err)
	}
	return started, nil
}

func (s *feedbackService) Submit(ctx context.Context, req *request.CreateFeedbackRequest) (*response.FeedbackResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Submit feedback validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.UserID != "" {
		if userID, err = parseID(req.UserID, "user_id"); err != nil {
			return nil, err
		}
		if err := authorizeOwner(ctx, userID, "feedback"); err != nil {
			return nil, err
		}
	}

	carID, err := parseID(req.CarID, "car_id")
	if err != nil {
		return nil, err
	}

	car, err := s.repo.Car.FindByID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("submit feedback: %w", err)
	}
	if car == nil {
		return nil, apperror.NotFound("car not found")
	}

	existing, err := s.repo.Feedback.FindByUserAndCar(ctx, userID, carID)
	if err != nil {
		return nil, fmt.Errorf("submit feedback: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict(apperror.CodeAlreadySubmitted, "you have already left feedback for this car")
	}

	now := s.now()
	started, err := s.repo.Booking.HasStartedBooking(ctx, userID, carID, now)
	if err != nil {
		return nil, fmt.Errorf("submit feedback: %w", err)
	}
	if !started {
		s.log.Warn("Feedback rejected, no started booking",
			zap.String("user_id", userID.String()), zap.String("car_id", carID.String()))
		return nil, apperror.Forbidden(apperror.CodeNotEligible,
			"feedback opens once your rental of this car has started")
	}

	var comment *string
	if req.Comment != nil {
		if trimmed := strings.TrimSpace(*req.Comment); trimmed != "" {
			comment = &trimmed
		}
	}

	feedback := &entity.Feedback{
		BaseSimple: entity.NewBaseSimple(now),
		UserID:     userID,
		CarID:      carID,
		Rating:     req.Rating,
		Comment:    comment,
	}

	// The unique index still catches a concurrent second submit.
	if err := s.repo.Feedback.Create(ctx, feedback); err != nil {
		logRejection(s.log, "Failed to create feedback", err,
			zap.String("user_id", userID.String()), zap.String("car_id", carID.String()))
		return nil, fmt.Errorf("submit feedback: %w", err)
	}

	s.log.Info("Feedback submitted",
		zap.String("feedback_id", feedback.ID.String()),
		zap.String("car_id", carID.String()),
		zap.Int("rating", feedback.Rating))

	resp := response.FeedbackToResponse(feedback)
	return &resp, nil
}

func (s *feedbackService) GetEligibility(ctx context.Context, carID string) (*response.EligibilityResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(carID, "car_id")
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Feedback.FindByUserAndCar(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get eligibility: %w", err)
	}

	eligible, err := s.CanSubmit(ctx, userID, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("get eligibility: %w", err)
	}

	return &response.EligibilityResponse{
		CarID:            id.String(),
		Eligible:         eligible,
		AlreadySubmitted: existing != nil,
	}, nil
}

func (s *feedbackService) ListCarFeedback(ctx context.Context, carID string, req *request.PaginatedRequest) (*response.CarFeedbackResponse, error) {
	id, err := parseID(carID, "car ID")
	if err != nil {
		return nil, err
	}

	car, err := s.repo.Car.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list car feedback: %w", err)
	}
	if car == nil {
		return nil, apperror.NotFound("car not found")
	}

	avg, count, err := s.repo.Feedback.GetCarRatingStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rating stats: %w", err)
	}

	rows, err := s.repo.Feedback.FindByCarID(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list car feedback: %w", err)
	}

	items := make([]response.FeedbackResponse, len(rows))
	for i, row := range rows {
		items[i] = response.FeedbackWithUserToResponse(row)
	}

	return &response.CarFeedbackResponse{
		Stats:     response.RatingStats{Average: roundCents(avg), Count: count},
		Feedbacks: response.NewPaginatedResponse(items, req.Page, req.Limit(), count),
	}, nil
}

func (s *feedbackService) ListMyFeedback(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.FeedbackResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Feedback.FindByUserID(ctx, userID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list user feedback: %w", err)
	}
	total, err := s.repo.Feedback.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count user feedback: %w", err)
	}

	items := make([]response.FeedbackResponse, len(rows))
	for i, row := range rows {
		items[i] = response.FeedbackToResponse(row)
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}
