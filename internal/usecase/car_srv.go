package usecase

import (
	"context"
	"fmt"
	"strings"

	"car-rental/internal/data/entity"
	"car-rental/internal/data/repository"
	"car-rental/internal/dto/request"
	"car-rental/internal/dto/response"
	"car-rental/pkg/apperror"
	"car-rental/pkg/utils"

	"go.uber.org/zap"
)

type CarService interface {
	ListCars(ctx context.Context, req *request.ListCarsRequest) (*response.PaginatedResponse[response.CarResponse], error)
	GetCar(ctx context.Context, carID string) (*response.CarDetailResponse, error)

	// Admin endpoints
	CreateCar(ctx context.Context, req *request.CreateCarRequest) (*response.CarResponse, error)
	UpdateCar(ctx context.Context, carID string, req *request.UpdateCarRequest) (*response.CarResponse, error)
	UpdateCarStatus(ctx context.Context, carID string, req *request.UpdateCarStatusRequest) (*response.CarResponse, error)
	DeleteCar(ctx context.Context, carID string) error
}

type carService struct {
	repo *repository.Repository
	now  Clock
	log  *zap.Logger
}

func NewCarService(repo *repository.Repository, now Clock, log *zap.Logger) CarService {
	return &carService{
		repo: repo,
		now:  now,
		log:  log.With(zap.String("service", "car")),
	}
}

func (s *carService) ListCars(ctx context.Context, req *request.ListCarsRequest) (*response.PaginatedResponse[response.CarResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "min_price cannot be greater than max_price")
	}

	filter := entity.CarFilter{
		Brand:    strings.TrimSpace(req.Brand),
		Type:     entity.CarType(req.Type),
		Status:   entity.CarStatus(req.Status),
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Search:   strings.TrimSpace(req.Search),
	}

	cars, err := s.repo.Car.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}

	total, err := s.repo.Car.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count cars: %w", err)
	}

	items := make([]response.CarResponse, len(cars))
	for i, car := range cars {
		items[i] = response.CarToResponse(car)
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

// GetCar returns the car with its rating summary.
func (s *carService) GetCar(ctx context.Context, carID string) (*response.CarDetailResponse, error) {
	car, err := s.findCar(ctx, carID)
	if err != nil {
		return nil, err
	}

	avg, count, err := s.repo.Feedback.GetCarRatingStats(ctx, car.ID)
	if err != nil {
		s.log.Warn("Failed to get rating stats", zap.Error(err), zap.String("car_id", carID))
		avg, count = 0, 0
	}

	resp := response.CarToDetailResponse(car, roundCents(avg), count)
	return &resp, nil
}

func (s *carService) CreateCar(ctx context.Context, req *request.CreateCarRequest) (*response.CarResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create car validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	status := entity.CarStatusReady
	if req.Status != "" {
		status = entity.CarStatus(req.Status)
	}

	now := s.now()
	car := &entity.Car{
		Base:         entity.NewBase(now),
		Brand:        strings.TrimSpace(req.Brand),
		Model:        strings.TrimSpace(req.Model),
		Year:         req.Year,
		Type:         entity.CarType(req.Type),
		LicensePlate: normalizePlate(req.LicensePlate),
		Status:       status,
		PricePerDay:  roundCents(req.PricePerDay),
		ImageURL:     req.ImageURL,
		Description:  req.Description,
	}

	if err := s.repo.Car.Create(ctx, car); err != nil {
		logRejection(s.log, "Failed to create car", err, zap.String("license_plate", car.LicensePlate))
		return nil, fmt.Errorf("create car: %w", err)
	}

	s.log.Info("Car created", zap.String("car_id", car.ID.String()), zap.String("license_plate", car.LicensePlate))

	resp := response.CarToResponse(car)
	return &resp, nil
}

func (s *carService) UpdateCar(ctx context.Context, carID string, req *request.UpdateCarRequest) (*response.CarResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update car validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	car, err := s.findCar(ctx, carID)
	if err != nil {
		return nil, err
	}

	if req.Brand != nil {
		car.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Model != nil {
		car.Model = strings.TrimSpace(*req.Model)
	}
	if req.Year != nil {
		car.Year = *req.Year
	}
	if req.Type != nil {
		car.Type = entity.CarType(*req.Type)
	}
	if req.LicensePlate != nil {
		car.LicensePlate = normalizePlate(*req.LicensePlate)
	}
	if req.PricePerDay != nil {
		// Existing bookings keep the price they were created with.
		car.PricePerDay = roundCents(*req.PricePerDay)
	}
	if req.ImageURL != nil {
		car.ImageURL = req.ImageURL
	}
	if req.Description != nil {
		car.Description = req.Description
	}
	car.UpdatedAt = s.now()

	if err := s.repo.Car.Update(ctx, car); err != nil {
		logRejection(s.log, "Failed to update car", err, zap.String("car_id", carID))
		return nil, fmt.Errorf("update car: %w", err)
	}

	s.log.Info("Car updated", zap.String("car_id", carID))

	resp := response.CarToResponse(car)
	return &resp, nil
}

// UpdateCarStatus is the maintenance workflow: admins take cars in and out of
// service.
func (s *carService) UpdateCarStatus(ctx context.Context, carID string, req *request.UpdateCarStatusRequest) (*response.CarResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	car, err := s.findCar(ctx, carID)
	if err != nil {
		return nil, err
	}

	status := entity.CarStatus(req.Status)
	if car.Status == status {
		resp := response.CarToResponse(car)
		return &resp, nil
	}

	if err := s.repo.Car.UpdateStatus(ctx, car.ID, status); err != nil {
		logRejection(s.log, "Failed to update car status", err, zap.String("car_id", carID))
		return nil, fmt.Errorf("update car status: %w", err)
	}

	s.log.Info("Car status changed",
		zap.String("car_id", carID),
		zap.String("from", string(car.Status)),
		zap.String("to", string(status)))

	car.Status = status
	car.UpdatedAt = s.now()
	resp := response.CarToResponse(car)
	return &resp, nil
}

// DeleteCar retires the car. Cars with running or upcoming bookings are kept.
func (s *carService) DeleteCar(ctx context.Context, carID string) error {
	id, err := parseID(carID, "car ID")
	if err != nil {
		return err
	}

	if err := s.repo.Car.Delete(ctx, id, Today(s.now())); err != nil {
		logRejection(s.log, "Failed to delete car", err, zap.String("car_id", carID))
		return fmt.Errorf("delete car: %w", err)
	}

	s.log.Info("Car deleted", zap.String("car_id", carID))
	return nil
}

func (s *carService) findCar(ctx context.Context, carID string) (*entity.Car, error) {
	id, err := parseID(carID, "car ID")
	if err != nil {
		return nil, err
	}

	car, err := s.repo.Car.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find car: %w", err)
	}
	if car == nil {
		return nil, apperror.NotFound("car not found")
	}
	return car, nil
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), " "))
}
