package adaptor

import (
	"net/http"

	"car-rental/internal/dto/request"
	"car-rental/internal/usecase"
	"car-rental/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CarHandler struct {
	service usecase.CarService
	log     *zap.Logger
}

func NewCarHandler(service usecase.CarService, log *zap.Logger) *CarHandler {
	return &CarHandler{
		service: service,
		log:     log.With(zap.String("handler", "car")),
	}
}

// ListCars handles GET /api/cars
// Filters: brand, type, status, min_price, max_price, search.
func (h *CarHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ListCarsRequest{
		PaginatedRequest: request.NewPaginatedRequest(query.Get("page"), query.Get("per_page")),
		Brand:            query.Get("brand"),
		Type:             query.Get("type"),
		Status:           query.Get("status"),
		MinPrice:         utils.ParseFloat(query.Get("min_price")),
		MaxPrice:         utils.ParseFloat(query.Get("max_price")),
		Search:           query.Get("search"),
	}

	cars, err := h.service.ListCars(r.Context(), req)
	if err != nil {
		handleServiceError(h.log, w, err, "list cars")
		return
	}

	utils.ResponseSuccess(w, "success", cars)
}

// GetCar handles GET /api/cars/{id}
func (h *CarHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	car, err := h.service.GetCar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get car")
		return
	}

	utils.ResponseSuccess(w, "Car retrieved successfully", car)
}

// CreateCar handles POST /api/cars
func (h *CarHandler) CreateCar(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCarRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	car, err := h.service.CreateCar(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create car")
		return
	}

	utils.ResponseCreated(w, "Car created successfully", car)
}

// UpdateCar handles PUT /api/cars/{id}
func (h *CarHandler) UpdateCar(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateCarRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	car, err := h.service.UpdateCar(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update car")
		return
	}

	utils.ResponseSuccess(w, "Car updated successfully", car)
}

// UpdateCarStatus handles PATCH /api/cars/{id}/status
func (h *CarHandler) UpdateCarStatus(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateCarStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	car, err := h.service.UpdateCarStatus(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update car status")
		return
	}

	utils.ResponseSuccess(w, "Car status updated successfully", car)
}

// DeleteCar handles DELETE /api/cars/{id}
func (h *CarHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCar(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.log, w, err, "delete car")
		return
	}

	utils.ResponseSuccess(w, "Car deleted successfully", nil)
}
