package adaptor

import (
	"net/http"

	"car-rental/internal/dto/request"
	"car-rental/internal/usecase"
	"car-rental/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type FeedbackHandler struct {
	service usecase.FeedbackService
	log     *zap.Logger
}

func NewFeedbackHandler(service usecase.FeedbackService, log *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		log:     log.With(zap.String("handler", "feedback")),
	}
}

// SubmitFeedback handles POST /api/feedbacks
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req request.CreateFeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	feedback, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "submit feedback")
		return
	}

	utils.ResponseCreated(w, "Feedback submitted successfully", feedback)
}

// GetEligibility handles GET /api/feedbacks/eligibility?car_id=
func (h *FeedbackHandler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	carID := r.URL.Query().Get("car_id")
	if carID == "" {
		utils.ResponseBadRequest(w, "car_id is required", nil)
		return
	}

	eligibility, err := h.service.GetEligibility(r.Context(), carID)
	if err != nil {
		handleServiceError(h.log, w, err, "get feedback eligibility")
		return
	}

	utils.ResponseSuccess(w, "success", eligibility)
}

// GetCarFeedback handles GET /api/cars/{id}/feedbacks (public)
func (h *FeedbackHandler) GetCarFeedback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.NewPaginatedRequest(query.Get("page"), query.Get("per_page"))

	feedback, err := h.service.ListCarFeedback(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "list car feedback")
		return
	}

	utils.ResponseSuccess(w, "success", feedback)
}

// GetMyFeedback handles GET /api/users/me/feedbacks
func (h *FeedbackHandler) GetMyFeedback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.NewPaginatedRequest(query.Get("page"), query.Get("per_page"))

	feedback, err := h.service.ListMyFeedback(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "list my feedback")
		return
	}

	utils.ResponseSuccess(w, "success", feedback)
}
