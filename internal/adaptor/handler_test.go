package adaptor_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"car-rental/internal/adaptor"
	"car-rental/internal/dto/request"
	"car-rental/internal/dto/response"
	"car-rental/internal/usecase"
	"car-rental/pkg/apperror"
)

// Only the methods a test sets are callable; the embedded nil interface
// panics on anything else.
type mockBookingService struct {
	usecase.BookingService
	create func(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	cancel func(ctx context.Context, id string) (*response.BookingResponse, error)
	list   func(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	return m.create(ctx, req)
}

func (m *mockBookingService) CancelBooking(ctx context.Context, id string) (*response.BookingResponse, error) {
	return m.cancel(ctx, id)
}

func (m *mockBookingService) ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	return m.list(ctx, req)
}

type mockFeedbackService struct {
	usecase.FeedbackService
	submit      func(ctx context.Context, req *request.CreateFeedbackRequest) (*response.FeedbackResponse, error)
	eligibility func(ctx context.Context, carID string) (*response.EligibilityResponse, error)
}

func (m *mockFeedbackService) Submit(ctx context.Context, req *request.CreateFeedbackRequest) (*response.FeedbackResponse, error) {
	return m.submit(ctx, req)
}

func (m *mockFeedbackService) GetEligibility(ctx context.Context, carID string) (*response.EligibilityResponse, error) {
	return m.eligibility(ctx, carID)
}

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func serve(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func bookingRouter(svc usecase.BookingService) http.Handler {
	h := adaptor.NewBookingHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/bookings", h.ListBookings)
	r.Post("/bookings", h.CreateBooking)
	r.Post("/bookings/{id}/cancel", h.CancelBooking)
	return r
}

func TestCreateBooking_Created(t *testing.T) {
	svc := &mockBookingService{create: func(_ context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
		assert.Equal(t, "2025-10-01", req.StartDate)
		return &response.BookingResponse{ID: "b-1", Days: 3, TotalPrice: 150, PaymentStatus: "PENDING"}, nil
	}}

	rec, env := serve(t, bookingRouter(svc), http.MethodPost, "/bookings",
		`{"car_id":"7d1c3c5e-4a3b-4e55-9d43-1c9a3b8f2a10","start_date":"2025-10-01","end_date":"2025-10-04"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Status)
	var got response.BookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 150.0, got.TotalPrice)
}

func TestCreateBooking_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"overlap", apperror.Conflict(apperror.CodeOverlap, "car is already booked for these dates"), http.StatusConflict, apperror.CodeOverlap},
		{"inverted", apperror.Validation(apperror.CodeInverted, "start_date must be before end_date"), http.StatusBadRequest, apperror.CodeInverted},
		{"car missing", apperror.NotFound("car not found"), http.StatusNotFound, "not_found"},
		{"storage", apperror.StorageUnavailable(errors.New("dial tcp")), http.StatusServiceUnavailable, "storage_unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockBookingService{create: func(context.Context, *request.CreateBookingRequest) (*response.BookingResponse, error) {
				return nil, tc.err
			}}

			rec, env := serve(t, bookingRouter(svc), http.MethodPost, "/bookings", `{"car_id":"x"}`)

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.False(t, env.Status)
			assert.Equal(t, tc.wantErr, env.Code)
		})
	}
}

func TestCreateBooking_UnclassifiedErrorIsMasked(t *testing.T) {
	svc := &mockBookingService{create: func(context.Context, *request.CreateBookingRequest) (*response.BookingResponse, error) {
		return nil, errors.New("pq: relation bookings does not exist")
	}}

	rec, env := serve(t, bookingRouter(svc), http.MethodPost, "/bookings", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, env.Message, "relation")
}

func TestCreateBooking_ValidationFields(t *testing.T) {
	svc := &mockBookingService{create: func(context.Context, *request.CreateBookingRequest) (*response.BookingResponse, error) {
		return nil, apperror.ValidationFields("validation failed", map[string]string{"car_id": "car_id is required"})
	}}

	rec, env := serve(t, bookingRouter(svc), http.MethodPost, "/bookings", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "car_id is required", env.Errors["car_id"])
}

func TestCreateBooking_BadBody(t *testing.T) {
	// create stays nil: a broken body must not reach the service.
	router := bookingRouter(&mockBookingService{})

	for _, body := range []string{"", "{not json"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestCancelBooking_PassesPathID(t *testing.T) {
	var gotID string
	svc := &mockBookingService{cancel: func(_ context.Context, id string) (*response.BookingResponse, error) {
		gotID = id
		return nil, apperror.InvalidTransition("booking is REFUNDED, cannot change it to CANCELLED")
	}}

	rec, _ := serve(t, bookingRouter(svc), http.MethodPost, "/bookings/abc-123/cancel", "")

	assert.Equal(t, "abc-123", gotID)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListBookings_ReadsQuery(t *testing.T) {
	svc := &mockBookingService{list: func(_ context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
		assert.Equal(t, 2, req.Page)
		assert.Equal(t, 100, req.PerPage)
		assert.Equal(t, "PAID", req.Status)
		return response.NewPaginatedResponse[response.BookingResponse](nil, req.Page, req.Limit(), 0), nil
	}}

	rec, env := serve(t, bookingRouter(svc), http.MethodGet, "/bookings?page=2&per_page=500&status=PAID", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"data":[]`)
}

func feedbackRouter(svc usecase.FeedbackService) http.Handler {
	h := adaptor.NewFeedbackHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Post("/feedbacks", h.SubmitFeedback)
	r.Get("/feedbacks/eligibility", h.GetEligibility)
	return r
}

func TestSubmitFeedback_NotEligible(t *testing.T) {
	svc := &mockFeedbackService{submit: func(context.Context, *request.CreateFeedbackRequest) (*response.FeedbackResponse, error) {
		return nil, apperror.Forbidden(apperror.CodeNotEligible, "feedback opens once your booking has started")
	}}

	rec, env := serve(t, feedbackRouter(svc), http.MethodPost, "/feedbacks", `{"car_id":"c","rating":5}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperror.CodeNotEligible, env.Code)
}

func TestSubmitFeedback_Duplicate(t *testing.T) {
	svc := &mockFeedbackService{submit: func(context.Context, *request.CreateFeedbackRequest) (*response.FeedbackResponse, error) {
		return nil, apperror.Conflict(apperror.CodeAlreadySubmitted, "feedback already submitted for this car")
	}}

	rec, env := serve(t, feedbackRouter(svc), http.MethodPost, "/feedbacks", `{"car_id":"c","rating":4}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.CodeAlreadySubmitted, env.Code)
}

func TestGetEligibility(t *testing.T) {
	svc := &mockFeedbackService{eligibility: func(_ context.Context, carID string) (*response.EligibilityResponse, error) {
		return &response.EligibilityResponse{CarID: carID, Eligible: true}, nil
	}}

	rec, _ := serve(t, feedbackRouter(svc), http.MethodGet, "/feedbacks/eligibility", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := serve(t, feedbackRouter(svc), http.MethodGet, "/feedbacks/eligibility?car_id=c-9", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var got response.EligibilityResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Eligible)
	assert.Equal(t, "c-9", got.CarID)
}
