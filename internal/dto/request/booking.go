package request

// CreateBookingRequest carries dates as YYYY-MM-DD or RFC 3339 strings.
// TotalPrice and PaymentStatus are optional echoes of what the storefront
// displayed; they are checked, never trusted.
type CreateBookingRequest struct {
	UserID        string   `json:"user_id" validate:"omitempty,uuid"`
	CarID         string   `json:"car_id" validate:"required,uuid"`
	StartDate     string   `json:"start_date" validate:"required"`
	EndDate       string   `json:"end_date" validate:"required"`
	TotalPrice    *float64 `json:"total_price,omitempty" validate:"omitempty,gte=0"`
	PaymentStatus string   `json:"payment_status,omitempty" validate:"omitempty,oneof=PENDING PAID CANCELLED REFUNDED"`
}

// UpdateBookingRequest is a partial update; nil fields keep their value.
type UpdateBookingRequest struct {
	CarID         *string `json:"car_id,omitempty" validate:"omitempty,uuid"`
	StartDate     *string `json:"start_date,omitempty"`
	EndDate       *string `json:"end_date,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty" validate:"omitempty,oneof=PENDING PAID CANCELLED REFUNDED"`
}

type ListBookingsRequest struct {
	PaginatedRequest
	UserID string `validate:"omitempty,uuid"`
	CarID  string `validate:"omitempty,uuid"`
	Status string `validate:"omitempty,oneof=PENDING PAID CANCELLED REFUNDED"`
}

type ProcessPaymentRequest struct {
	BookingID          string  `json:"booking_id" validate:"required,uuid"`
	Amount             float64 `json:"amount" validate:"required,gt=0"`
	Method             string  `json:"method" validate:"required,oneof=CARD CASH ONLINE"`
	PaymentMethodToken string  `json:"payment_method_token,omitempty"`
}
