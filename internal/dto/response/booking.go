package response

import (
	"time"

	"car-rental/internal/data/entity"
)

const dateLayout = "2006-01-02"

type BookingResponse struct {
	ID            string               `json:"id"`
	UserID        string               `json:"user_id"`
	CarID         string               `json:"car_id"`
	Car           *CarSummary          `json:"car,omitempty"`
	StartDate     string               `json:"start_date"`
	EndDate       string               `json:"end_date"`
	Days          int                  `json:"days"`
	TotalPrice    float64              `json:"total_price"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	Payment       *PaymentResponse     `json:"payment,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type PaymentResponse struct {
	ID            string               `json:"id"`
	BookingID     string               `json:"booking_id"`
	Amount        float64              `json:"amount"`
	Method        entity.PaymentMethod `json:"method"`
	TransactionID *string              `json:"transaction_id,omitempty"`
	PaymentDate   time.Time            `json:"payment_date"`
	BookingStatus entity.PaymentStatus `json:"booking_status,omitempty"`
}

// Helper converters
func BookingToResponse(booking *entity.Booking, car *entity.Car) BookingResponse {
	resp := BookingResponse{
		ID:            booking.ID.String(),
		UserID:        booking.UserID.String(),
		CarID:         booking.CarID.String(),
		StartDate:     booking.StartDate.Format(dateLayout),
		EndDate:       booking.EndDate.Format(dateLayout),
		Days:          int(booking.EndDate.Sub(booking.StartDate).Hours() / 24),
		TotalPrice:    booking.TotalPrice,
		PaymentStatus: booking.PaymentStatus,
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.UpdatedAt,
	}
	if car != nil {
		summary := CarToSummary(car)
		resp.Car = &summary
	}
	return resp
}

func PaymentToResponse(payment *entity.Payment, status entity.PaymentStatus) PaymentResponse {
	return PaymentResponse{
		ID:            payment.ID.String(),
		BookingID:     payment.BookingID.String(),
		Amount:        payment.Amount,
		Method:        payment.Method,
		TransactionID: payment.TransactionID,
		PaymentDate:   payment.PaymentDate,
		BookingStatus: status,
	}
}
