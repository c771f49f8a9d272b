package response

import (
	"time"

	"car-rental/internal/data/entity"
)

type CarResponse struct {
	ID           string           `json:"id"`
	Brand        string           `json:"brand"`
	Model        string           `json:"model"`
	Year         int              `json:"year"`
	Type         entity.CarType   `json:"type"`
	LicensePlate string           `json:"license_plate"`
	Status       entity.CarStatus `json:"status"`
	PricePerDay  float64          `json:"price_per_day"`
	ImageURL     *string          `json:"image_url,omitempty"`
	Description  *string          `json:"description,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type CarDetailResponse struct {
	CarResponse
	Rating RatingStats `json:"rating"`
}

// CarSummary is the short form embedded in booking responses.
type CarSummary struct {
	ID           string  `json:"id"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	LicensePlate string  `json:"license_plate"`
	PricePerDay  float64 `json:"price_per_day"`
}

type RatingStats struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// Helper converters
func CarToResponse(car *entity.Car) CarResponse {
	return CarResponse{
		ID:           car.ID.String(),
		Brand:        car.Brand,
		Model:        car.Model,
		Year:         car.Year,
		Type:         car.Type,
		LicensePlate: car.LicensePlate,
		Status:       car.Status,
		PricePerDay:  car.PricePerDay,
		ImageURL:     car.ImageURL,
		Description:  car.Description,
		CreatedAt:    car.CreatedAt,
		UpdatedAt:    car.UpdatedAt,
	}
}

func CarToDetailResponse(car *entity.Car, avg float64, count int64) CarDetailResponse {
	return CarDetailResponse{
		CarResponse: CarToResponse(car),
		Rating:      RatingStats{Average: avg, Count: count},
	}
}

func CarToSummary(car *entity.Car) CarSummary {
	return CarSummary{
		ID:           car.ID.String(),
		Brand:        car.Brand,
		Model:        car.Model,
		LicensePlate: car.LicensePlate,
		PricePerDay:  car.PricePerDay,
	}
}
