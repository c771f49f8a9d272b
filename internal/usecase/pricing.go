package usecase

import (
	"math"
	"time"

	"car-rental/pkg/apperror"
)

const oneDay = 24 * time.Hour

// ErrInvalidRange is returned by ComputePrice when the range holds no time.
var ErrInvalidRange = apperror.Validation(apperror.CodeInvalidRange, "end date must be after start date")

// RentalDays counts started days in [start, end). A range shorter than a day
// still counts as one.
func RentalDays(start, end time.Time) int {
	days := int(math.Ceil(float64(end.Sub(start)) / float64(oneDay)))
	if days < 1 {
		return 1
	}
	return days
}

// ComputePrice returns days x pricePerDay, rounded to cents.
func ComputePrice(pricePerDay float64, start, end time.Time) (float64, error) {
	if pricePerDay <= 0 || math.IsNaN(pricePerDay) || math.IsInf(pricePerDay, 0) {
		return 0, apperror.Validation(apperror.CodeInvalidInput, "price per day must be positive")
	}
	if !end.After(start) {
		return 0, ErrInvalidRange
	}
	return roundCents(float64(RentalDays(start, end)) * pricePerDay), nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// pricesMatch compares two amounts at cent precision.
func pricesMatch(a, b float64) bool {
	return math.Abs(a-b) <= 0.005
}
