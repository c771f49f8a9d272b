package entity

type CarType string

const (
	CarTypeSedan     CarType = "Sedan"
	CarTypeJeep      CarType = "Jeep"
	CarTypeSUV       CarType = "SUV"
	CarTypeHatchback CarType = "Hatchback"
	CarTypeTruck     CarType = "Truck"
	CarTypeCoupe     CarType = "Coupe"
)

type CarStatus string

const (
	CarStatusReady       CarStatus = "READY"
	CarStatusMaintenance CarStatus = "MAINTENANCE"
	CarStatusReserved    CarStatus = "RESERVED"
	CarStatusRetired     CarStatus = "RETIRED"
	CarStatusCleaning    CarStatus = "CLEANING"
)

func (s CarStatus) IsValid() bool {
	switch s {
	case CarStatusReady, CarStatusMaintenance, CarStatusReserved, CarStatusRetired, CarStatusCleaning:
		return true
	}
	return false
}

// Bookable reports whether new bookings may be placed on a car in this status.
// CLEANING is a short turnaround, so it still accepts bookings.
func (s CarStatus) Bookable() bool {
	return s != CarStatusRetired && s != CarStatusMaintenance
}

type Car struct {
	Base
	Brand        string    `db:"brand"`
	Model        string    `db:"model"`
	Year         int       `db:"year"`
	Type         CarType   `db:"type"`
	LicensePlate string    `db:"license_plate"`
	Status       CarStatus `db:"status"`
	PricePerDay  float64   `db:"price_per_day"`
	ImageURL     *string   `db:"image_url"`
	Description  *string   `db:"description"`
}

// CarFilter narrows a car listing. Zero values mean "any".
type CarFilter struct {
	Brand    string
	Type     CarType
	Status   CarStatus
	MinPrice *float64
	MaxPrice *float64
	Search   string
}
