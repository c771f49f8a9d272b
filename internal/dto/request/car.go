package request

type CreateCarRequest struct {
	Brand        string  `json:"brand" validate:"required,max=100"`
	Model        string  `json:"model" validate:"required,max=100"`
	Year         int     `json:"year" validate:"required,min=1900,max=2100"`
	Type         string  `json:"type" validate:"required,oneof=Sedan Jeep SUV Hatchback Truck Coupe"`
	LicensePlate string  `json:"license_plate" validate:"required,max=20"`
	Status       string  `json:"status,omitempty" validate:"omitempty,oneof=READY MAINTENANCE RESERVED RETIRED CLEANING"`
	PricePerDay  float64 `json:"price_per_day" validate:"required,gt=0"`
	ImageURL     *string `json:"image_url,omitempty" validate:"omitempty,url"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type UpdateCarRequest struct {
	Brand        *string  `json:"brand,omitempty" validate:"omitempty,max=100"`
	Model        *string  `json:"model,omitempty" validate:"omitempty,max=100"`
	Year         *int     `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	Type         *string  `json:"type,omitempty" validate:"omitempty,oneof=Sedan Jeep SUV Hatchback Truck Coupe"`
	LicensePlate *string  `json:"license_plate,omitempty" validate:"omitempty,max=20"`
	PricePerDay  *float64 `json:"price_per_day,omitempty" validate:"omitempty,gt=0"`
	ImageURL     *string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type UpdateCarStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=READY MAINTENANCE RESERVED RETIRED CLEANING"`
}

type ListCarsRequest struct {
	PaginatedRequest
	Brand    string
	Type     string   `validate:"omitempty,oneof=Sedan Jeep SUV Hatchback Truck Coupe"`
	Status   string   `validate:"omitempty,oneof=READY MAINTENANCE RESERVED RETIRED CLEANING"`
	MinPrice *float64 `validate:"omitempty,gte=0"`
	MaxPrice *float64 `validate:"omitempty,gte=0"`
	Search   string   `validate:"omitempty,max=100"`
}
