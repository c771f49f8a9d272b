package request

type CreateFeedbackRequest struct {
	UserID  string  `json:"user_id,omitempty" validate:"omitempty,uuid"`
	CarID   string  `json:"car_id" validate:"required,uuid"`
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}
