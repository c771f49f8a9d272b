package response

import (
	"time"

	"car-rental/internal/data/entity"
)

type FeedbackResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	CarID     string    `json:"car_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CarFeedbackResponse struct {
	Stats     RatingStats                          `json:"stats"`
	Feedbacks *PaginatedResponse[FeedbackResponse] `json:"feedbacks"`
}

type EligibilityResponse struct {
	CarID            string `json:"car_id"`
	Eligible         bool   `json:"eligible"`
	AlreadySubmitted bool   `json:"already_submitted"`
}

func FeedbackToResponse(feedback *entity.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        feedback.ID.String(),
		UserID:    feedback.UserID.String(),
		CarID:     feedback.CarID.String(),
		Rating:    feedback.Rating,
		Comment:   feedback.Comment,
		CreatedAt: feedback.CreatedAt,
	}
}

func FeedbackWithUserToResponse(feedback *entity.FeedbackWithUser) FeedbackResponse {
	resp := FeedbackToResponse(&feedback.Feedback)
	resp.Username = feedback.Username
	return resp
}
