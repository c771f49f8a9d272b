package entity

import (
	"github.com/google/uuid"
)

type Feedback struct {
	BaseSimple
	UserID  uuid.UUID `db:"user_id"`
	CarID   uuid.UUID `db:"car_id"`
	Rating  int       `db:"rating"` // 1-5
	Comment *string   `db:"comment"`
}

// FeedbackWithUser is a feedback row joined with its author's username.
type FeedbackWithUser struct {
	Feedback
	Username string `db:"username"`
}
