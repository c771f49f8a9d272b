package repository

import (
	"context"
	"errors"
	"fmt"

	"car-rental/internal/data/entity"
	"car-rental/pkg/apperror"
	"car-rental/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *entity.Feedback) error
	FindByUserAndCar(ctx context.Context, userID, carID uuid.UUID) (*entity.Feedback, error)
	FindByCarID(ctx context.Context, carID uuid.UUID, limit, offset int) ([]*entity.FeedbackWithUser, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Feedback, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// GetCarRatingStats returns the average rating and the feedback count.
	GetCarRatingStats(ctx context.Context, carID uuid.UUID) (float64, int64, error)
}

type feedbackRepository struct {
	db  database.PgxIface
	run *database.Runner
	log *zap.Logger
}

func NewFeedbackRepository(db database.PgxIface, run *database.Runner, log *zap.Logger) FeedbackRepository {
	return &feedbackRepository{
		db:  db,
		run: run,
		log: log.With(zap.String("repository", "feedback")),
	}
}

// alreadySubmitted reports a second feedback for the same (user, car) pair.
func alreadySubmitted() *apperror.Error {
	return apperror.Conflict(apperror.CodeAlreadySubmitted, "feedback for this car has already been submitted")
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *entity.Feedback) error {
	query := `
		INSERT INTO feedbacks (id, user_id, car_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	err := r.run.Run(ctx, "create feedback", func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, query,
			feedback.ID,
			feedback.UserID,
			feedback.CarID,
			feedback.Rating,
			feedback.Comment,
			feedback.CreatedAt,
		)
		return err
	})
	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return alreadySubmitted().Wrap(err)
	}
	if err != nil {
		r.log.Error("Failed to create feedback",
			zap.Error(err),
			zap.String("user_id", feedback.UserID.String()),
			zap.String("car_id", feedback.CarID.String()),
		)
		return fmt.Errorf("create feedback: %w", err)
	}

	return nil
}

func scanFeedback(row rowScanner, extra ...any) (*entity.Feedback, error) {
	var feedback entity.Feedback
	dest := append([]any{
		&feedback.ID,
		&feedback.UserID,
		&feedback.CarID,
		&feedback.Rating,
		&feedback.Comment,
		&feedback.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) FindByUserAndCar(ctx context.Context, userID, carID uuid.UUID) (*entity.Feedback, error) {
	query := `
		SELECT id, user_id, car_id, rating, comment, created_at
		FROM feedbacks
		WHERE user_id = $1 AND car_id = $2
	`

	var feedback *entity.Feedback
	err := r.run.Run(ctx, "find feedback", func(ctx context.Context) error {
		var err error
		feedback, err = scanFeedback(r.db.QueryRow(ctx, query, userID, carID))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find feedback by user and car",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("car_id", carID.String()),
		)
		return nil, fmt.Errorf("find feedback: %w", err)
	}

	return feedback, nil
}

func (r *feedbackRepository) FindByCarID(ctx context.Context, carID uuid.UUID, limit, offset int) ([]*entity.FeedbackWithUser, error) {
	query := `
		SELECT f.id, f.user_id, f.car_id, f.rating, f.comment, f.created_at, u.username
		FROM feedbacks f
		JOIN users u ON u.id = f.user_id
		WHERE f.car_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`

	var feedbacks []*entity.FeedbackWithUser
	err := r.run.Run(ctx, "find car feedbacks", func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, carID, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		feedbacks = feedbacks[:0]
		for rows.Next() {
			var username string
			feedback, err := scanFeedback(rows, &username)
			if err != nil {
				return err
			}
			feedbacks = append(feedbacks, &entity.FeedbackWithUser{Feedback: *feedback, Username: username})
		}
		return rows.Err()
	})
	if err != nil {
		r.log.Error("Failed to find feedbacks by car ID",
			zap.Error(err),
			zap.String("car_id", carID.String()),
		)
		return nil, fmt.Errorf("find feedbacks for car %s: %w", carID, err)
	}

	return feedbacks, nil
}

func (r *feedbackRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Feedback, error) {
	query := `
		SELECT id, user_id, car_id, rating, comment, created_at
		FROM feedbacks
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var feedbacks []*entity.Feedback
	err := r.run.Run(ctx, "find user feedbacks", func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, userID, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		feedbacks = feedbacks[:0]
		for rows.Next() {
			feedback, err := scanFeedback(rows)
			if err != nil {
				return err
			}
			feedbacks = append(feedbacks, feedback)
		}
		return rows.Err()
	})
	if err != nil {
		r.log.Error("Failed to find feedbacks by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find feedbacks for user %s: %w", userID, err)
	}

	return feedbacks, nil
}

func (r *feedbackRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.run.Run(ctx, "count user feedbacks", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, `SELECT COUNT(*) FROM feedbacks WHERE user_id = $1`, userID).Scan(&count)
	})
	if err != nil {
		r.log.Error("Failed to count feedbacks by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count feedbacks for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *feedbackRepository) GetCarRatingStats(ctx context.Context, carID uuid.UUID) (float64, int64, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM feedbacks
		WHERE car_id = $1
	`

	var avgRating float64
	var count int64
	err := r.run.Run(ctx, "car rating stats", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, carID).Scan(&avgRating, &count)
	})
	if err != nil {
		r.log.Error("Failed to get car rating stats",
			zap.Error(err),
			zap.String("car_id", carID.String()),
		)
		return 0, 0, fmt.Errorf("get rating stats for car %s: %w", carID, err)
	}

	return avgRating, count, nil
}
