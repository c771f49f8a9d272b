package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"car-rental/internal/data/entity"
	"car-rental/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindValidSession(ctx context.Context, token string) (*entity.Session, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error
	CleanExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

type sessionRepository struct {
	db  database.PgxIface
	run *database.Runner
	log *zap.Logger
}

func NewSessionRepository(db database.PgxIface, run *database.Runner, log *zap.Logger) SessionRepository {
	return &sessionRepository{
		db:  db,
		run: run,
		log: log.With(zap.String("repository", "session")),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token, user_agent, ip_address, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	err := r.run.Run(ctx, "create session", func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, query,
			session.ID,
			session.UserID,
			session.Token,
			session.UserAgent,
			session.IPAddress,
			session.ExpiresAt,
			session.CreatedAt,
		)
		return err
	})
	if err != nil {
		r.log.Error("Failed to create session",
			zap.Error(err),
			zap.String("user_id", session.UserID.String()),
		)
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// FindValidSession returns nil when the token is unknown, revoked or expired.
func (r *sessionRepository) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	tokenID, err := uuid.Parse(token)
	if err != nil {
		return nil, nil
	}

	query := `
		SELECT id, user_id, token, user_agent, ip_address, expires_at, revoked_at, created_at
		FROM sessions
		WHERE token = $1
		  AND revoked_at IS NULL
		  AND expires_at > NOW()
	`

	var session entity.Session
	err = r.run.Run(ctx, "find session", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, tokenID).Scan(
			&session.ID,
			&session.UserID,
			&session.Token,
			&session.UserAgent,
			&session.IPAddress,
			&session.ExpiresAt,
			&session.RevokedAt,
			&session.CreatedAt,
		)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find valid session", zap.Error(err))
		return nil, fmt.Errorf("find session: %w", err)
	}

	return &session, nil
}

// Revoke is idempotent: revoking an already revoked session is not an error.
func (r *sessionRepository) Revoke(ctx context.Context, token string) error {
	tokenID, err := uuid.Parse(token)
	if err != nil {
		return nil
	}

	err = r.run.Run(ctx, "revoke session", func(ctx context.Context) error {
		_, err := r.db.Exec(ctx,
			`UPDATE sessions SET revoked_at = NOW() WHERE token = $1 AND revoked_at IS NULL`, tokenID)
		return err
	})
	if err != nil {
		r.log.Error("Failed to revoke session", zap.Error(err))
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (r *sessionRepository) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	err := r.run.Run(ctx, "revoke user sessions", func(ctx context.Context) error {
		_, err := r.db.Exec(ctx,
			`UPDATE sessions SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`, userID)
		return err
	})
	if err != nil {
		r.log.Error("Failed to revoke all user sessions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return fmt.Errorf("revoke sessions: %w", err)
	}

	return nil
}

// CleanExpiredSessions deletes sessions that expired before the cutoff.
func (r *sessionRepository) CleanExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := r.run.Run(ctx, "clean sessions", func(ctx context.Context) error {
		tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		r.log.Error("Failed to clean expired sessions", zap.Error(err))
		return 0, fmt.Errorf("clean sessions: %w", err)
	}

	return deleted, nil
}
