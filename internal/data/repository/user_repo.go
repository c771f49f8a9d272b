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

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error)
	CountAll(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db  database.PgxIface
	run *database.Runner
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, run *database.Runner, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		run: run,
		log: log.With(zap.String("repository", "user")),
	}
}

const userColumns = `id, username, email, password, phone, role, is_active, created_at, updated_at, deleted_at`

func scanUser(row rowScanner) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, username, email, password, phone, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	err := ur.run.Run(ctx, "create user", func(ctx context.Context) error {
		_, err := ur.db.Exec(ctx, query,
			user.ID,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.Phone,
			user.Role,
			user.IsActive,
			user.CreatedAt,
			user.UpdatedAt,
		)
		return err
	})
	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return apperror.Conflict(apperror.CodeDuplicate, "username or email already registered").Wrap(err)
	}
	if err != nil {
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
		)
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (ur *userRepository) findOne(ctx context.Context, op, where string, arg any) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` AND deleted_at IS NULL`

	var user *entity.User
	err := ur.run.Run(ctx, op, func(ctx context.Context) error {
		var err error
		user, err = scanUser(ur.db.QueryRow(ctx, query, arg))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return ur.findOne(ctx, "find user by id", "id = $1", id)
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return ur.findOne(ctx, "find user by email", "LOWER(email) = LOWER($1)", email)
}

func (ur *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return ur.findOne(ctx, "find user by username", "username = $1", username)
}

func (ur *userRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var users []*entity.User
	err := ur.run.Run(ctx, "find all users", func(ctx context.Context) error {
		rows, err := ur.db.Query(ctx, query, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		users = users[:0]
		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return rows.Err()
	})
	if err != nil {
		ur.log.Error("Failed to find all users",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find all users: %w", err)
	}

	return users, nil
}

func (ur *userRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := ur.run.Run(ctx, "count users", func(ctx context.Context) error {
		return ur.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&count)
	})
	if err != nil {
		ur.log.Error("Failed to count users", zap.Error(err))
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// Delete soft-deletes the user and revokes their sessions.
func (ur *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var affected int64
	err := ur.run.Run(ctx, "delete user", func(ctx context.Context) error {
		return database.InTx(ctx, ur.db, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx,
				`UPDATE users SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW()
				 WHERE id = $1 AND deleted_at IS NULL`, id)
			if err != nil {
				return err
			}
			affected = tag.RowsAffected()
			_, err = tx.Exec(ctx,
				`UPDATE sessions SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`, id)
			return err
		})
	})
	if err != nil {
		ur.log.Error("Failed to delete user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user not found")
	}
	return nil
}
