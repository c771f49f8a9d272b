package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"car-rental/internal/data/entity"
	"car-rental/pkg/apperror"
	"car-rental/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CarRepository interface {
	Create(ctx context.Context, car *entity.Car) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Car, error)
	FindAll(ctx context.Context, filter entity.CarFilter, limit, offset int) ([]*entity.Car, error)
	CountAll(ctx context.Context, filter entity.CarFilter) (int64, error)
	Update(ctx context.Context, car *entity.Car) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.CarStatus) error
	// Delete soft-deletes a car that holds no booking ending after today.
	Delete(ctx context.Context, id uuid.UUID, today time.Time) error
}

type carRepository struct {
	db  database.PgxIface
	run *database.Runner
	log *zap.Logger
}

func NewCarRepository(db database.PgxIface, run *database.Runner, log *zap.Logger) CarRepository {
	return &carRepository{
		db:  db,
		run: run,
		log: log.With(zap.String("repository", "car")),
	}
}

const carColumns = `id, brand, model, year, type, license_plate, status, price_per_day,
	image_url, description, created_at, updated_at, deleted_at`

func scanCar(row rowScanner) (*entity.Car, error) {
	var car entity.Car
	err := row.Scan(
		&car.ID,
		&car.Brand,
		&car.Model,
		&car.Year,
		&car.Type,
		&car.LicensePlate,
		&car.Status,
		&car.PricePerDay,
		&car.ImageURL,
		&car.Description,
		&car.CreatedAt,
		&car.UpdatedAt,
		&car.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &car, nil
}

func duplicatePlate(err error) error {
	return apperror.Conflict(apperror.CodeDuplicate, "a car with this license plate already exists").Wrap(err)
}

func (r *carRepository) Create(ctx context.Context, car *entity.Car) error {
	query := `
		INSERT INTO cars (id, brand, model, year, type, license_plate, status, price_per_day,
		                  image_url, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	err := r.run.Run(ctx, "create car", func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, query,
			car.ID,
			car.Brand,
			car.Model,
			car.Year,
			car.Type,
			car.LicensePlate,
			car.Status,
			car.PricePerDay,
			car.ImageURL,
			car.Description,
			car.CreatedAt,
			car.UpdatedAt,
		)
		return err
	})
	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return duplicatePlate(err)
	}
	if err != nil {
		r.log.Error("Failed to create car",
			zap.Error(err),
			zap.String("license_plate", car.LicensePlate),
		)
		return fmt.Errorf("create car: %w", err)
	}

	return nil
}

func (r *carRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1 AND deleted_at IS NULL`

	var car *entity.Car
	err := r.run.Run(ctx, "find car", func(ctx context.Context) error {
		var err error
		car, err = scanCar(r.db.QueryRow(ctx, query, id))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find car by ID",
			zap.Error(err),
			zap.String("car_id", id.String()),
		)
		return nil, fmt.Errorf("find car %s: %w", id, err)
	}

	return car, nil
}

// buildCarFilter renders the WHERE clause shared by FindAll and CountAll.
func buildCarFilter(filter entity.CarFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(" WHERE deleted_at IS NULL")

	args := []any{}
	add := func(clause string, arg any) {
		args = append(args, arg)
		sb.WriteString(fmt.Sprintf(" AND "+clause, len(args)))
	}

	if filter.Brand != "" {
		add("LOWER(brand) = LOWER($%d)", filter.Brand)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.MinPrice != nil {
		add("price_per_day >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("price_per_day <= $%d", *filter.MaxPrice)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		sb.WriteString(fmt.Sprintf(" AND (brand ILIKE $%d OR model ILIKE $%d OR license_plate ILIKE $%d)", n, n, n))
	}

	return sb.String(), args
}

func (r *carRepository) FindAll(ctx context.Context, filter entity.CarFilter, limit, offset int) ([]*entity.Car, error) {
	where, args := buildCarFilter(filter)
	query := `SELECT ` + carColumns + ` FROM cars` + where +
		fmt.Sprintf(" ORDER BY brand, model, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var cars []*entity.Car
	err := r.run.Run(ctx, "find cars", func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		cars = cars[:0]
		for rows.Next() {
			car, err := scanCar(rows)
			if err != nil {
				return err
			}
			cars = append(cars, car)
		}
		return rows.Err()
	})
	if err != nil {
		r.log.Error("Failed to find cars",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find cars: %w", err)
	}

	return cars, nil
}

func (r *carRepository) CountAll(ctx context.Context, filter entity.CarFilter) (int64, error) {
	where, args := buildCarFilter(filter)

	var count int64
	err := r.run.Run(ctx, "count cars", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cars`+where, args...).Scan(&count)
	})
	if err != nil {
		r.log.Error("Failed to count cars", zap.Error(err))
		return 0, fmt.Errorf("count cars: %w", err)
	}
	return count, nil
}

func (r *carRepository) Update(ctx context.Context, car *entity.Car) error {
	query := `
		UPDATE cars
		SET brand = $2, model = $3, year = $4, type = $5, license_plate = $6,
		    price_per_day = $7, image_url = $8, description = $9, updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
	`

	var affected int64
	err := r.run.Run(ctx, "update car", func(ctx context.Context) error {
		tag, err := r.db.Exec(ctx, query,
			car.ID,
			car.Brand,
			car.Model,
			car.Year,
			car.Type,
			car.LicensePlate,
			car.PricePerDay,
			car.ImageURL,
			car.Description,
			car.UpdatedAt,
		)
		affected = tag.RowsAffected()
		return err
	})
	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return duplicatePlate(err)
	}
	if err != nil {
		r.log.Error("Failed to update car",
			zap.Error(err),
			zap.String("car_id", car.ID.String()),
		)
		return fmt.Errorf("update car %s: %w", car.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("car not found")
	}

	return nil
}

func (r *carRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.CarStatus) error {
	var affected int64
	err := r.run.Run(ctx, "update car status", func(ctx context.Context) error {
		tag, err := r.db.Exec(ctx,
			`UPDATE cars SET status = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
			id, status)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		r.log.Error("Failed to update car status",
			zap.Error(err),
			zap.String("car_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update car status %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("car not found")
	}
	return nil
}

func (r *carRepository) Delete(ctx context.Context, id uuid.UUID, today time.Time) error {
	err := r.run.Run(ctx, "delete car", func(ctx context.Context) error {
		return database.InTx(ctx, r.db, func(tx pgx.Tx) error {
			if _, err := lockCar(ctx, tx, id); err != nil {
				return err
			}

			var active bool
			err := tx.QueryRow(ctx, `
				SELECT EXISTS (
					SELECT 1 FROM bookings
					WHERE car_id = $1 AND payment_status <> 'CANCELLED' AND end_date > $2
				)`, id, today).Scan(&active)
			if err != nil {
				return err
			}
			if active {
				return apperror.Conflict(apperror.CodeCarUnavailable, "car has active or upcoming bookings")
			}

			_, err = tx.Exec(ctx,
				`UPDATE cars SET deleted_at = NOW(), status = 'RETIRED', updated_at = NOW() WHERE id = $1`, id)
			return err
		})
	})
	if err != nil {
		if _, ok := apperror.As(err); !ok {
			r.log.Error("Failed to delete car",
				zap.Error(err),
				zap.String("car_id", id.String()),
			)
		}
		return fmt.Errorf("delete car %s: %w", id, err)
	}
	return nil
}

// lockCar takes a row lock on a live car for the rest of the transaction.
func lockCar(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*entity.Car, error) {
	car, err := scanCar(tx.QueryRow(ctx,
		`SELECT `+carColumns+` FROM cars WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("car not found")
	}
	return car, err
}
