package repository_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"car-rental/internal/data/entity"
	"car-rental/internal/data/repository"
	"car-rental/migrations"
	"car-rental/pkg/database"
	"car-rental/pkg/utils"
	"car-rental/testutil"
)

// TestMain migrates the test database once for the whole package.
func TestMain(m *testing.M) {
	if testutil.DSN() == "" {
		os.Exit(m.Run())
	}

	db := testutil.MustOpenSQLDB(testutil.DSN())
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		log.Fatalf("TestMain: create goose provider: %v", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		log.Fatalf("TestMain: run migrations: %v", err)
	}
	db.Close()

	os.Exit(m.Run())
}

var today = time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newRepo(t *testing.T) *repository.Repository {
	t.Helper()
	pool := testutil.NewPool(t)
	testutil.Truncate(t, pool, "feedbacks", "payments", "bookings", "cars", "sessions", "users")

	run := database.NewRunner(utils.DatabaseConfig{QueryTimeout: 5 * time.Second, RetryAttempts: 1}, zap.NewNop())
	return repository.NewRepository(database.NewDB(pool), run, zap.NewNop())
}

func seedUser(t *testing.T, repo *repository.Repository) *entity.User {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.New()
	user := &entity.User{
		Base:         entity.Base{ID: id, CreatedAt: now, UpdatedAt: now},
		Username:     "user-" + id.String()[:8],
		Email:        id.String()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         entity.RoleCustomer,
		IsActive:     true,
	}
	require.NoError(t, repo.User.Create(context.Background(), user))
	return user
}

func seedCar(t *testing.T, repo *repository.Repository, status entity.CarStatus) *entity.Car {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.New()
	car := &entity.Car{
		Base:         entity.Base{ID: id, CreatedAt: now, UpdatedAt: now},
		Brand:        "Toyota",
		Model:        "Corolla",
		Year:         2022,
		Type:         entity.CarTypeSedan,
		LicensePlate: "B-" + id.String()[:6],
		Status:       status,
		PricePerDay:  50,
	}
	require.NoError(t, repo.Car.Create(context.Background(), car))
	return car
}

func newBooking(userID, carID uuid.UUID, start, end string) *entity.Booking {
	now := time.Now().UTC()
	return &entity.Booking{
		BaseNoDelete:  entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:        userID,
		CarID:         carID,
		StartDate:     day(start),
		EndDate:       day(end),
		TotalPrice:    50 * day(end).Sub(day(start)).Hours() / 24,
		PaymentStatus: entity.PaymentStatusPending,
	}
}

func carStatus(t *testing.T, repo *repository.Repository, id uuid.UUID) entity.CarStatus {
	t.Helper()
	car, err := repo.Car.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, car)
	return car.Status
}
