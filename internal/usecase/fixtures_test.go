package usecase_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"car-rental/internal/data/entity"
	"car-rental/internal/data/repository"
	"car-rental/internal/usecase"
	"car-rental/pkg/utils"
)

// now is the pinned wall clock for every service under test.
var now = time.Date(2025, 9, 20, 10, 30, 0, 0, time.UTC)

func fixedClock() usecase.Clock {
	return func() time.Time { return now }
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func customerCtx(id uuid.UUID) context.Context {
	return utils.SetUserContext(context.Background(), id, utils.RoleCustomer)
}

func adminCtx() context.Context {
	return utils.SetUserContext(context.Background(), uuid.New(), utils.RoleAdmin)
}

func ptr[T any](v T) *T {
	return &v
}

func carFixture(pricePerDay float64) *entity.Car {
	return &entity.Car{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Brand:        "Toyota",
		Model:        "Corolla",
		Year:         2022,
		Type:         entity.CarTypeSedan,
		LicensePlate: "B 1234 XYZ",
		Status:       entity.CarStatusReady,
		PricePerDay:  pricePerDay,
	}
}

func bookingFixture(userID uuid.UUID, car *entity.Car, start, end string, status entity.PaymentStatus) *entity.Booking {
	b := &entity.Booking{
		BaseNoDelete:  entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:        userID,
		CarID:         car.ID,
		StartDate:     date(start),
		EndDate:       date(end),
		PaymentStatus: status,
	}
	b.TotalPrice = float64(usecase.RentalDays(b.StartDate, b.EndDate)) * car.PricePerDay
	return b
}

func userFixture(id uuid.UUID) *entity.User {
	return &entity.User{
		Base:     entity.Base{ID: id, CreatedAt: now, UpdatedAt: now},
		Username: "rina",
		Email:    "rina@example.com",
		Phone:    ptr("+6281234567890"),
		Role:     entity.RoleCustomer,
		IsActive: true,
	}
}

// mocks bundles the doubles behind one repository.Repository.
type mocks struct {
	user     *mockUserRepo
	session  *mockSessionRepo
	car      *mockCarRepo
	booking  *mockBookingRepo
	payment  *mockPaymentRepo
	feedback *mockFeedbackRepo
}

func newMocks() *mocks {
	return &mocks{
		user:     &mockUserRepo{},
		session:  &mockSessionRepo{},
		car:      &mockCarRepo{},
		booking:  &mockBookingRepo{},
		payment:  &mockPaymentRepo{findByBookingID: func(context.Context, uuid.UUID) (*entity.Payment, error) { return nil, nil }},
		feedback: &mockFeedbackRepo{},
	}
}

func (m *mocks) repo() *repository.Repository {
	return &repository.Repository{
		User:     m.user,
		Session:  m.session,
		Car:      m.car,
		Booking:  m.booking,
		Payment:  m.payment,
		Feedback: m.feedback,
	}
}

// withCars serves FindByID from the given cars.
func (m *mocks) withCars(cars ...*entity.Car) *mocks {
	m.car.findByID = func(_ context.Context, id uuid.UUID) (*entity.Car, error) {
		for _, c := range cars {
			if c.ID == id {
				copied := *c
				return &copied, nil
			}
		}
		return nil, nil
	}
	return m
}

// withBookings serves FindByID from the given bookings.
func (m *mocks) withBookings(bookings ...*entity.Booking) *mocks {
	m.booking.findByID = func(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
		for _, b := range bookings {
			if b.ID == id {
				copied := *b
				return &copied, nil
			}
		}
		return nil, nil
	}
	return m
}

func (m *mocks) withUsers(users ...*entity.User) *mocks {
	m.user.findByID = func(_ context.Context, id uuid.UUID) (*entity.User, error) {
		for _, u := range users {
			if u.ID == id {
				return u, nil
			}
		}
		return nil, nil
	}
	return m
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
