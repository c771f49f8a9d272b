package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"car-rental/internal/data/entity"
	"car-rental/internal/data/repository"
	"car-rental/internal/usecase"
	"car-rental/pkg/notify"
	"car-rental/pkg/payment"
)

// Hand-written test doubles. Each method is a function field; set only the
// ones a test needs. An unexpected call panics on the nil field.

type mockUserRepo struct {
	create         func(ctx context.Context, user *entity.User) error
	findByID       func(ctx context.Context, id uuid.UUID) (*entity.User, error)
	findByEmail    func(ctx context.Context, email string) (*entity.User, error)
	findByUsername func(ctx context.Context, username string) (*entity.User, error)
	findAll        func(ctx context.Context, limit, offset int) ([]*entity.User, error)
	countAll       func(ctx context.Context) (int64, error)
	delete         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return m.create(ctx, user)
}
func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return m.findByID(ctx, id)
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return m.findByEmail(ctx, email)
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return m.findByUsername(ctx, username)
}
func (m *mockUserRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	return m.findAll(ctx, limit, offset)
}
func (m *mockUserRepo) CountAll(ctx context.Context) (int64, error) {
	return m.countAll(ctx)
}
func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

type mockSessionRepo struct {
	create                func(ctx context.Context, session *entity.Session) error
	findValidSession      func(ctx context.Context, token string) (*entity.Session, error)
	revoke                func(ctx context.Context, token string) error
	revokeAllUserSessions func(ctx context.Context, userID uuid.UUID) error
	cleanExpiredSessions  func(ctx context.Context, before time.Time) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	return m.create(ctx, session)
}
func (m *mockSessionRepo) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	return m.findValidSession(ctx, token)
}
func (m *mockSessionRepo) Revoke(ctx context.Context, token string) error {
	return m.revoke(ctx, token)
}
func (m *mockSessionRepo) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	return m.revokeAllUserSessions(ctx, userID)
}
func (m *mockSessionRepo) CleanExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return m.cleanExpiredSessions(ctx, before)
}

var _ repository.SessionRepository = (*mockSessionRepo)(nil)

type mockCarRepo struct {
	create       func(ctx context.Context, car *entity.Car) error
	findByID     func(ctx context.Context, id uuid.UUID) (*entity.Car, error)
	findAll      func(ctx context.Context, filter entity.CarFilter, limit, offset int) ([]*entity.Car, error)
	countAll     func(ctx context.Context, filter entity.CarFilter) (int64, error)
	update       func(ctx context.Context, car *entity.Car) error
	updateStatus func(ctx context.Context, id uuid.UUID, status entity.CarStatus) error
	delete       func(ctx context.Context, id uuid.UUID, today time.Time) error
}

func (m *mockCarRepo) Create(ctx context.Context, car *entity.Car) error {
	return m.create(ctx, car)
}
func (m *mockCarRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Car, error) {
	return m.findByID(ctx, id)
}
func (m *mockCarRepo) FindAll(ctx context.Context, filter entity.CarFilter, limit, offset int) ([]*entity.Car, error) {
	return m.findAll(ctx, filter, limit, offset)
}
func (m *mockCarRepo) CountAll(ctx context.Context, filter entity.CarFilter) (int64, error) {
	return m.countAll(ctx, filter)
}
func (m *mockCarRepo) Update(ctx context.Context, car *entity.Car) error {
	return m.update(ctx, car)
}
func (m *mockCarRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.CarStatus) error {
	return m.updateStatus(ctx, id, status)
}
func (m *mockCarRepo) Delete(ctx context.Context, id uuid.UUID, today time.Time) error {
	return m.delete(ctx, id, today)
}

var _ repository.CarRepository = (*mockCarRepo)(nil)

type mockBookingRepo struct {
	create              func(ctx context.Context, booking *entity.Booking) error
	findByID            func(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	findAll             func(ctx context.Context, filter entity.BookingFilter, limit, offset int) ([]*entity.Booking, error)
	count               func(ctx context.Context, filter entity.BookingFilter) (int64, error)
	findByUserID        func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	findByCarID         func(ctx context.Context, carID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	update              func(ctx context.Context, booking, previous *entity.Booking, today time.Time) error
	updateStatus        func(ctx context.Context, id uuid.UUID, from, to entity.PaymentStatus, today time.Time) error
	delete              func(ctx context.Context, id uuid.UUID, today time.Time) error
	hasStartedBooking   func(ctx context.Context, userID, carID uuid.UUID, asOf time.Time) (bool, error)
	releaseFinished     func(ctx context.Context, today time.Time) (int64, error)
	cancelUnpaidStarted func(ctx context.Context, today time.Time) (int64, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	return m.create(ctx, booking)
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return m.findByID(ctx, id)
}
func (m *mockBookingRepo) FindAll(ctx context.Context, filter entity.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	return m.findAll(ctx, filter, limit, offset)
}
func (m *mockBookingRepo) Count(ctx context.Context, filter entity.BookingFilter) (int64, error) {
	return m.count(ctx, filter)
}
func (m *mockBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return m.findByUserID(ctx, userID, limit, offset)
}
func (m *mockBookingRepo) FindByCarID(ctx context.Context, carID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return m.findByCarID(ctx, carID, limit, offset)
}
func (m *mockBookingRepo) Update(ctx context.Context, booking, previous *entity.Booking, today time.Time) error {
	return m.update(ctx, booking, previous, today)
}
func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.PaymentStatus, today time.Time) error {
	return m.updateStatus(ctx, id, from, to, today)
}
func (m *mockBookingRepo) Delete(ctx context.Context, id uuid.UUID, today time.Time) error {
	return m.delete(ctx, id, today)
}
func (m *mockBookingRepo) HasStartedBooking(ctx context.Context, userID, carID uuid.UUID, asOf time.Time) (bool, error) {
	return m.hasStartedBooking(ctx, userID, carID, asOf)
}
func (m *mockBookingRepo) ReleaseFinished(ctx context.Context, today time.Time) (int64, error) {
	return m.releaseFinished(ctx, today)
}
func (m *mockBookingRepo) CancelUnpaidStarted(ctx context.Context, today time.Time) (int64, error) {
	return m.cancelUnpaidStarted(ctx, today)
}

var _ repository.BookingRepository = (*mockBookingRepo)(nil)

type mockPaymentRepo struct {
	record          func(ctx context.Context, payment *entity.Payment, settle bool) error
	findByBookingID func(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
}

func (m *mockPaymentRepo) Record(ctx context.Context, p *entity.Payment, settle bool) error {
	return m.record(ctx, p, settle)
}
func (m *mockPaymentRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	return m.findByBookingID(ctx, bookingID)
}

var _ repository.PaymentRepository = (*mockPaymentRepo)(nil)

type mockFeedbackRepo struct {
	create            func(ctx context.Context, feedback *entity.Feedback) error
	findByUserAndCar  func(ctx context.Context, userID, carID uuid.UUID) (*entity.Feedback, error)
	findByCarID       func(ctx context.Context, carID uuid.UUID, limit, offset int) ([]*entity.FeedbackWithUser, error)
	findByUserID      func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Feedback, error)
	countByUserID     func(ctx context.Context, userID uuid.UUID) (int64, error)
	getCarRatingStats func(ctx context.Context, carID uuid.UUID) (float64, int64, error)
}

func (m *mockFeedbackRepo) Create(ctx context.Context, feedback *entity.Feedback) error {
	return m.create(ctx, feedback)
}
func (m *mockFeedbackRepo) FindByUserAndCar(ctx context.Context, userID, carID uuid.UUID) (*entity.Feedback, error) {
	return m.findByUserAndCar(ctx, userID, carID)
}
func (m *mockFeedbackRepo) FindByCarID(ctx context.Context, carID uuid.UUID, limit, offset int) ([]*entity.FeedbackWithUser, error) {
	return m.findByCarID(ctx, carID, limit, offset)
}
func (m *mockFeedbackRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Feedback, error) {
	return m.findByUserID(ctx, userID, limit, offset)
}
func (m *mockFeedbackRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.countByUserID(ctx, userID)
}
func (m *mockFeedbackRepo) GetCarRatingStats(ctx context.Context, carID uuid.UUID) (float64, int64, error) {
	return m.getCarRatingStats(ctx, carID)
}

var _ repository.FeedbackRepository = (*mockFeedbackRepo)(nil)

type mockGateway struct {
	charge func(ctx context.Context, req payment.ChargeRequest) (string, error)
	refund func(ctx context.Context, transactionID string) error
}

func (m *mockGateway) Charge(ctx context.Context, req payment.ChargeRequest) (string, error) {
	return m.charge(ctx, req)
}
func (m *mockGateway) Refund(ctx context.Context, transactionID string) error {
	return m.refund(ctx, transactionID)
}

var _ payment.Gateway = (*mockGateway)(nil)

// recordingDispatcher keeps every message instead of sending it.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (d *recordingDispatcher) Send(msg notify.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
}

func (d *recordingDispatcher) messages() []notify.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Message(nil), d.sent...)
}

var _ usecase.Dispatcher = (*recordingDispatcher)(nil)
