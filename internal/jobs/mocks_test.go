package jobs

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/service"
)

// MockReservationRepo
type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReservationRepo) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) GetView(ctx context.Context, id int32) (*domain.ReservationView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationView), args.Error(1)
}
func (m *MockReservationRepo) Update(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReservationRepo) UpdatePaymentSummary(ctx context.Context, id int32, s domain.PaymentSummary) error {
	args := m.Called(ctx, id, s)
	return args.Error(0)
}
func (m *MockReservationRepo) TransitionStatus(ctx context.Context, id int32, from, to domain.ReservationStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}
func (m *MockReservationRepo) ListForStatusUpdate(ctx context.Context) ([]domain.Reservation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Reservation), args.Get(1).(int32), args.Error(2)
}
func (m *MockReservationRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.ReservationView, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.ReservationView), args.Error(1)
}
func (m *MockReservationRepo) HasOverlap(ctx context.Context, apartmentID int32, checkIn, checkOut time.Time, excludeID int32) (bool, error) {
	args := m.Called(ctx, apartmentID, checkIn, checkOut, excludeID)
	return args.Bool(0), args.Error(1)
}
func (m *MockReservationRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPaymentNotification(ctx context.Context, view *domain.ReservationView, amount decimal.Decimal, isComplete bool) error {
	args := m.Called(ctx, view, amount, isComplete)
	return args.Error(0)
}
func (m *MockNotifier) SendStatusChangeNotification(ctx context.Context, view *domain.ReservationView, previous domain.ReservationStatus) error {
	args := m.Called(ctx, view, previous)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	MockNotifier
}

func (m *MockEmailService) SendDailyReport(ctx context.Context, day time.Time, workbook []byte, arrivals, departures int) error {
	args := m.Called(ctx, day, workbook, arrivals, departures)
	return args.Error(0)
}

// MockReportService
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) ExportPayments(ctx context.Context, from, to time.Time) ([]byte, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockReportService) ExportMovements(ctx context.Context, day time.Time) (*service.Movements, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Movements), args.Error(1)
}
