package http

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/jobs"
	"vacation-rental-backend/internal/service"
)

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*domain.User), args.Error(2)
}

type MockUserService struct{ mock.Mock }

func (m *MockUserService) GetUserProfile(ctx context.Context, userID int32) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockPaymentService struct{ mock.Mock }

func (m *MockPaymentService) RegisterPayment(ctx context.Context, reservationID int32, in service.PaymentInput) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockPaymentService) CreatePayment(ctx context.Context, in service.PaymentInput) (*domain.Payment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentService) UpdatePayment(ctx context.Context, paymentID int32, patch service.PaymentPatch) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentService) DeletePayment(ctx context.Context, paymentID int32) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}
func (m *MockPaymentService) RecalculateReservationPayments(ctx context.Context, reservationID int32) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockPaymentService) ListPayments(ctx context.Context, reservationID int32) ([]domain.Payment, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

type MockReservationService struct{ mock.Mock }

func (m *MockReservationService) CreateReservation(ctx context.Context, in service.ReservationInput) (*domain.Reservation, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationService) GetReservation(ctx context.Context, id int32) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationService) GetReservationView(ctx context.Context, id int32) (*domain.ReservationView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationView), args.Error(1)
}
func (m *MockReservationService) ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Reservation), args.Get(1).(int32), args.Error(2)
}
func (m *MockReservationService) UpdateReservation(ctx context.Context, id int32, patch service.ReservationPatch) (*domain.Reservation, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationService) DeleteReservation(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockInvoiceService struct{ mock.Mock }

func (m *MockInvoiceService) GenerateInvoicePDF(ctx context.Context, reservationID int32) (*service.Invoice, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Invoice), args.Error(1)
}

type MockReportService struct{ mock.Mock }

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

type MockSweeper struct{ mock.Mock }

func (m *MockSweeper) RunOnce(ctx context.Context) (jobs.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(jobs.SweepResult), args.Error(1)
}
