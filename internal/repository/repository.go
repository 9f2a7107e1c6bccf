package repository

import (
	"context"
	"errors"
	"time"

	"vacation-rental-backend/internal/domain"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("record not found")

// ErrOverlap is returned when a write would double-book an apartment.
var ErrOverlap = errors.New("reservation dates overlap")

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id int32) (*domain.Reservation, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Reservation, error)
	GetView(ctx context.Context, id int32) (*domain.ReservationView, error)
	Update(ctx context.Context, r *domain.Reservation) error
	UpdatePaymentSummary(ctx context.Context, id int32, summary domain.PaymentSummary) error
	// TransitionStatus moves a reservation from one status to another and reports
	// false when the row was no longer in the expected status.
	TransitionStatus(ctx context.Context, id int32, from, to domain.ReservationStatus) (bool, error)
	ListForStatusUpdate(ctx context.Context) ([]domain.Reservation, error)
	List(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, int32, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.ReservationView, error)
	HasOverlap(ctx context.Context, apartmentID int32, checkIn, checkOut time.Time, excludeID int32) (bool, error)
	Delete(ctx context.Context, id int32) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int32) (*domain.Payment, error)
	Update(ctx context.Context, p *domain.Payment) error
	Delete(ctx context.Context, id int32) error
	ListByReservation(ctx context.Context, reservationID int32) ([]domain.Payment, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error)
}

type ApartmentRepository interface {
	Create(ctx context.Context, a *domain.Apartment) error
	GetByID(ctx context.Context, id int32) (*domain.Apartment, error)
	List(ctx context.Context) ([]domain.Apartment, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByReservation(ctx context.Context, reservationID int32) ([]domain.Notification, error)
}

// Repositories is the set of repositories bound to one transaction.
type Repositories struct {
	Reservations ReservationRepository
	Payments     PaymentRepository
}

// UnitOfWork runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
