package service

import (
	"context"
	"strings"
	"time"

	"vacation-rental-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// PaymentInput describes a new payment. ReservationID is only read by
// CreatePayment; RegisterPayment takes the reservation id separately.
type PaymentInput struct {
	ReservationID int32                `json:"reservation_id" validate:"gt=0"`
	Amount        decimal.Decimal      `json:"amount" validate:"positive,money"`
	PaymentMethod domain.PaymentMethod `json:"payment_method" validate:"required,oneof=cash transfer card"`
	PaymentDate   *time.Time           `json:"payment_date,omitempty"`
	Reference     string               `json:"payment_reference" validate:"max=255"`
	Notes         string               `json:"notes"`
}

// PaymentPatch holds the fields of a payment that may change. Nil means keep.
type PaymentPatch struct {
	Amount        *decimal.Decimal      `json:"amount,omitempty" validate:"omitnil,positive,money"`
	PaymentMethod *domain.PaymentMethod `json:"payment_method,omitempty" validate:"omitnil,oneof=cash transfer card"`
	PaymentDate   *time.Time            `json:"payment_date,omitempty"`
	Reference     *string               `json:"payment_reference,omitempty" validate:"omitnil,max=255"`
	Notes         *string               `json:"notes,omitempty"`
}

type ReservationInput struct {
	ApartmentID   int32                    `json:"apartment_id" validate:"gt=0"`
	ClientID      *int32                   `json:"client_id,omitempty" validate:"omitnil,gt=0"`
	ClientName    string                   `json:"client_name" validate:"required,max=200"`
	ClientEmail   string                   `json:"client_email" validate:"omitempty,email,max=255"`
	ClientPhone   string                   `json:"client_phone" validate:"max=50"`
	CheckInDate   string                   `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate  string                   `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	PricePerNight decimal.Decimal          `json:"price_per_night" validate:"positive,money"`
	CleaningFee   decimal.Decimal          `json:"cleaning_fee" validate:"money"`
	OtherExpenses decimal.Decimal          `json:"other_expenses" validate:"money"`
	Taxes         decimal.Decimal          `json:"taxes" validate:"money"`
	ParkingFee    decimal.Decimal          `json:"parking_fee" validate:"money"`
	Status        domain.ReservationStatus `json:"status" validate:"omitempty,oneof=pending confirmed"`
	Notes         string                   `json:"notes"`
}

func (in *ReservationInput) normalize() {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientEmail = strings.TrimSpace(in.ClientEmail)
	in.ClientPhone = strings.TrimSpace(in.ClientPhone)
}

type ReservationPatch struct {
	ClientName    *string                   `json:"client_name,omitempty" validate:"omitnil,min=1,max=200"`
	ClientEmail   *string                   `json:"client_email,omitempty" validate:"omitempty,email,max=255"`
	ClientPhone   *string                   `json:"client_phone,omitempty" validate:"omitnil,max=50"`
	CheckInDate   *string                   `json:"check_in_date,omitempty" validate:"omitnil,datetime=2006-01-02"`
	CheckOutDate  *string                   `json:"check_out_date,omitempty" validate:"omitnil,datetime=2006-01-02"`
	PricePerNight *decimal.Decimal          `json:"price_per_night,omitempty" validate:"omitnil,positive,money"`
	CleaningFee   *decimal.Decimal          `json:"cleaning_fee,omitempty" validate:"omitnil,money"`
	OtherExpenses *decimal.Decimal          `json:"other_expenses,omitempty" validate:"omitnil,money"`
	Taxes         *decimal.Decimal          `json:"taxes,omitempty" validate:"omitnil,money"`
	ParkingFee    *decimal.Decimal          `json:"parking_fee,omitempty" validate:"omitnil,money"`
	TotalAmount   *decimal.Decimal          `json:"total_amount,omitempty" validate:"omitnil,money"`
	Status        *domain.ReservationStatus `json:"status,omitempty" validate:"omitnil,oneof=pending confirmed checked_in checked_out"`
	Notes         *string                   `json:"notes,omitempty"`
}

func (p *ReservationPatch) normalize() {
	p.ClientName = trimmed(p.ClientName)
	p.ClientEmail = trimmed(p.ClientEmail)
	p.ClientPhone = trimmed(p.ClientPhone)
}

type PaymentService interface {
	RegisterPayment(ctx context.Context, reservationID int32, in PaymentInput) (*domain.Reservation, error)
	CreatePayment(ctx context.Context, in PaymentInput) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, paymentID int32, patch PaymentPatch) (*domain.Payment, error)
	DeletePayment(ctx context.Context, paymentID int32) error
	RecalculateReservationPayments(ctx context.Context, reservationID int32) (*domain.Reservation, error)
	ListPayments(ctx context.Context, reservationID int32) ([]domain.Payment, error)
}

type ReservationService interface {
	CreateReservation(ctx context.Context, in ReservationInput) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id int32) (*domain.Reservation, error)
	GetReservationView(ctx context.Context, id int32) (*domain.ReservationView, error)
	ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, int32, error)
	UpdateReservation(ctx context.Context, id int32, patch ReservationPatch) (*domain.Reservation, error)
	DeleteReservation(ctx context.Context, id int32) error
}

// Notifier delivers client-facing messages about reservation changes.
type Notifier interface {
	SendPaymentNotification(ctx context.Context, view *domain.ReservationView, amount decimal.Decimal, isComplete bool) error
	SendStatusChangeNotification(ctx context.Context, view *domain.ReservationView, previous domain.ReservationStatus) error
}

type EmailService interface {
	Notifier
	SendDailyReport(ctx context.Context, day time.Time, workbook []byte, arrivals, departures int) error
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}

// Invoice is a rendered invoice document.
type Invoice struct {
	ReservationID int32  `json:"reservation_id"`
	Number        string `json:"number"`
	StorageKey    string `json:"storage_key"`
	DownloadURL   string `json:"download_url"`
	Content       []byte `json:"-"`
}

type InvoiceService interface {
	GenerateInvoicePDF(ctx context.Context, reservationID int32) (*Invoice, error)
}

// Movements lists the arrivals and departures of one day.
type Movements struct {
	Day        time.Time
	Arrivals   []domain.ReservationView
	Departures []domain.ReservationView
	Workbook   []byte
}

type ReportService interface {
	ExportPayments(ctx context.Context, from, to time.Time) ([]byte, error)
	ExportMovements(ctx context.Context, day time.Time) (*Movements, error)
}

type ApartmentService interface {
	AddApartment(ctx context.Context, a *domain.Apartment) error
	GetApartment(ctx context.Context, id int32) (*domain.Apartment, error)
	ListApartments(ctx context.Context) ([]domain.Apartment, error)
}

type UserService interface {
	GetUserProfile(ctx context.Context, userID int32) (*domain.User, error)
}

type NotificationService interface {
	ListReservationNotifications(ctx context.Context, reservationID int32) ([]domain.Notification, error)
}
