package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationStatusPending    ReservationStatus = "pending"
	ReservationStatusConfirmed  ReservationStatus = "confirmed"
	ReservationStatusCheckedIn  ReservationStatus = "checked_in"
	ReservationStatusCheckedOut ReservationStatus = "checked_out"
)

// Rank orders the lifecycle so callers can refuse backward moves.
// Unknown statuses rank -1.
func (s ReservationStatus) Rank() int {
	switch s {
	case ReservationStatusPending:
		return 0
	case ReservationStatusConfirmed:
		return 1
	case ReservationStatusCheckedIn:
		return 2
	case ReservationStatusCheckedOut:
		return 3
	default:
		return -1
	}
}

func (s ReservationStatus) Valid() bool {
	return s.Rank() >= 0
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusComplete PaymentStatus = "complete"
)

// DateLayout is the calendar format used for check-in/check-out dates.
const DateLayout = "2006-01-02"

type Reservation struct {
	ID          int32  `json:"id"`
	ApartmentID int32  `json:"apartment_id"`
	ClientID    *int32 `json:"client_id,omitempty"`
	// Client contact snapshot, denormalized at booking time.
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone"`

	CheckInDate  time.Time `json:"check_in_date"`
	CheckOutDate time.Time `json:"check_out_date"`
	Nights       int32     `json:"nights"`

	PricePerNight decimal.Decimal `json:"price_per_night"`
	CleaningFee   decimal.Decimal `json:"cleaning_fee"`
	OtherExpenses decimal.Decimal `json:"other_expenses"`
	Taxes         decimal.Decimal `json:"taxes"`
	ParkingFee    decimal.Decimal `json:"parking_fee"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	AmountDue     decimal.Decimal `json:"amount_due"`

	Status        ReservationStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	Notes         string            `json:"notes"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ReservationView is a reservation joined with its apartment, as shown to clients
// in notifications and invoices.
type ReservationView struct {
	Reservation
	ApartmentName    string        `json:"apartment_name"`
	ApartmentType    ApartmentType `json:"apartment_type"`
	ApartmentAddress string        `json:"apartment_address"`
}

// PaymentSummary is the derived money state of a reservation.
type PaymentSummary struct {
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// SummarizePayments derives paid, due and payment status from the full payment
// history of a reservation. It never uses previously cached totals.
func SummarizePayments(total decimal.Decimal, payments []Payment) PaymentSummary {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}

	due := total.Sub(paid)
	if due.IsNegative() {
		due = decimal.Zero
	}

	status := PaymentStatusPartial
	switch {
	case paid.IsZero():
		status = PaymentStatusPending
	case due.LessThanOrEqual(decimal.Zero) && paid.IsPositive():
		status = PaymentStatusComplete
	}

	return PaymentSummary{
		AmountPaid:    paid,
		AmountDue:     due,
		PaymentStatus: status,
	}
}

// ApplySummary copies a derived summary onto the reservation.
func (r *Reservation) ApplySummary(s PaymentSummary) {
	r.AmountPaid = s.AmountPaid
	r.AmountDue = s.AmountDue
	r.PaymentStatus = s.PaymentStatus
}

// ReservationFilter narrows reservation listings. Zero values mean "any".
type ReservationFilter struct {
	Status      ReservationStatus
	ApartmentID int32
	Page        int32
	PageSize    int32
}
