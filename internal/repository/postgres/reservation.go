package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"

	"github.com/lib/pq"
)

const reservationColumns = `r.id, r.apartment_id, r.client_id, r.client_name, r.client_email, r.client_phone,
	r.check_in_date, r.check_out_date, r.nights, r.price_per_night, r.cleaning_fee, r.other_expenses,
	r.taxes, r.parking_fee, r.total_amount, r.amount_paid, r.amount_due, r.status, r.payment_status,
	COALESCE(r.notes, ''), r.created_at, r.updated_at`

const viewColumns = reservationColumns + `, COALESCE(a.name, ''), COALESCE(a.type, ''), COALESCE(a.address, '')`

type reservationRepository struct {
	db dbtx
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return newReservationRepository(db)
}

func newReservationRepository(db dbtx) *reservationRepository {
	return &reservationRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func reservationFields(r *domain.Reservation) []any {
	return []any{&r.ID, &r.ApartmentID, &r.ClientID, &r.ClientName, &r.ClientEmail, &r.ClientPhone,
		&r.CheckInDate, &r.CheckOutDate, &r.Nights, &r.PricePerNight, &r.CleaningFee, &r.OtherExpenses,
		&r.Taxes, &r.ParkingFee, &r.TotalAmount, &r.AmountPaid, &r.AmountDue, &r.Status, &r.PaymentStatus,
		&r.Notes, &r.CreatedAt, &r.UpdatedAt}
}

func scanReservation(row scanner) (*domain.Reservation, error) {
	r := &domain.Reservation{}
	if err := row.Scan(reservationFields(r)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func scanReservationView(row scanner) (*domain.ReservationView, error) {
	v := &domain.ReservationView{}
	dest := append(reservationFields(&v.Reservation), &v.ApartmentName, &v.ApartmentType, &v.ApartmentAddress)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *reservationRepository) Create(ctx context.Context, rt *domain.Reservation) error {
	query := `INSERT INTO reservations (apartment_id, client_id, client_name, client_email, client_phone,
	              check_in_date, check_out_date, nights, price_per_night, cleaning_fee, other_expenses, taxes,
	              parking_fee, total_amount, amount_paid, amount_due, status, payment_status, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20)
	          RETURNING id`
	logger.DatabaseCall("INSERT", "reservations", "apartmentID", rt.ApartmentID)

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		rt.ApartmentID, rt.ClientID, rt.ClientName, rt.ClientEmail, rt.ClientPhone,
		rt.CheckInDate, rt.CheckOutDate, rt.Nights, rt.PricePerNight, rt.CleaningFee, rt.OtherExpenses, rt.Taxes,
		rt.ParkingFee, rt.TotalAmount, rt.AmountPaid, rt.AmountDue, rt.Status, rt.PaymentStatus, rt.Notes, now,
	).Scan(&rt.ID)
	logger.DatabaseResult("INSERT", 1, err, "reservationID", rt.ID)
	if err != nil {
		return mapOverlap(err)
	}
	rt.CreatedAt = now
	rt.UpdatedAt = now
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = $1`
	return scanReservation(r.db.QueryRowContext(ctx, query, id))
}

func (r *reservationRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = $1 FOR UPDATE`
	return scanReservation(r.db.QueryRowContext(ctx, query, id))
}

func (r *reservationRepository) GetView(ctx context.Context, id int32) (*domain.ReservationView, error) {
	query := `SELECT ` + viewColumns + `
	          FROM reservations r LEFT JOIN apartments a ON a.id = r.apartment_id
	          WHERE r.id = $1`
	return scanReservationView(r.db.QueryRowContext(ctx, query, id))
}

func (r *reservationRepository) Update(ctx context.Context, rt *domain.Reservation) error {
	query := `UPDATE reservations SET apartment_id=$1, client_id=$2, client_name=$3, client_email=$4, client_phone=$5,
	              check_in_date=$6, check_out_date=$7, nights=$8, price_per_night=$9, cleaning_fee=$10,
	              other_expenses=$11, taxes=$12, parking_fee=$13, total_amount=$14, status=$15, notes=$16, updated_at=$17
	          WHERE id=$18`
	logger.DatabaseCall("UPDATE", "reservations", "reservationID", rt.ID)

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		rt.ApartmentID, rt.ClientID, rt.ClientName, rt.ClientEmail, rt.ClientPhone,
		rt.CheckInDate, rt.CheckOutDate, rt.Nights, rt.PricePerNight, rt.CleaningFee,
		rt.OtherExpenses, rt.Taxes, rt.ParkingFee, rt.TotalAmount, rt.Status, rt.Notes, now, rt.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "reservationID", rt.ID)
		return mapOverlap(err)
	}
	if err := rowsAffectedOrNotFound(result); err != nil {
		return err
	}
	rt.UpdatedAt = now
	return nil
}

func (r *reservationRepository) UpdatePaymentSummary(ctx context.Context, id int32, s domain.PaymentSummary) error {
	query := `UPDATE reservations SET amount_paid=$1, amount_due=$2, payment_status=$3, updated_at=$4 WHERE id=$5`
	logger.DatabaseCall("UPDATE", "reservations.payment_summary", "reservationID", id)

	result, err := r.db.ExecContext(ctx, query, s.AmountPaid, s.AmountDue, s.PaymentStatus, time.Now(), id)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "reservationID", id)
		return err
	}
	return rowsAffectedOrNotFound(result)
}

func (r *reservationRepository) TransitionStatus(ctx context.Context, id int32, from, to domain.ReservationStatus) (bool, error) {
	query := `UPDATE reservations SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`
	logger.DatabaseCall("UPDATE", "reservations.status", "reservationID", id, "from", from, "to", to)

	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "reservationID", id)
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	logger.DatabaseResult("UPDATE", rows, nil, "reservationID", id)
	return rows == 1, nil
}

func (r *reservationRepository) ListForStatusUpdate(ctx context.Context) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r
	          WHERE r.status = ANY($1) ORDER BY r.id`
	statuses := []string{string(domain.ReservationStatusConfirmed), string(domain.ReservationStatusCheckedIn)}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		rt, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}

func (r *reservationRepository) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if f.ApartmentID != 0 {
		args = append(args, f.ApartmentID)
		where = append(where, fmt.Sprintf("r.apartment_id = $%d", len(args)))
	}

	base := ` FROM reservations r`
	if len(where) > 0 {
		base += " WHERE " + strings.Join(where, " AND ")
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*)"+base, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	page, pageSize := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	query := "SELECT " + reservationColumns + base +
		fmt.Sprintf(" ORDER BY r.check_in_date DESC, r.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		rt, err := scanReservation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rt)
	}
	return out, count, rows.Err()
}

func (r *reservationRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.ReservationView, error) {
	query := `SELECT ` + viewColumns + `
	          FROM reservations r LEFT JOIN apartments a ON a.id = r.apartment_id
	          WHERE (r.check_in_date BETWEEN $1 AND $2) OR (r.check_out_date BETWEEN $1 AND $2)
	          ORDER BY r.check_in_date, r.id`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReservationView
	for rows.Next() {
		v, err := scanReservationView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// HasOverlap reports whether another stay on the same unit intersects
// [checkIn, checkOut). Check-out day may equal the next check-in day.
func (r *reservationRepository) HasOverlap(ctx context.Context, apartmentID int32, checkIn, checkOut time.Time, excludeID int32) (bool, error) {
	query := `SELECT EXISTS (
	              SELECT 1 FROM reservations
	              WHERE apartment_id = $1 AND id <> $2
	                AND check_in_date < $4 AND check_out_date > $3
	          )`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, apartmentID, excludeID, checkIn, checkOut).Scan(&exists)
	return exists, err
}

func (r *reservationRepository) Delete(ctx context.Context, id int32) error {
	logger.DatabaseCall("DELETE", "reservations", "reservationID", id)
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(result)
}
