package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"
)

const paymentColumns = `id, reservation_id, amount, payment_date, payment_method,
	COALESCE(payment_reference, ''), COALESCE(notes, ''), created_at`

type paymentRepository struct {
	db dbtx
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return newPaymentRepository(db)
}

func newPaymentRepository(db dbtx) *paymentRepository {
	return &paymentRepository{db: db}
}

func scanPayment(row scanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := row.Scan(&p.ID, &p.ReservationID, &p.Amount, &p.PaymentDate, &p.PaymentMethod, &p.Reference, &p.Notes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO reservation_payments (reservation_id, amount, payment_date, payment_method, payment_reference, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	logger.DatabaseCall("INSERT", "reservation_payments", "reservationID", p.ReservationID, "amount", p.Amount.String())

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, p.ReservationID, p.Amount, p.PaymentDate, p.PaymentMethod, p.Reference, p.Notes, now).Scan(&p.ID)
	logger.DatabaseResult("INSERT", 1, err, "paymentID", p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = now
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM reservation_payments WHERE id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, id))
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `UPDATE reservation_payments SET amount=$1, payment_date=$2, payment_method=$3, payment_reference=$4, notes=$5
	          WHERE id=$6`
	logger.DatabaseCall("UPDATE", "reservation_payments", "paymentID", p.ID)

	result, err := r.db.ExecContext(ctx, query, p.Amount, p.PaymentDate, p.PaymentMethod, p.Reference, p.Notes, p.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "paymentID", p.ID)
		return err
	}
	return rowsAffectedOrNotFound(result)
}

func (r *paymentRepository) Delete(ctx context.Context, id int32) error {
	logger.DatabaseCall("DELETE", "reservation_payments", "paymentID", id)
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservation_payments WHERE id = $1`, id)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err, "paymentID", id)
		return err
	}
	return rowsAffectedOrNotFound(result)
}

func (r *paymentRepository) ListByReservation(ctx context.Context, reservationID int32) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM reservation_payments WHERE reservation_id = $1 ORDER BY payment_date, id`
	return r.list(ctx, query, reservationID)
}

func (r *paymentRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM reservation_payments
	          WHERE payment_date >= $1 AND payment_date < $2 ORDER BY payment_date, id`
	return r.list(ctx, query, from, to)
}

func (r *paymentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
