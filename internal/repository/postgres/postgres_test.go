package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/repository"
)

var reservationColumnNames = []string{"id", "apartment_id", "client_id", "client_name", "client_email", "client_phone",
	"check_in_date", "check_out_date", "nights", "price_per_night", "cleaning_fee", "other_expenses",
	"taxes", "parking_fee", "total_amount", "amount_paid", "amount_due", "status", "payment_status",
	"notes", "created_at", "updated_at"}

func reservationRowValues(id int64, status string) []driver.Value {
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return []driver.Value{id, int64(1), nil, "Ana Lopez", "ana@example.com", "+34 600 000 000",
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC), int64(4),
		"220.00", "60.00", "0.00", "20.00", "0.00", "1000.00", "300.00", "700.00", status, "partial",
		"", created, created}
}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestWithTx_Commit(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM reservations r WHERE r.id = \$1 FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(reservationColumnNames).AddRow(reservationRowValues(7, "confirmed")...))
	mock.ExpectExec(`UPDATE reservations SET amount_paid=\$1`).
		WithArgs(decimal.RequireFromString("1000"), decimal.Zero, domain.PaymentStatusComplete, sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		r, err := repos.Reservations.GetByIDForUpdate(ctx, 7)
		if err != nil {
			return err
		}
		return repos.Reservations.UpdatePaymentSummary(ctx, r.ID, domain.PaymentSummary{
			AmountPaid:    decimal.RequireFromString("1000"),
			AmountDue:     decimal.Zero,
			PaymentStatus: domain.PaymentStatusComplete,
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	store, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM reservation_payments`).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Payments.Delete(ctx, 3); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFailure(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := store.WithTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "begin transaction")
	assert.False(t, called)
}

func TestWithTx_CommitFailure(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := store.WithTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error { return nil })
	assert.ErrorContains(t, err, "commit transaction")
}
