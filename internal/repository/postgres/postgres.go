package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"

	"github.com/lib/pq"
)

// exclusion_violation, raised by reservations_no_overlap
const pqExclusionViolation = pq.ErrorCode("23P01")

// dbtx is satisfied by both *sql.DB and *sql.Tx so repositories can run inside
// or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.ReservationRepository
	repository.PaymentRepository
	repository.ApartmentRepository
	repository.UserRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		ReservationRepository:  NewReservationRepository(db),
		PaymentRepository:      NewPaymentRepository(db),
		ApartmentRepository:    NewApartmentRepository(db),
		UserRepository:         NewUserRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

// Repositories returns the non-transactional repository set.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Reservations: s.ReservationRepository,
		Payments:     s.PaymentRepository,
	}
}

// WithTx implements repository.UnitOfWork.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return fmt.Errorf("begin transaction: %w", err)
	}

	repos := repository.Repositories{
		Reservations: newReservationRepository(tx),
		Payments:     newPaymentRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit transaction", "error", err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rowsAffectedOrNotFound turns a zero-row write into repository.ErrNotFound.
func rowsAffectedOrNotFound(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// mapOverlap turns a violation of the no-overlap exclusion constraint into
// repository.ErrOverlap.
func mapOverlap(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqExclusionViolation {
		return fmt.Errorf("%w: %s", repository.ErrOverlap, pqErr.Message)
	}
	return err
}
