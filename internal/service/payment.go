package service

import (
	"context"
	"errors"
	"fmt"

	"vacation-rental-backend/internal/clock"
	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/lock"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// paymentService keeps each reservation's paid/due/status consistent with its
// payment rows. Every mutation of a reservation's payments runs under that
// reservation's key in locks and inside one transaction holding the
// reservation row lock.
type paymentService struct {
	uow          repository.UnitOfWork
	reservations repository.ReservationRepository
	payments     repository.PaymentRepository
	notifier     Notifier
	clock        clock.Clock
	locks        *lock.KeyedMutex
}

func NewPaymentService(
	uow repository.UnitOfWork,
	reservations repository.ReservationRepository,
	payments repository.PaymentRepository,
	notifier Notifier,
	clk clock.Clock,
	locks *lock.KeyedMutex,
) PaymentService {
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}
	if clk == nil {
		clk = clock.System(nil)
	}
	return &paymentService{
		uow:          uow,
		reservations: reservations,
		payments:     payments,
		notifier:     notifier,
		clock:        clk,
		locks:        locks,
	}
}

func (s *paymentService) RegisterPayment(ctx context.Context, reservationID int32, in PaymentInput) (*domain.Reservation, error) {
	logger.EnterMethod("paymentService.RegisterPayment", "reservationID", reservationID, "amount", in.Amount.String())

	in.ReservationID = reservationID
	if err := validatePaymentInput(in); err != nil {
		logger.ExitMethodWithError("paymentService.RegisterPayment", err, "reservationID", reservationID)
		return nil, err
	}

	_, updated, err := s.insertPayment(ctx, in)
	if err != nil {
		logger.ExitMethodWithError("paymentService.RegisterPayment", err, "reservationID", reservationID)
		return nil, err
	}

	s.notifyPayment(ctx, reservationID, in.Amount, updated.AmountDue.IsZero())

	logger.ExitMethod("paymentService.RegisterPayment", "reservationID", reservationID, "paymentStatus", updated.PaymentStatus)
	return updated, nil
}

func (s *paymentService) CreatePayment(ctx context.Context, in PaymentInput) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.CreatePayment", "reservationID", in.ReservationID, "amount", in.Amount.String())

	if err := validatePaymentInput(in); err != nil {
		logger.ExitMethodWithError("paymentService.CreatePayment", err, "reservationID", in.ReservationID)
		return nil, err
	}

	payment, _, err := s.insertPayment(ctx, in)
	if err != nil {
		logger.ExitMethodWithError("paymentService.CreatePayment", err, "reservationID", in.ReservationID)
		return nil, err
	}

	logger.ExitMethod("paymentService.CreatePayment", "paymentID", payment.ID)
	return payment, nil
}

func (s *paymentService) insertPayment(ctx context.Context, in PaymentInput) (*domain.Payment, *domain.Reservation, error) {
	unlock := s.locks.Lock(in.ReservationID)
	defer unlock()

	payment := &domain.Payment{
		ReservationID: in.ReservationID,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Reference:     in.Reference,
		Notes:         in.Notes,
	}
	if in.PaymentDate != nil {
		payment.PaymentDate = *in.PaymentDate
	} else {
		payment.PaymentDate = s.clock.Now()
	}

	var updated *domain.Reservation
	err := s.uow.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Reservations.GetByIDForUpdate(ctx, in.ReservationID); err != nil {
			return persistenceError(fmt.Sprintf("lock reservation %d", in.ReservationID), err)
		}
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return persistenceError("create payment", err)
		}
		r, err := onPaymentMutated(ctx, repos, in.ReservationID)
		if err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, nil, persistenceError("register payment", err)
	}
	return payment, updated, nil
}

func (s *paymentService) UpdatePayment(ctx context.Context, paymentID int32, patch PaymentPatch) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.UpdatePayment", "paymentID", paymentID)

	if err := validatePaymentPatch(paymentID, patch); err != nil {
		logger.ExitMethodWithError("paymentService.UpdatePayment", err, "paymentID", paymentID)
		return nil, err
	}

	existing, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		err = persistenceError(fmt.Sprintf("get payment %d", paymentID), err)
		logger.ExitMethodWithError("paymentService.UpdatePayment", err, "paymentID", paymentID)
		return nil, err
	}

	unlock := s.locks.Lock(existing.ReservationID)
	defer unlock()

	var updated *domain.Payment
	err = s.uow.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Reservations.GetByIDForUpdate(ctx, existing.ReservationID); err != nil {
			return persistenceError("lock reservation", err)
		}
		p, err := repos.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return persistenceError("reload payment", err)
		}
		applyPaymentPatch(p, patch)
		if err := repos.Payments.Update(ctx, p); err != nil {
			return persistenceError("update payment", err)
		}
		if _, err := onPaymentMutated(ctx, repos, p.ReservationID); err != nil {
			return err
		}
		updated, err = repos.Payments.GetByID(ctx, paymentID)
		return persistenceError("reload payment", err)
	})
	if err != nil {
		err = persistenceError("update payment", err)
		logger.ExitMethodWithError("paymentService.UpdatePayment", err, "paymentID", paymentID)
		return nil, err
	}

	logger.ExitMethod("paymentService.UpdatePayment", "paymentID", paymentID)
	return updated, nil
}

func (s *paymentService) DeletePayment(ctx context.Context, paymentID int32) error {
	logger.EnterMethod("paymentService.DeletePayment", "paymentID", paymentID)

	if err := validateID("payment id", paymentID); err != nil {
		logger.ExitMethodWithError("paymentService.DeletePayment", err, "paymentID", paymentID)
		return err
	}

	// The reservation id must be captured before the row disappears.
	existing, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		err = persistenceError(fmt.Sprintf("get payment %d", paymentID), err)
		logger.ExitMethodWithError("paymentService.DeletePayment", err, "paymentID", paymentID)
		return err
	}
	reservationID := existing.ReservationID

	unlock := s.locks.Lock(reservationID)
	defer unlock()

	err = s.uow.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Reservations.GetByIDForUpdate(ctx, reservationID); err != nil {
			return persistenceError("lock reservation", err)
		}
		if err := repos.Payments.Delete(ctx, paymentID); err != nil {
			return persistenceError("delete payment", err)
		}
		_, err := onPaymentMutated(ctx, repos, reservationID)
		return err
	})
	if err != nil {
		err = persistenceError("delete payment", err)
		logger.ExitMethodWithError("paymentService.DeletePayment", err, "paymentID", paymentID)
		return err
	}

	logger.ExitMethod("paymentService.DeletePayment", "paymentID", paymentID, "reservationID", reservationID)
	return nil
}

// RecalculateReservationPayments recomputes the summary from the stored
// payments. A missing reservation is a no-op and yields (nil, nil).
func (s *paymentService) RecalculateReservationPayments(ctx context.Context, reservationID int32) (*domain.Reservation, error) {
	logger.EnterMethod("paymentService.RecalculateReservationPayments", "reservationID", reservationID)

	if err := validateID("reservation id", reservationID); err != nil {
		logger.ExitMethodWithError("paymentService.RecalculateReservationPayments", err, "reservationID", reservationID)
		return nil, err
	}

	unlock := s.locks.Lock(reservationID)
	defer unlock()

	var updated *domain.Reservation
	err := s.uow.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		r, err := onPaymentMutated(ctx, repos, reservationID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		updated = r
		return err
	})
	if err != nil {
		err = persistenceError("recalculate payments", err)
		logger.ExitMethodWithError("paymentService.RecalculateReservationPayments", err, "reservationID", reservationID)
		return nil, err
	}

	if updated == nil {
		logger.Warn("Recalculation skipped, reservation not found", "reservationID", reservationID)
	}
	logger.ExitMethod("paymentService.RecalculateReservationPayments", "reservationID", reservationID)
	return updated, nil
}

func (s *paymentService) ListPayments(ctx context.Context, reservationID int32) ([]domain.Payment, error) {
	if err := validateID("reservation id", reservationID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, persistenceError("list payments", err)
	}
	return payments, nil
}

// onPaymentMutated is the single recompute hook run after any change to a
// reservation's payments or total. It must be called inside the transaction that made
// the change.
func onPaymentMutated(ctx context.Context, repos repository.Repositories, reservationID int32) (*domain.Reservation, error) {
	r, err := repos.Reservations.GetByIDForUpdate(ctx, reservationID)
	if err != nil {
		return nil, persistenceError(fmt.Sprintf("load reservation %d", reservationID), err)
	}
	payments, err := repos.Payments.ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, persistenceError("list payments", err)
	}

	summary := domain.SummarizePayments(r.TotalAmount, payments)
	if err := repos.Reservations.UpdatePaymentSummary(ctx, reservationID, summary); err != nil {
		return nil, persistenceError("persist payment summary", err)
	}
	r.ApplySummary(summary)

	logger.WithReservation(reservationID).Debug("Payment summary recomputed",
		"payments", len(payments),
		"amountPaid", summary.AmountPaid.String(),
		"amountDue", summary.AmountDue.String(),
		"paymentStatus", summary.PaymentStatus)
	return r, nil
}

// notifyPayment runs after commit. Failures are logged and never undo the
// registered payment. The caller's cancellation is dropped because the
// payment it reports is already committed.
func (s *paymentService) notifyPayment(ctx context.Context, reservationID int32, amount decimal.Decimal, isComplete bool) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := logger.WithReservation(reservationID)

	view, err := s.reservations.GetView(ctx, reservationID)
	if err != nil {
		log.Error("Failed to load reservation for payment notification", "error", fmt.Errorf("%w: %w", ErrNotification, err))
		return
	}
	if err := s.notifier.SendPaymentNotification(ctx, view, amount, isComplete); err != nil {
		log.Error("Failed to send payment notification", "error", fmt.Errorf("%w: %w", ErrNotification, err))
	}
}

func validatePaymentInput(in PaymentInput) error {
	return validateStruct(in)
}

func validatePaymentPatch(paymentID int32, patch PaymentPatch) error {
	if err := validateID("payment id", paymentID); err != nil {
		return err
	}
	if err := validateStruct(patch); err != nil {
		return err
	}
	if patch.PaymentDate != nil && patch.PaymentDate.IsZero() {
		return validationError("payment date must not be empty")
	}
	return nil
}

func applyPaymentPatch(p *domain.Payment, patch PaymentPatch) {
	if patch.Amount != nil {
		p.Amount = *patch.Amount
	}
	if patch.PaymentMethod != nil {
		p.PaymentMethod = *patch.PaymentMethod
	}
	if patch.PaymentDate != nil {
		p.PaymentDate = *patch.PaymentDate
	}
	if patch.Reference != nil {
		p.Reference = *patch.Reference
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
}
