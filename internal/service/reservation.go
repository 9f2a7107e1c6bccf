package service

import (
	"context"
	"fmt"
	"time"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/lock"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"
	"vacation-rental-backend/internal/utils"

	"github.com/shopspring/decimal"
)

type reservationService struct {
	uow          repository.UnitOfWork
	reservations repository.ReservationRepository
	apartments   repository.ApartmentRepository
	locks        *lock.KeyedMutex
}

// NewReservationService shares locks with the payment service so total
// changes and payment changes on one reservation never interleave.
func NewReservationService(
	uow repository.UnitOfWork,
	reservations repository.ReservationRepository,
	apartments repository.ApartmentRepository,
	locks *lock.KeyedMutex,
) ReservationService {
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}
	return &reservationService{
		uow:          uow,
		reservations: reservations,
		apartments:   apartments,
		locks:        locks,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, in ReservationInput) (*domain.Reservation, error) {
	logger.EnterMethod("reservationService.CreateReservation", "apartmentID", in.ApartmentID, "checkIn", in.CheckInDate)

	in.normalize()
	r, err := s.buildReservation(in)
	if err != nil {
		logger.ExitMethodWithError("reservationService.CreateReservation", err)
		return nil, err
	}

	if _, err := s.apartments.GetByID(ctx, in.ApartmentID); err != nil {
		err = persistenceError(fmt.Sprintf("get apartment %d", in.ApartmentID), err)
		logger.ExitMethodWithError("reservationService.CreateReservation", err)
		return nil, err
	}

	overlap, err := s.reservations.HasOverlap(ctx, r.ApartmentID, r.CheckInDate, r.CheckOutDate, 0)
	if err != nil {
		err = persistenceError("check overlap", err)
		logger.ExitMethodWithError("reservationService.CreateReservation", err)
		return nil, err
	}
	if overlap {
		err = fmt.Errorf("%w: apartment %d is already booked between %s and %s",
			ErrConflict, r.ApartmentID, in.CheckInDate, in.CheckOutDate)
		logger.ExitMethodWithError("reservationService.CreateReservation", err)
		return nil, err
	}

	if err := s.reservations.Create(ctx, r); err != nil {
		err = persistenceError("create reservation", err)
		logger.ExitMethodWithError("reservationService.CreateReservation", err)
		return nil, err
	}

	logger.ExitMethod("reservationService.CreateReservation", "reservationID", r.ID, "total", r.TotalAmount.String())
	return r, nil
}

func (s *reservationService) buildReservation(in ReservationInput) (*domain.Reservation, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	checkIn, checkOut, nights, err := parseStay(in.CheckInDate, in.CheckOutDate)
	if err != nil {
		return nil, err
	}

	charges := utils.ReservationCharges{
		PricePerNight: in.PricePerNight,
		CleaningFee:   in.CleaningFee,
		OtherExpenses: in.OtherExpenses,
		Taxes:         in.Taxes,
		ParkingFee:    in.ParkingFee,
	}
	status := in.Status
	if status == "" {
		status = domain.ReservationStatusConfirmed
	}

	total := utils.CalculateReservationTotal(nights, charges)
	return &domain.Reservation{
		ApartmentID:   in.ApartmentID,
		ClientID:      in.ClientID,
		ClientName:    in.ClientName,
		ClientEmail:   in.ClientEmail,
		ClientPhone:   in.ClientPhone,
		CheckInDate:   checkIn,
		CheckOutDate:  checkOut,
		Nights:        nights,
		PricePerNight: charges.PricePerNight,
		CleaningFee:   charges.CleaningFee,
		OtherExpenses: charges.OtherExpenses,
		Taxes:         charges.Taxes,
		ParkingFee:    charges.ParkingFee,
		TotalAmount:   total,
		AmountPaid:    decimal.Zero,
		AmountDue:     total,
		Status:        status,
		PaymentStatus: domain.PaymentStatusPending,
		Notes:         in.Notes,
	}, nil
}

func (s *reservationService) GetReservation(ctx context.Context, id int32) (*domain.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError(fmt.Sprintf("get reservation %d", id), err)
	}
	return r, nil
}

func (s *reservationService) GetReservationView(ctx context.Context, id int32) (*domain.ReservationView, error) {
	v, err := s.reservations.GetView(ctx, id)
	if err != nil {
		return nil, persistenceError(fmt.Sprintf("get reservation %d", id), err)
	}
	return v, nil
}

func (s *reservationService) ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, validationError("invalid status %q", filter.Status)
	}
	list, total, err := s.reservations.List(ctx, filter)
	if err != nil {
		return nil, 0, persistenceError("list reservations", err)
	}
	return list, total, nil
}

func (s *reservationService) UpdateReservation(ctx context.Context, id int32, patch ReservationPatch) (*domain.Reservation, error) {
	logger.EnterMethod("reservationService.UpdateReservation", "reservationID", id)

	patch.normalize()
	if err := validateStruct(patch); err != nil {
		logger.ExitMethodWithError("reservationService.UpdateReservation", err, "reservationID", id)
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var updated *domain.Reservation
	err := s.uow.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		r, err := repos.Reservations.GetByIDForUpdate(ctx, id)
		if err != nil {
			return persistenceError(fmt.Sprintf("get reservation %d", id), err)
		}

		totalChanged, err := applyReservationPatch(r, patch)
		if err != nil {
			return err
		}

		if patch.CheckInDate != nil || patch.CheckOutDate != nil {
			overlap, err := repos.Reservations.HasOverlap(ctx, r.ApartmentID, r.CheckInDate, r.CheckOutDate, r.ID)
			if err != nil {
				return persistenceError("check overlap", err)
			}
			if overlap {
				return fmt.Errorf("%w: apartment %d is already booked for the new dates", ErrConflict, r.ApartmentID)
			}
		}

		if err := repos.Reservations.Update(ctx, r); err != nil {
			return persistenceError("update reservation", err)
		}

		if totalChanged {
			r, err = onPaymentMutated(ctx, repos, id)
			if err != nil {
				return err
			}
		}
		updated = r
		return nil
	})
	if err != nil {
		err = persistenceError("update reservation", err)
		logger.ExitMethodWithError("reservationService.UpdateReservation", err, "reservationID", id)
		return nil, err
	}

	logger.ExitMethod("reservationService.UpdateReservation", "reservationID", id)
	return updated, nil
}

func (s *reservationService) DeleteReservation(ctx context.Context, id int32) error {
	logger.EnterMethod("reservationService.DeleteReservation", "reservationID", id)

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.reservations.Delete(ctx, id); err != nil {
		err = persistenceError(fmt.Sprintf("delete reservation %d", id), err)
		logger.ExitMethodWithError("reservationService.DeleteReservation", err, "reservationID", id)
		return err
	}

	logger.ExitMethod("reservationService.DeleteReservation", "reservationID", id)
	return nil
}

// applyReservationPatch mutates r and reports whether the total was set
// explicitly. Date changes recompute nights only. The patch has already
// passed validateStruct.
func applyReservationPatch(r *domain.Reservation, patch ReservationPatch) (bool, error) {
	if patch.ClientName != nil {
		r.ClientName = *patch.ClientName
	}
	if patch.ClientEmail != nil {
		r.ClientEmail = *patch.ClientEmail
	}
	if patch.ClientPhone != nil {
		r.ClientPhone = *patch.ClientPhone
	}

	if patch.CheckInDate != nil || patch.CheckOutDate != nil {
		checkIn := r.CheckInDate.Format(domain.DateLayout)
		checkOut := r.CheckOutDate.Format(domain.DateLayout)
		if patch.CheckInDate != nil {
			checkIn = *patch.CheckInDate
		}
		if patch.CheckOutDate != nil {
			checkOut = *patch.CheckOutDate
		}
		in, out, nights, err := parseStay(checkIn, checkOut)
		if err != nil {
			return false, err
		}
		r.CheckInDate, r.CheckOutDate, r.Nights = in, out, nights
	}

	for _, f := range []struct {
		value *decimal.Decimal
		dst   *decimal.Decimal
	}{
		{patch.PricePerNight, &r.PricePerNight},
		{patch.CleaningFee, &r.CleaningFee},
		{patch.OtherExpenses, &r.OtherExpenses},
		{patch.Taxes, &r.Taxes},
		{patch.ParkingFee, &r.ParkingFee},
	} {
		if f.value != nil {
			*f.dst = *f.value
		}
	}

	if patch.Status != nil {
		next := *patch.Status
		if next.Rank() < r.Status.Rank() {
			return false, validationError("status cannot move from %s back to %s", r.Status, next)
		}
		r.Status = next
	}
	if patch.Notes != nil {
		r.Notes = *patch.Notes
	}

	if patch.TotalAmount != nil {
		r.TotalAmount = *patch.TotalAmount
		return true, nil
	}
	return false, nil
}

func parseStay(checkInStr, checkOutStr string) (time.Time, time.Time, int32, error) {
	checkIn, err := utils.ParseCalendarDate(checkInStr)
	if err != nil {
		return time.Time{}, time.Time{}, 0, validationError("check-in date: %v", err)
	}
	checkOut, err := utils.ParseCalendarDate(checkOutStr)
	if err != nil {
		return time.Time{}, time.Time{}, 0, validationError("check-out date: %v", err)
	}
	nights, err := utils.CalculateNights(checkIn, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, 0, validationError("%v", err)
	}
	return checkIn, checkOut, nights, nil
}
