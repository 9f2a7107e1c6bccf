package jobs

import (
	"context"
	"fmt"

	"vacation-rental-backend/internal/clock"
	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"
	"vacation-rental-backend/internal/service"
)

// Transition is one status change applied by a sweep
type Transition struct {
	ReservationID  int32                    `json:"reservation_id"`
	PreviousStatus domain.ReservationStatus `json:"previous_status"`
	NewStatus      domain.ReservationStatus `json:"new_status"`
	Notified       bool                     `json:"notified"`
	NotifyError    string                   `json:"notify_error,omitempty"`
}

// SweepResult summarizes one run of the status sweep
type SweepResult struct {
	Updated     int          `json:"updated"`
	Message     string       `json:"message"`
	Transitions []Transition `json:"transitions"`
}

// StatusSweeper moves reservations through check-in and check-out on their
// calendar dates.
type StatusSweeper struct {
	reservations repository.ReservationRepository
	notifier     service.Notifier
	clock        clock.Clock
}

// NewStatusSweeper expects clk to report time in the business timezone;
// "today" is the calendar date of clk.Now().
func NewStatusSweeper(reservations repository.ReservationRepository, notifier service.Notifier, clk clock.Clock) *StatusSweeper {
	if clk == nil {
		clk = clock.System(nil)
	}
	return &StatusSweeper{
		reservations: reservations,
		notifier:     notifier,
		clock:        clk,
	}
}

// NextStatus returns the status r should move to on today (YYYY-MM-DD).
// Only confirmed reservations check in and only checked-in ones check out,
// each on the exact date.
func NextStatus(r domain.Reservation, today string) (domain.ReservationStatus, bool) {
	switch r.Status {
	case domain.ReservationStatusConfirmed:
		if clock.DateOf(r.CheckInDate) == today {
			return domain.ReservationStatusCheckedIn, true
		}
	case domain.ReservationStatusCheckedIn:
		if clock.DateOf(r.CheckOutDate) == today {
			return domain.ReservationStatusCheckedOut, true
		}
	}
	return "", false
}

// Sweep applies today's transitions. A failed notification never undoes or
// stops a transition; a failed status write skips that reservation only.
func (s *StatusSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	log := logger.WithJob("reservation-status")
	today := clock.DateOf(s.clock.Now())

	candidates, err := s.reservations.ListForStatusUpdate(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("%w: list reservations for status update: %w", service.ErrPersistence, err)
	}

	result := SweepResult{Transitions: []Transition{}}
	failed := 0
	for _, r := range candidates {
		next, ok := NextStatus(r, today)
		if !ok {
			continue
		}

		applied, err := s.reservations.TransitionStatus(ctx, r.ID, r.Status, next)
		if err != nil {
			failed++
			log.Error("Failed to update reservation status", "reservationID", r.ID, "from", r.Status, "to", next, "error", err)
			continue
		}
		if !applied {
			log.Debug("Reservation status already changed", "reservationID", r.ID, "expected", r.Status)
			continue
		}

		t := Transition{ReservationID: r.ID, PreviousStatus: r.Status, NewStatus: next}
		if err := s.notify(ctx, r.ID, r.Status); err != nil {
			t.NotifyError = err.Error()
			log.Error("Failed to send status change notification", "reservationID", r.ID, "error", err)
		} else {
			t.Notified = true
		}

		log.Info("Reservation status updated", "reservationID", r.ID, "from", r.Status, "to", next)
		result.Transitions = append(result.Transitions, t)
	}

	result.Updated = len(result.Transitions)
	result.Message = fmt.Sprintf("%d reservation(s) updated for %s", result.Updated, today)
	if failed > 0 {
		result.Message += fmt.Sprintf(", %d failed", failed)
	}
	return result, nil
}

func (s *StatusSweeper) notify(ctx context.Context, reservationID int32, previous domain.ReservationStatus) error {
	if s.notifier == nil {
		return nil
	}
	view, err := s.reservations.GetView(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("%w: load reservation: %w", service.ErrNotification, err)
	}
	if err := s.notifier.SendStatusChangeNotification(ctx, view, previous); err != nil {
		return fmt.Errorf("%w: %w", service.ErrNotification, err)
	}
	return nil
}
