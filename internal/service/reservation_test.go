package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/lock"
	"vacation-rental-backend/internal/repository"
)

func newReservationFixture(t *testing.T) (*memStore, *MockApartmentRepo, ReservationService) {
	t.Helper()
	store := newMemStore()
	apartments := new(MockApartmentRepo)
	svc := NewReservationService(store, store.reservationsRepo(), apartments, lock.NewKeyedMutex())
	return store, apartments, svc
}

func validReservationInput() ReservationInput {
	return ReservationInput{
		ApartmentID:   1,
		ClientName:    " Ana Lopez ",
		ClientEmail:   "ana@example.com",
		CheckInDate:   "2026-07-01",
		CheckOutDate:  "2026-07-05",
		PricePerNight: dec("120"),
		CleaningFee:   dec("50"),
		Taxes:         dec("24.80"),
	}
}

func TestCreateReservation_ComputesNightsAndTotal(t *testing.T) {
	_, apartments, svc := newReservationFixture(t)
	apartments.On("GetByID", mock.Anything, int32(1)).Return(&domain.Apartment{ID: 1, Name: "Loft"}, nil)

	r, err := svc.CreateReservation(context.Background(), validReservationInput())
	require.NoError(t, err)

	assert.NotZero(t, r.ID)
	assert.Equal(t, "Ana Lopez", r.ClientName)
	assert.Equal(t, int32(4), r.Nights)
	assert.True(t, dec("554.80").Equal(r.TotalAmount))
	assert.True(t, r.AmountPaid.IsZero())
	assert.True(t, r.TotalAmount.Equal(r.AmountDue))
	assert.Equal(t, domain.ReservationStatusConfirmed, r.Status)
	assert.Equal(t, domain.PaymentStatusPending, r.PaymentStatus)
}

func TestCreateReservation_Validation(t *testing.T) {
	_, _, svc := newReservationFixture(t)

	cases := map[string]func(in *ReservationInput){
		"no client":        func(in *ReservationInput) { in.ClientName = "" },
		"bad email":        func(in *ReservationInput) { in.ClientEmail = "not-an-email" },
		"checkout before":  func(in *ReservationInput) { in.CheckOutDate = "2026-06-30" },
		"same day":         func(in *ReservationInput) { in.CheckOutDate = in.CheckInDate },
		"bad date":         func(in *ReservationInput) { in.CheckInDate = "2026-02-30" },
		"zero price":       func(in *ReservationInput) { in.PricePerNight = decimal.Zero },
		"negative fee":     func(in *ReservationInput) { in.ParkingFee = dec("-1") },
		"checked in start": func(in *ReservationInput) { in.Status = domain.ReservationStatusCheckedIn },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validReservationInput()
			mutate(&in)
			_, err := svc.CreateReservation(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateReservation_Overlap(t *testing.T) {
	_, apartments, svc := newReservationFixture(t)
	apartments.On("GetByID", mock.Anything, int32(1)).Return(&domain.Apartment{ID: 1}, nil)

	_, err := svc.CreateReservation(context.Background(), validReservationInput())
	require.NoError(t, err)

	in := validReservationInput()
	in.CheckInDate, in.CheckOutDate = "2026-07-04", "2026-07-08"
	_, err = svc.CreateReservation(context.Background(), in)
	assert.ErrorIs(t, err, ErrConflict)

	// Back-to-back stays share the turnover day.
	in.CheckInDate, in.CheckOutDate = "2026-07-05", "2026-07-08"
	_, err = svc.CreateReservation(context.Background(), in)
	assert.NoError(t, err)
}

func TestCreateReservation_UnknownApartment(t *testing.T) {
	_, apartments, svc := newReservationFixture(t)
	apartments.On("GetByID", mock.Anything, int32(1)).Return(nil, repository.ErrNotFound)

	_, err := svc.CreateReservation(context.Background(), validReservationInput())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReservation_DatesRecomputeNightsOnly(t *testing.T) {
	store, _, svc := newReservationFixture(t)
	res := store.addReservation("1000", domain.ReservationStatusConfirmed)

	out := "2026-07-08"
	r, err := svc.UpdateReservation(context.Background(), res.ID, ReservationPatch{CheckOutDate: &out})
	require.NoError(t, err)
	assert.Equal(t, int32(7), r.Nights)
	assert.True(t, dec("1000").Equal(r.TotalAmount))
}

func TestUpdateReservation_TotalChangeRecomputesSummary(t *testing.T) {
	store, _, svc := newReservationFixture(t)
	res := store.addReservation("1000", domain.ReservationStatusConfirmed)

	payments := NewPaymentService(store, store.reservationsRepo(), store.paymentsRepo(), nil, nil, nil)
	in := cashPayment("600")
	in.ReservationID = res.ID
	_, err := payments.CreatePayment(context.Background(), in)
	require.NoError(t, err)

	total := dec("600")
	r, err := svc.UpdateReservation(context.Background(), res.ID, ReservationPatch{TotalAmount: &total})
	require.NoError(t, err)
	assertSummary(t, *r, "600", "0", domain.PaymentStatusComplete)
	assertSummary(t, store.reservation(res.ID), "600", "0", domain.PaymentStatusComplete)
}

func TestUpdateReservation_StatusOnlyMovesForward(t *testing.T) {
	store, _, svc := newReservationFixture(t)
	res := store.addReservation("100", domain.ReservationStatusCheckedIn)

	back := domain.ReservationStatusConfirmed
	_, err := svc.UpdateReservation(context.Background(), res.ID, ReservationPatch{Status: &back})
	assert.ErrorIs(t, err, ErrValidation)

	fwd := domain.ReservationStatusCheckedOut
	r, err := svc.UpdateReservation(context.Background(), res.ID, ReservationPatch{Status: &fwd})
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusCheckedOut, r.Status)
}

func TestUpdateReservation_NotFound(t *testing.T) {
	_, _, svc := newReservationFixture(t)
	notes := "late arrival"
	_, err := svc.UpdateReservation(context.Background(), 99999, ReservationPatch{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReservation(t *testing.T) {
	store, _, svc := newReservationFixture(t)
	res := store.addReservation("100", domain.ReservationStatusPending)

	require.NoError(t, svc.DeleteReservation(context.Background(), res.ID))
	_, err := svc.GetReservation(context.Background(), res.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteReservation(context.Background(), res.ID), ErrNotFound)
}

func TestListReservations_RejectsUnknownStatus(t *testing.T) {
	_, _, svc := newReservationFixture(t)
	_, _, err := svc.ListReservations(context.Background(), domain.ReservationFilter{Status: "cancelled"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateReservation_ChargesLimitedToCents(t *testing.T) {
	store, _, svc := newReservationFixture(t)

	cases := map[string]func(in *ReservationInput){
		"price":          func(in *ReservationInput) { in.PricePerNight = dec("33.333") },
		"cleaning fee":   func(in *ReservationInput) { in.CleaningFee = dec("10.001") },
		"other expenses": func(in *ReservationInput) { in.OtherExpenses = dec("0.005") },
		"taxes":          func(in *ReservationInput) { in.Taxes = dec("24.809") },
		"parking fee":    func(in *ReservationInput) { in.ParkingFee = dec("3.141") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validReservationInput()
			mutate(&in)
			_, err := svc.CreateReservation(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorContains(t, err, "two decimal places")
		})
	}
	assert.Equal(t, 0, store.writeCount())
}

func TestCreateReservation_TrailingZerosAreCents(t *testing.T) {
	_, apartments, svc := newReservationFixture(t)
	apartments.On("GetByID", mock.Anything, int32(1)).Return(&domain.Apartment{ID: 1}, nil)

	in := validReservationInput()
	in.PricePerNight = dec("33.330")
	in.CleaningFee, in.Taxes = decimal.Zero, decimal.Zero
	r, err := svc.CreateReservation(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, dec("133.32").Equal(r.TotalAmount))
}

func TestCreateReservation_ValidationNamesFields(t *testing.T) {
	_, _, svc := newReservationFixture(t)

	in := validReservationInput()
	in.ClientName = "   "
	in.ClientEmail = "ana@"
	in.Status = "cancelled"
	_, err := svc.CreateReservation(context.Background(), in)
	require.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "client_name is required")
	assert.ErrorContains(t, err, "client_email must be a valid email address")
	assert.ErrorContains(t, err, "status must be one of [pending confirmed]")
}

func TestCreateReservation_ConcurrentBookingRejectedByStore(t *testing.T) {
	store, apartments, svc := newReservationFixture(t)
	apartments.On("GetByID", mock.Anything, int32(1)).Return(&domain.Apartment{ID: 1}, nil)
	// Another booking won the race between the overlap check and the insert.
	store.fail("reservations.Create", fmt.Errorf("%w: exclusion constraint", repository.ErrOverlap))

	_, err := svc.CreateReservation(context.Background(), validReservationInput())
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrPersistence)
}

func TestUpdateReservation_PatchValidation(t *testing.T) {
	store, _, svc := newReservationFixture(t)
	res := store.addReservation("1000", domain.ReservationStatusConfirmed)

	blank := "  "
	badEmail := "not-an-email"
	subCentTotal := dec("100.005")
	subCentPrice := dec("33.333")
	negativeFee := dec("-5")
	unknown := domain.ReservationStatus("cancelled")
	badDate := "01/07/2026"

	cases := map[string]ReservationPatch{
		"blank client name": {ClientName: &blank},
		"bad email":         {ClientEmail: &badEmail},
		"sub-cent total":    {TotalAmount: &subCentTotal},
		"sub-cent price":    {PricePerNight: &subCentPrice},
		"negative fee":      {CleaningFee: &negativeFee},
		"unknown status":    {Status: &unknown},
		"bad date":          {CheckInDate: &badDate},
	}
	for name, patch := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateReservation(context.Background(), res.ID, patch)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.True(t, dec("1000").Equal(store.reservation(res.ID).TotalAmount))
}

func TestUpdateReservation_ClearsEmailAndTrims(t *testing.T) {
	store, _, svc := newReservationFixture(t)
	res := store.addReservation("1000", domain.ReservationStatusConfirmed)

	empty := ""
	name := "  Luis Garcia "
	r, err := svc.UpdateReservation(context.Background(), res.ID, ReservationPatch{ClientEmail: &empty, ClientName: &name})
	require.NoError(t, err)
	assert.Equal(t, "", r.ClientEmail)
	assert.Equal(t, "Luis Garcia", r.ClientName)
	assert.Equal(t, "  Luis Garcia ", name)
}

func TestUpdateReservation_OverlapFromStoreIsConflict(t *testing.T) {
	store, _, svc := newReservationFixture(t)
	res := store.addReservation("1000", domain.ReservationStatusConfirmed)
	store.fail("reservations.Update", fmt.Errorf("%w: exclusion constraint", repository.ErrOverlap))

	out := "2026-07-09"
	_, err := svc.UpdateReservation(context.Background(), res.ID, ReservationPatch{CheckOutDate: &out})
	assert.ErrorIs(t, err, ErrConflict)
}
