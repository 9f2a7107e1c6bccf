package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/repository"
)

// memStore is an in-memory unit of work. WithTx holds the store mutex for the
// whole transaction and restores a snapshot when fn fails.
type memStore struct {
	mu           sync.Mutex
	reservations map[int32]domain.Reservation
	payments     map[int32]domain.Payment
	apartments   map[int32]domain.Apartment
	nextID       int32

	// failures maps an operation name to the error it should return
	failures map[string]error
	writes   int
}

func newMemStore() *memStore {
	return &memStore{
		reservations: map[int32]domain.Reservation{},
		payments:     map[int32]domain.Payment{},
		apartments:   map[int32]domain.Apartment{1: {ID: 1, Name: "Sea View Loft", Type: domain.ApartmentTypeApartment}},
		nextID:       100,
		failures:     map[string]error{},
	}
}

func (s *memStore) addReservation(total string, status domain.ReservationStatus) domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := decimal.RequireFromString(total)
	r := domain.Reservation{
		ID:            s.nextID,
		ApartmentID:   1,
		ClientName:    "Ana Lopez",
		ClientEmail:   "ana@example.com",
		CheckInDate:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate:  time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC),
		Nights:        4,
		PricePerNight: t.Div(decimal.NewFromInt(4)),
		TotalAmount:   t,
		AmountPaid:    decimal.Zero,
		AmountDue:     t,
		Status:        status,
		PaymentStatus: domain.PaymentStatusPending,
	}
	s.reservations[r.ID] = r
	return r
}

func (s *memStore) reservation(id int32) domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations[id]
}

func (s *memStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *memStore) fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resSnap := make(map[int32]domain.Reservation, len(s.reservations))
	for k, v := range s.reservations {
		resSnap[k] = v
	}
	paySnap := make(map[int32]domain.Payment, len(s.payments))
	for k, v := range s.payments {
		paySnap[k] = v
	}
	idSnap, writesSnap := s.nextID, s.writes

	tx := &memTx{s: s}
	if err := fn(ctx, repository.Repositories{Reservations: tx, Payments: memPayments{tx}}); err != nil {
		s.reservations, s.payments, s.nextID, s.writes = resSnap, paySnap, idSnap, writesSnap
		return err
	}
	return nil
}

// Non-transactional access used outside WithTx.
func (s *memStore) reservationsRepo() repository.ReservationRepository {
	return lockedReservations{s}
}

func (s *memStore) paymentsRepo() repository.PaymentRepository {
	return lockedPayments{s}
}

// memTx implements the repositories on a store whose mutex is already held.
type memTx struct{ s *memStore }

func (t *memTx) failure(op string) error { return t.s.failures[op] }

func (t *memTx) Create(ctx context.Context, r *domain.Reservation) error {
	if err := t.failure("reservations.Create"); err != nil {
		return err
	}
	t.s.nextID++
	r.ID = t.s.nextID
	t.s.reservations[r.ID] = *r
	t.s.writes++
	return nil
}

func (t *memTx) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	r, ok := t.s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (t *memTx) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Reservation, error) {
	if err := t.failure("reservations.GetByIDForUpdate"); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *memTx) GetView(ctx context.Context, id int32) (*domain.ReservationView, error) {
	if err := t.failure("reservations.GetView"); err != nil {
		return nil, err
	}
	r, err := t.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a := t.s.apartments[r.ApartmentID]
	return &domain.ReservationView{Reservation: *r, ApartmentName: a.Name, ApartmentType: a.Type}, nil
}

func (t *memTx) Update(ctx context.Context, r *domain.Reservation) error {
	if err := t.failure("reservations.Update"); err != nil {
		return err
	}
	cur, ok := t.s.reservations[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := *r
	next.AmountPaid, next.AmountDue, next.PaymentStatus = cur.AmountPaid, cur.AmountDue, cur.PaymentStatus
	t.s.reservations[r.ID] = next
	t.s.writes++
	return nil
}

func (t *memTx) UpdatePaymentSummary(ctx context.Context, id int32, sum domain.PaymentSummary) error {
	if err := t.failure("reservations.UpdatePaymentSummary"); err != nil {
		return err
	}
	r, ok := t.s.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.ApplySummary(sum)
	t.s.reservations[id] = r
	t.s.writes++
	return nil
}

func (t *memTx) TransitionStatus(ctx context.Context, id int32, from, to domain.ReservationStatus) (bool, error) {
	r, ok := t.s.reservations[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	t.s.reservations[id] = r
	t.s.writes++
	return true, nil
}

func (t *memTx) ListForStatusUpdate(ctx context.Context) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range t.s.reservations {
		if r.Status == domain.ReservationStatusConfirmed || r.Status == domain.ReservationStatusCheckedIn {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	var out []domain.Reservation
	for _, r := range t.s.reservations {
		if (f.Status == "" || r.Status == f.Status) && (f.ApartmentID == 0 || r.ApartmentID == f.ApartmentID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int32(len(out)), nil
}

func (t *memTx) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.ReservationView, error) {
	var out []domain.ReservationView
	for _, r := range t.s.reservations {
		in := !r.CheckInDate.Before(from) && !r.CheckInDate.After(to)
		outd := !r.CheckOutDate.Before(from) && !r.CheckOutDate.After(to)
		if in || outd {
			v, _ := t.GetView(ctx, r.ID)
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) HasOverlap(ctx context.Context, apartmentID int32, checkIn, checkOut time.Time, excludeID int32) (bool, error) {
	for _, r := range t.s.reservations {
		if r.ApartmentID == apartmentID && r.ID != excludeID &&
			r.CheckInDate.Before(checkOut) && r.CheckOutDate.After(checkIn) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Delete(ctx context.Context, id int32) error {
	if _, ok := t.s.reservations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.s.reservations, id)
	for pid, p := range t.s.payments {
		if p.ReservationID == id {
			delete(t.s.payments, pid)
		}
	}
	t.s.writes++
	return nil
}

type memPayments struct{ t *memTx }

func (p memPayments) Create(ctx context.Context, pay *domain.Payment) error {
	if err := p.t.failure("payments.Create"); err != nil {
		return err
	}
	if _, ok := p.t.s.reservations[pay.ReservationID]; !ok {
		return repository.ErrNotFound
	}
	p.t.s.nextID++
	pay.ID = p.t.s.nextID
	pay.CreatedAt = time.Now()
	p.t.s.payments[pay.ID] = *pay
	p.t.s.writes++
	return nil
}

func (p memPayments) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	pay, ok := p.t.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pay, nil
}

func (p memPayments) Update(ctx context.Context, pay *domain.Payment) error {
	if _, ok := p.t.s.payments[pay.ID]; !ok {
		return repository.ErrNotFound
	}
	p.t.s.payments[pay.ID] = *pay
	p.t.s.writes++
	return nil
}

func (p memPayments) Delete(ctx context.Context, id int32) error {
	if _, ok := p.t.s.payments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(p.t.s.payments, id)
	p.t.s.writes++
	return nil
}

func (p memPayments) ListByReservation(ctx context.Context, reservationID int32) ([]domain.Payment, error) {
	if err := p.t.failure("payments.ListByReservation"); err != nil {
		return nil, err
	}
	var out []domain.Payment
	for _, pay := range p.t.s.payments {
		if pay.ReservationID == reservationID {
			out = append(out, pay)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p memPayments) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, pay := range p.t.s.payments {
		if !pay.PaymentDate.Before(from) && pay.PaymentDate.Before(to) {
			out = append(out, pay)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// lockedReservations and lockedPayments take the store mutex per call.
type lockedReservations struct{ s *memStore }

func (l lockedReservations) tx() (*memTx, func()) {
	l.s.mu.Lock()
	return &memTx{s: l.s}, l.s.mu.Unlock
}

func (l lockedReservations) Create(ctx context.Context, r *domain.Reservation) error {
	t, unlock := l.tx()
	defer unlock()
	return t.Create(ctx, r)
}
func (l lockedReservations) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.GetByID(ctx, id)
}
func (l lockedReservations) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Reservation, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.GetByIDForUpdate(ctx, id)
}
func (l lockedReservations) GetView(ctx context.Context, id int32) (*domain.ReservationView, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.GetView(ctx, id)
}
func (l lockedReservations) Update(ctx context.Context, r *domain.Reservation) error {
	t, unlock := l.tx()
	defer unlock()
	return t.Update(ctx, r)
}
func (l lockedReservations) UpdatePaymentSummary(ctx context.Context, id int32, sum domain.PaymentSummary) error {
	t, unlock := l.tx()
	defer unlock()
	return t.UpdatePaymentSummary(ctx, id, sum)
}
func (l lockedReservations) TransitionStatus(ctx context.Context, id int32, from, to domain.ReservationStatus) (bool, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.TransitionStatus(ctx, id, from, to)
}
func (l lockedReservations) ListForStatusUpdate(ctx context.Context) ([]domain.Reservation, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.ListForStatusUpdate(ctx)
}
func (l lockedReservations) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.List(ctx, f)
}
func (l lockedReservations) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.ReservationView, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.ListByDateRange(ctx, from, to)
}
func (l lockedReservations) HasOverlap(ctx context.Context, apartmentID int32, checkIn, checkOut time.Time, excludeID int32) (bool, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.HasOverlap(ctx, apartmentID, checkIn, checkOut, excludeID)
}
func (l lockedReservations) Delete(ctx context.Context, id int32) error {
	t, unlock := l.tx()
	defer unlock()
	return t.Delete(ctx, id)
}

type lockedPayments struct{ s *memStore }

func (l lockedPayments) tx() (memPayments, func()) {
	l.s.mu.Lock()
	return memPayments{&memTx{s: l.s}}, l.s.mu.Unlock
}

func (l lockedPayments) Create(ctx context.Context, p *domain.Payment) error {
	t, unlock := l.tx()
	defer unlock()
	return t.Create(ctx, p)
}
func (l lockedPayments) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.GetByID(ctx, id)
}
func (l lockedPayments) Update(ctx context.Context, p *domain.Payment) error {
	t, unlock := l.tx()
	defer unlock()
	return t.Update(ctx, p)
}
func (l lockedPayments) Delete(ctx context.Context, id int32) error {
	t, unlock := l.tx()
	defer unlock()
	return t.Delete(ctx, id)
}
func (l lockedPayments) ListByReservation(ctx context.Context, reservationID int32) ([]domain.Payment, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.ListByReservation(ctx, reservationID)
}
func (l lockedPayments) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	t, unlock := l.tx()
	defer unlock()
	return t.ListByDateRange(ctx, from, to)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPaymentNotification(ctx context.Context, view *domain.ReservationView, amount decimal.Decimal, isComplete bool) error {
	args := m.Called(ctx, view, amount, isComplete)
	return args.Error(0)
}

func (m *MockNotifier) SendStatusChangeNotification(ctx context.Context, view *domain.ReservationView, previous domain.ReservationStatus) error {
	args := m.Called(ctx, view, previous)
	return args.Error(0)
}

// MockApartmentRepo
type MockApartmentRepo struct {
	mock.Mock
}

func (m *MockApartmentRepo) Create(ctx context.Context, a *domain.Apartment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockApartmentRepo) GetByID(ctx context.Context, id int32) (*domain.Apartment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Apartment), args.Error(1)
}
func (m *MockApartmentRepo) List(ctx context.Context) ([]domain.Apartment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Apartment), args.Error(1)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) ListByReservation(ctx context.Context, reservationID int32) ([]domain.Notification, error) {
	args := m.Called(ctx, reservationID)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
