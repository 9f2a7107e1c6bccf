package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacation-rental-backend/internal/domain"
)

func TestNotificationRepository_CreateAndList(t *testing.T) {
	store, mock := newMock(t)
	id := int32(12)

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(&id, domain.NotificationKindPayment, "ana@example.com", "Payment received", domain.NotificationStatusSent, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	n := &domain.Notification{
		ReservationID: &id,
		Kind:          domain.NotificationKindPayment,
		Recipient:     "ana@example.com",
		Subject:       "Payment received",
		Status:        domain.NotificationStatusSent,
		Attributes:    map[string]string{"amount": "300.00"},
	}
	require.NoError(t, store.NotificationRepository.Create(context.Background(), n))
	assert.Equal(t, int32(3), n.ID)

	mock.ExpectQuery(`FROM notifications WHERE reservation_id = \$1`).
		WithArgs(12).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "kind", "recipient", "subject", "status", "error", "attributes", "created_at"}).
			AddRow(3, 12, "payment", "ana@example.com", "Payment received", "failed", "status 401", []byte(`{"amount":"300.00"}`), time.Now()))

	out, err := store.NotificationRepository.ListByReservation(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.NotificationStatusFailed, out[0].Status)
	assert.Equal(t, "300.00", out[0].Attributes["amount"])
	assert.Equal(t, "status 401", out[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}
