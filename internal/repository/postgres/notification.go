package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "kind", n.Kind, "recipient", n.Recipient)

	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal attributes")
		return err
	}

	query := `INSERT INTO notifications (reservation_id, kind, recipient, subject, status, error, attributes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "kind", n.Kind, "reservationID", n.ReservationID)

	n.CreatedAt = time.Now()
	err = r.db.QueryRowContext(ctx, query, n.ReservationID, n.Kind, n.Recipient, n.Subject, n.Status, n.Error, attrs, n.CreatedAt).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "kind", n.Kind)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

func (r *notificationRepository) ListByReservation(ctx context.Context, reservationID int32) ([]domain.Notification, error) {
	query := `SELECT id, reservation_id, kind, recipient, subject, status, COALESCE(error, ''), attributes, created_at
	          FROM notifications WHERE reservation_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.ReservationID, &n.Kind, &n.Recipient, &n.Subject, &n.Status, &n.Error, &attrs, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, err
			}
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
