package service

import (
	"context"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) ListReservationNotifications(ctx context.Context, reservationID int32) ([]domain.Notification, error) {
	if reservationID <= 0 {
		return nil, validationError("reservation id must be positive")
	}
	list, err := s.noteRepo.ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, persistenceError("list notifications", err)
	}
	return list, nil
}
