package services

import (
	"context"
	"errors"
	"fmt"

	"dilemmas/internal/models"
	"dilemmas/internal/store"
)

type NotificationService struct {
	repo store.Repository
}

func NewNotificationService(repo store.Repository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns userID's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	notifications, err := s.repo.ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one of userID's notifications as read. Another user's
// notification is reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	if err := s.repo.MarkNotificationRead(ctx, id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(ErrNotFound, "notification not found")
		}
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return nil
}
