package store

import (
	"context"

	"dilemmas/internal/models"

	"gorm.io/gorm/clause"
)

func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(n).Error)
}

func (s *GormStore) ListNotifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	notifications := make([]models.Notification, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, translate(err)
	}
	return notifications, nil
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		UpdateColumn("is_read", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
