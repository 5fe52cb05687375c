package repositories

import (
	"context"
	"errors"
	"fmt"

	"task-tracker/internal/apperrors"
	"task-tracker/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) WithTx(tx *gorm.DB) *NotificationStore {
	return &NotificationStore{db: tx}
}

func (s *NotificationStore) Create(ctx context.Context, userID uuid.UUID, message string) (*models.Notification, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate notification ID: %w", err)
	}

	notification := &models.Notification{
		ID:      id,
		UserID:  userID,
		Message: message,
		IsRead:  false,
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return notification, nil
}

// ListByUser returns the user's notifications, newest first.
func (s *NotificationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("notification")
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	return &notification, nil
}

func (s *NotificationStore) MarkAsRead(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("notification")
	}
	return s.FindByID(ctx, id)
}

// MarkAllAsRead flips every unread notification of the user and returns how
// many changed.
func (s *NotificationStore) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
