package services

import (
	"context"
	"strings"

	"task-tracker/internal/apperrors"
	"task-tracker/internal/logging"
	"task-tracker/internal/models"
	"task-tracker/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type NotificationService interface {
	Create(ctx context.Context, userID uuid.UUID, message string) (*models.Notification, error)
	ListForUser(ctx context.Context, actor models.ActorContext) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, actor models.ActorContext, id uuid.UUID) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, actor models.ActorContext) (int64, error)
}

// NotificationServiceImpl owns the read state of notifications. Unread to
// read is the only transition.
type NotificationServiceImpl struct {
	store  *repositories.NotificationStore
	logger logrus.FieldLogger
}

func NewNotificationService(db *gorm.DB, logger logrus.FieldLogger) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		store:  repositories.NewNotificationStore(db),
		logger: logging.OrDiscard(logger).WithField("component", "notification_service"),
	}
}

// WithTx returns a service whose writes join tx, so a task change and the
// notification it causes commit together.
func (s *NotificationServiceImpl) WithTx(tx *gorm.DB) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		store:  s.store.WithTx(tx),
		logger: s.logger,
	}
}

func (s *NotificationServiceImpl) Create(ctx context.Context, userID uuid.UUID, message string) (*models.Notification, error) {
	verr := apperrors.NewValidationError()
	if userID == uuid.Nil {
		verr.Add("userId", "Invalid user ID")
	}
	if strings.TrimSpace(message) == "" {
		verr.Add("message", "Message is required")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	return s.store.Create(ctx, userID, message)
}

func (s *NotificationServiceImpl) ListForUser(ctx context.Context, actor models.ActorContext) ([]models.Notification, error) {
	if !actor.Authenticated() {
		return nil, apperrors.ErrUnauthenticated
	}
	return s.store.ListByUser(ctx, actor.UserID)
}

// MarkAsRead reports NotFound before ownership, and is a no-op on a
// notification that is already read.
func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, actor models.ActorContext, id uuid.UUID) (*models.Notification, error) {
	if !actor.Authenticated() {
		return nil, apperrors.ErrUnauthenticated
	}

	notification, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !notification.OwnedBy(actor.UserID) {
		return nil, apperrors.Forbidden("Unauthorized access to notification")
	}
	if notification.IsRead {
		return notification, nil
	}

	return s.store.MarkAsRead(ctx, id)
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, actor models.ActorContext) (int64, error) {
	if !actor.Authenticated() {
		return 0, apperrors.ErrUnauthenticated
	}

	count, err := s.store.MarkAllAsRead(ctx, actor.UserID)
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": actor.UserID,
		"count":   count,
	}).Debug("Notifications marked as read")
	return count, nil
}
