package services

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"

	"refhub_backend/internal/email"
	"refhub_backend/internal/logger"
	"refhub_backend/internal/models"
	"refhub_backend/internal/repositories"
	"refhub_backend/pkg/apperrors"
)

type NotificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	sender           email.Sender
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	sender email.Sender,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		sender:           sender,
	}
}

// Notify stores an in-app notification and mails the user. Delivery failures
// are logged, never surfaced; notifications are best-effort.
func (s *NotificationService) Notify(ctx context.Context, userID string, ntype models.NotificationType, title, message string, data map[string]string) {
	notification := &models.Notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
	}

	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			notification.Data = datatypes.JSON(raw)
		}
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		logger.CtxWithError(ctx, "failed to store notification", err, "user_id", userID, "type", ntype)
		return
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.CtxWithError(ctx, "failed to load user for email", err, "user_id", userID)
		return
	}

	body := "<p>" + message + "</p>"
	if err := s.sender.Send(user.Email, title, body); err != nil {
		logger.CtxWithError(ctx, "failed to send email", err, "user_id", userID, "type", ntype)
	}
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	notifications, total, err := s.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return notifications, total, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	err := s.notificationRepo.MarkRead(ctx, id, userID)
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return apperrors.ErrNotFound(err)
	}
	if err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}
