package service

import (
	"errors"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/internal/websocket"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService stores in-app notifications and pushes them to connected sessions.
type NotificationService interface {
	// Notify is best effort: failures are logged and never abort the caller's operation.
	Notify(userIDs []uint, template model.Notification)

	GetNotifications(userID uint, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(notificationID, userID uint) error
	MarkAllAsRead(userID uint) error
}

type notificationService struct {
	repo repository.NotificationRepository
	hub  *websocket.Hub
}

// NewNotificationService accepts a nil hub, in which case notifications are only stored.
func NewNotificationService(repo repository.NotificationRepository, hub *websocket.Hub) NotificationService {
	return &notificationService{
		repo: repo,
		hub:  hub,
	}
}

func (s *notificationService) Notify(userIDs []uint, template model.Notification) {
	seen := make(map[uint]bool, len(userIDs))
	for _, userID := range userIDs {
		if userID == 0 || seen[userID] {
			continue
		}
		seen[userID] = true

		n := template
		n.ID = 0
		n.UserID = userID
		n.IsRead = false
		if err := s.repo.Create(&n); err != nil {
			logger.Error("Failed to store notification", err, map[string]interface{}{
				"user_id": userID,
				"type":    n.Type,
			})
			continue
		}

		if s.hub != nil {
			_ = s.hub.SendToUser(userID, map[string]interface{}{
				"type":         "notification",
				"notification": n,
			})
		}
	}
}

// GetNotifications returns one page, the total matching, and the unread count.
func (s *notificationService) GetNotifications(userID uint, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error) {
	limit, offset := Page(page, pageSize)

	notifications, total, err := s.repo.FindByUserID(userID, isRead, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	unread, err := s.repo.CountUnread(userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return notifications, total, unread, nil
}

func (s *notificationService) GetUnreadCount(userID uint) (int64, error) {
	return s.repo.CountUnread(userID)
}

func (s *notificationService) MarkAsRead(notificationID, userID uint) error {
	if err := s.repo.MarkAsRead(notificationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(userID uint) error {
	return s.repo.MarkAllAsRead(userID)
}
