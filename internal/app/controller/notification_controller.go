package controller

import (
	"net/http"
	"strconv"

	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	service service.NotificationService
}

func NewNotificationController(service service.NotificationService) *NotificationController {
	return &NotificationController{
		service: service,
	}
}

// GetNotifications
// GET /api/v1/notifications?is_read=false&page=1&page_size=20
func (ctrl *NotificationController) GetNotifications(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var isRead *bool
	if raw := c.Query("is_read"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "is_read must be true or false")
			return
		}
		isRead = &v
	}
	page, pageSize := pageParams(c)

	items, total, unread, err := ctrl.service.GetNotifications(actor.UserID, isRead, page, pageSize)
	if err != nil {
		handleServiceError(c, err, "Fetch notifications", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{
		"notifications": items,
		"total":         total,
		"unread_count":  unread,
		"page":          page,
		"page_size":     pageSize,
	})
}

// GetUnreadCount
// GET /api/v1/notifications/unread-count
func (ctrl *NotificationController) GetUnreadCount(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	count, err := ctrl.service.GetUnreadCount(actor.UserID)
	if err != nil {
		handleServiceError(c, err, "Count notifications", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"unread_count": count})
}

// MarkAsRead
// PATCH /api/v1/notifications/:id/read
func (ctrl *NotificationController) MarkAsRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.service.MarkAsRead(id, actor.UserID); err != nil {
		handleServiceError(c, err, "Mark notification read", map[string]interface{}{
			"user_id":         actor.UserID,
			"notification_id": id,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllAsRead
// PATCH /api/v1/notifications/read-all
func (ctrl *NotificationController) MarkAllAsRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := ctrl.service.MarkAllAsRead(actor.UserID); err != nil {
		handleServiceError(c, err, "Mark all notifications read", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
