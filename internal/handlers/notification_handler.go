package handlers

import (
	"github.com/gin-gonic/gin"

	"refhub_backend/internal/middleware"
	"refhub_backend/internal/services"
	"refhub_backend/internal/services/dto"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService *services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications", middleware.Auth())
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.ParsePagination(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.List(c.Request.Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      notifications,
		Pagination: dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"read": true})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"read": true})
}
