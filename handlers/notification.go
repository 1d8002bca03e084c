package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/goals-api/middleware"
	"github.com/LovationAdmin/goals-api/services"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
			return
		}
		limit = n
	}

	notifications, err := h.Service.ListInbox(c.Request.Context(), middleware.GetUserID(c), limit)
	if err != nil {
		respondError(c, "list notifications", err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.Service.UnreadCount(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "count unread notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.Service.MarkRead(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		respondError(c, "mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
