package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/internal/http/dto"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/middleware"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

type NotificationHandler struct {
	notifications service.NotificationService
}

func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	result, page, err := h.notifications.List(ctx, middleware.GetUser(ctx).ID, q.Page, q.Limit)
	if err != nil {
		writeError(c, err, "failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, dto.NotificationPageResponse{
		PageResponse: dto.ToPageResponse(result.PageResult, page, dto.ToNotificationResponse),
		Unread:       result.Unread,
	})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	notificationID, ok := pathID(c, "notificationId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.notifications.MarkAsRead(ctx, middleware.GetUser(ctx).ID, notificationID); err != nil {
		writeError(c, err, "failed to mark notification read")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	ctx := c.Request.Context()

	n, err := h.notifications.MarkAllAsRead(ctx, middleware.GetUser(ctx).ID)
	if err != nil {
		writeError(c, err, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: n})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	notificationID, ok := pathID(c, "notificationId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.notifications.Delete(ctx, middleware.GetUser(ctx).ID, notificationID); err != nil {
		writeError(c, err, "failed to delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) SaveSubscription(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.notifications.SaveSubscription(ctx, middleware.GetUser(ctx).ID, req.ToModel()); err != nil {
		writeError(c, err, "failed to save subscription")
		return
	}
	c.Status(http.StatusNoContent)
}
