package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	apperrors "github.com/wastebill/wastebill-backend/internal/errors"
)

// NotificationController serves the resident inbox
type NotificationController struct {
	service service.NotificationService
}

// NewNotificationController creates the inbox controller
func NewNotificationController(service service.NotificationService) *NotificationController {
	return &NotificationController{
		service: service,
	}
}

// GetNotifications godoc
// @Summary List inbox notifications
// @Tags notifications
// @Produce json
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Param is_read query bool false "read state"
// @Success 200 {object} gin.H{items=[]model.Notification,total=int,page=int,page_size=int,unread_count=int}
// @Failure 401 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	userID, ok := residentID(ctx)
	if !ok {
		return
	}

	isRead, err := queryBool(ctx, "is_read")
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidFormat, apperrors.MsgInvalidInput)
		return
	}
	page, pageSize := pagination(ctx)

	result, err := c.service.List(userID, isRead, page, pageSize)
	if err != nil {
		respondServiceError(ctx, err, "List notifications", "notification")
		return
	}

	unread, err := c.service.UnreadCount(userID)
	if err != nil {
		respondServiceError(ctx, err, "Count unread notifications", "notification")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":        result.Items,
		"total":        result.Total,
		"page":         result.Page,
		"page_size":    result.PageSize,
		"unread_count": unread,
	})
}

// GetUnreadCount godoc
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} gin.H{unread_count=int}
// @Security BearerAuth
// @Router /api/v1/notifications/unread-count [get]
func (c *NotificationController) GetUnreadCount(ctx *gin.Context) {
	userID, ok := residentID(ctx)
	if !ok {
		return
	}

	count, err := c.service.UnreadCount(userID)
	if err != nil {
		respondServiceError(ctx, err, "Count unread notifications", "notification")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}

// MarkAsRead godoc
// @Summary Mark one notification read
// @Tags notifications
// @Param id path int true "notification id"
// @Success 200 {object} gin.H{message=string}
// @Failure 404 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [put]
func (c *NotificationController) MarkAsRead(ctx *gin.Context) {
	userID, ok := residentID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.MarkAsRead(userID, id); err != nil {
		respondServiceError(ctx, err, "Mark notification read", "notification")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "อ่านแล้ว",
	})
}

// MarkAllAsRead godoc
// @Summary Mark every notification read
// @Tags notifications
// @Success 200 {object} gin.H{message=string}
// @Security BearerAuth
// @Router /api/v1/notifications/read-all [put]
func (c *NotificationController) MarkAllAsRead(ctx *gin.Context) {
	userID, ok := residentID(ctx)
	if !ok {
		return
	}

	if err := c.service.MarkAllAsRead(userID); err != nil {
		respondServiceError(ctx, err, "Mark all notifications read", "notification")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "อ่านทั้งหมดแล้ว",
	})
}
