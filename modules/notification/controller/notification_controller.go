package controller

import (
	"strconv"
	"time"

	"schedule-board/core/constants"
	"schedule-board/core/controller"
	"schedule-board/core/errors"
	"schedule-board/core/params"
	"schedule-board/core/utils"
	"schedule-board/modules/notification/dto"
	"schedule-board/modules/notification/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type NotificationController struct {
	service *service.NotificationService
	controller.BaseController
}

func NewNotificationController(service *service.NotificationService) *NotificationController {
	return &NotificationController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

func getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "user not authenticated", nil)
	}
	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "invalid token data", nil)
	}
	return claims.UserID, nil
}

// GetMyNotifications handles GET /notifications
func (c *NotificationController) GetMyNotifications(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	queryParams := params.NewQueryParams(ctx)
	result, getErr := c.service.GetMyNotifications(ctx.Request().Context(), userID, ctx.QueryParam("kind"), *queryParams)
	if getErr != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to get notifications", getErr)
	}

	return c.SuccessResponse(ctx, result, "Notifications retrieved successfully")
}

// CountUnread handles GET /notifications/unread-count
func (c *NotificationController) CountUnread(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	count, countErr := c.service.CountUnread(ctx.Request().Context(), userID)
	if countErr != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to count unread notifications", countErr)
	}

	return c.SuccessResponse(ctx, map[string]int{"unread": count}, "Unread count retrieved successfully")
}

// MarkAsRead handles PUT /notifications/mark-read
func (c *NotificationController) MarkAsRead(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	req := new(dto.MarkAsReadRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	if err := c.service.MarkRead(ctx.Request().Context(), userID, req.IDs); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to mark as read", err)
	}

	return c.SuccessResponse(ctx, nil, "Marked as read successfully")
}

// MarkAllAsRead handles PUT /notifications/mark-all-read
func (c *NotificationController) MarkAllAsRead(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	if err := c.service.MarkRead(ctx.Request().Context(), userID, nil); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to mark all as read", err)
	}

	return c.SuccessResponse(ctx, nil, "All notifications marked as read")
}

// PruneRead handles DELETE /notifications/read. An optional "days" query
// param overrides the default 30-day retention for read notifications.
func (c *NotificationController) PruneRead(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	days := 30
	if raw := ctx.QueryParam("days"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil || parsed < 0 {
			return c.BadRequest(errors.ErrInvalidRequestData, "days must be a non-negative integer", nil)
		}
		days = parsed
	}

	if err := c.service.PruneRead(ctx.Request().Context(), userID, time.Duration(days)*24*time.Hour); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to prune notifications", err)
	}

	return c.SuccessResponse(ctx, nil, "Read notifications pruned")
}
