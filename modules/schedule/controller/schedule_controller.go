package controller

import (
	"schedule-board/core/constants"
	"schedule-board/core/controller"
	"schedule-board/core/errors"
	"schedule-board/core/utils"
	"schedule-board/modules/schedule/dto"
	"schedule-board/modules/schedule/service"

	"github.com/labstack/echo/v4"
)

type ScheduleController struct {
	controller.BaseController
	ScheduleService *service.ScheduleService
}

func NewScheduleController(svc *service.ScheduleService) *ScheduleController {
	return &ScheduleController{
		BaseController:  controller.NewBaseController(),
		ScheduleService: svc,
	}
}

func (c *ScheduleController) getClaims(ctx echo.Context) (*utils.TokenClaims, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "user not authenticated", nil)
	}
	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid token data", nil)
	}
	return claims, nil
}

// ListWeek handles GET /schedules?week=YYYY-MM-DD
func (c *ScheduleController) ListWeek(ctx echo.Context) error {
	claims, err := c.getClaims(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "user not authenticated")
	}

	week := ctx.QueryParam("week")
	if week == "" {
		return c.BadRequest(errors.ErrInvalidInput, "week query parameter is required")
	}

	entries, appErr := c.ScheduleService.ListWeek(ctx.Request().Context(), claims.OrganizationID, week)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, entries, "Week schedule loaded")
}

// SlotCatalog handles GET /schedules/slots
func (c *ScheduleController) SlotCatalog(ctx echo.Context) error {
	slots, maxIndex := c.ScheduleService.SlotCatalog()
	return c.SuccessResponse(ctx, map[string]any{
		"slots":          slots,
		"max_slot_index": maxIndex,
	}, "Slot catalog")
}

// Create handles POST /schedules
func (c *ScheduleController) Create(ctx echo.Context) error {
	claims, err := c.getClaims(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "user not authenticated")
	}

	var req dto.CreateScheduleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	entry, appErr := c.ScheduleService.Create(ctx.Request().Context(), claims.OrganizationID, claims.UserID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, entry, "Schedule entry created")
}

// Update handles PUT /schedules/:id
func (c *ScheduleController) Update(ctx echo.Context) error {
	claims, err := c.getClaims(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "user not authenticated")
	}

	id := ctx.Param("id")
	if id == "" {
		return c.BadRequest(errors.ErrMissingID, "schedule id is required")
	}

	var req dto.UpdateScheduleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	entry, appErr := c.ScheduleService.Update(ctx.Request().Context(), claims.OrganizationID, claims.UserID, id, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, entry, "Schedule entry updated")
}

// Delete handles DELETE /schedules/:id
func (c *ScheduleController) Delete(ctx echo.Context) error {
	claims, err := c.getClaims(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "user not authenticated")
	}

	id := ctx.Param("id")
	if id == "" {
		return c.BadRequest(errors.ErrMissingID, "schedule id is required")
	}

	if appErr := c.ScheduleService.Delete(ctx.Request().Context(), claims.OrganizationID, claims.UserID, id); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Schedule entry deleted")
}
