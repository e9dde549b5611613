package controller

import (
	"time"

	"smartschedule/core/constants"
	"smartschedule/core/controller"
	"smartschedule/core/errors"
	"smartschedule/core/utils"
	"smartschedule/modules/calendar/dto"
	"smartschedule/modules/calendar/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const defaultBusyDays = 7

type CalendarController struct {
	controller.BaseController
	service service.CalendarService
}

func NewCalendarController(service service.CalendarService) *CalendarController {
	return &CalendarController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// GetConnections returns all calendar connections for the current user
// GET /api/v1/private/calendar/connections
func (c *CalendarController) GetConnections(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	connections, err := c.service.GetConnections(ctx.Request().Context(), userID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, dto.CalendarConnectionListResponse{Connections: connections}, "Success")
}

// GetAvailability returns the current user's declared weekly windows
// GET /api/v1/private/calendar/availability
func (c *CalendarController) GetAvailability(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	result, err := c.service.GetAvailability(ctx.Request().Context(), userID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// SetAvailability replaces the current user's declared weekly windows
// PUT /api/v1/private/calendar/availability
func (c *CalendarController) SetAvailability(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	var req dto.AvailabilityRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, err := c.service.SetAvailability(ctx.Request().Context(), userID, req.Availability)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Availability saved")
}

// GetMyBusy returns the current user's busy intervals
// GET /api/v1/private/calendar/busy?start=...&end=...
func (c *CalendarController) GetMyBusy(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}
	return c.busy(ctx, userID)
}

// GetUserBusy returns another user's busy intervals
// GET /api/v1/private/users/:id/calendar/busy?start=...&end=...
func (c *CalendarController) GetUserBusy(ctx echo.Context) error {
	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid user ID")
	}
	return c.busy(ctx, userID)
}

func (c *CalendarController) busy(ctx echo.Context, userID uuid.UUID) error {
	start, end, err := parseRange(ctx.QueryParam("start"), ctx.QueryParam("end"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "start and end must be RFC3339")
	}

	result, err := c.service.GetBusy(ctx.Request().Context(), userID, start, end)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// parseRange defaults to the next seven days from now.
func parseRange(startParam, endParam string) (time.Time, time.Time, error) {
	start := time.Now().UTC()
	if startParam != "" {
		t, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	end := start.AddDate(0, 0, defaultBusyDays)
	if endParam != "" {
		t, err := time.Parse(time.RFC3339, endParam)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	return start, end, nil
}

// Helper function to get user ID from JWT context
func getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	claims, ok := ctx.Get(constants.ContextTokenData).(*utils.TokenClaims)
	if !ok || claims == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}
	return claims.UserID, nil
}
