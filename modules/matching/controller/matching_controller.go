package controller

import (
	"smartschedule/core/controller"
	"smartschedule/core/errors"
	"smartschedule/core/logger"
	"smartschedule/modules/matching/dto"
	"smartschedule/modules/matching/service"

	"github.com/labstack/echo/v4"
)

// MatchingController handles slot search HTTP requests
type MatchingController struct {
	controller.BaseController
	MatchingService service.MatchingService
}

// NewMatchingController creates a new controller
func NewMatchingController(svc service.MatchingService) *MatchingController {
	return &MatchingController{
		BaseController:  controller.NewBaseController(),
		MatchingService: svc,
	}
}

// FindSlots handles POST /matching/find-slots
func (c *MatchingController) FindSlots(ctx echo.Context) error {
	var req dto.FindSlotsRequest
	if err := ctx.Bind(&req); err != nil {
		logger.Warn("MatchingController:FindSlots:Bind", "error", err)
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, err := c.MatchingService.FindSlots(ctx.Request().Context(), req.ToInput())
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// FallbackSlots handles POST /matching/fallback-slots
func (c *MatchingController) FallbackSlots(ctx echo.Context) error {
	var req dto.FallbackSlotsRequest
	if err := ctx.Bind(&req); err != nil {
		logger.Warn("MatchingController:FallbackSlots:Bind", "error", err)
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, err := c.MatchingService.FallbackSlots(ctx.Request().Context(), req.ToInput())
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// ParseConstraints handles POST /matching/parse-constraints. Parsing never
// fails; unrecognised text yields the defaults.
func (c *MatchingController) ParseConstraints(ctx echo.Context) error {
	var req dto.ParseConstraintsRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	return c.SuccessResponse(ctx, c.MatchingService.ParseConstraints(req.Text), "Success")
}

// Analyze handles POST /matching/analyze
func (c *MatchingController) Analyze(ctx echo.Context) error {
	var req dto.AnalyzeRequest
	if err := ctx.Bind(&req); err != nil {
		logger.Warn("MatchingController:Analyze:Bind", "error", err)
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, err := c.MatchingService.Analyze(ctx.Request().Context(), req.ToInput())
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Success")
}
