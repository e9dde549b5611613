package controller

import (
	"net/http"

	"smartschedule/core/controller"
	"smartschedule/core/errors"
	"smartschedule/modules/pattern/service"
	"smartschedule/modules/pattern/worker"

	"github.com/labstack/echo/v4"
)

// PatternController serves working-hours analyses
type PatternController struct {
	controller.BaseController
	PatternService service.PatternService
	Enqueuer       worker.Enqueuer
}

// NewPatternController creates a new controller. A nil enqueuer makes
// refresh synchronous.
func NewPatternController(svc service.PatternService, enqueuer worker.Enqueuer) *PatternController {
	return &PatternController{
		BaseController: controller.NewBaseController(),
		PatternService: svc,
		Enqueuer:       enqueuer,
	}
}

// GetPattern handles GET /patterns/:user_id
func (c *PatternController) GetPattern(ctx echo.Context) error {
	userID := ctx.Param("user_id")
	if userID == "" {
		return c.BadRequest(errors.ErrInvalidInput, "user_id is required")
	}

	result, err := c.PatternService.Get(ctx.Request().Context(), userID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// RefreshPattern handles POST /patterns/:user_id/refresh
func (c *PatternController) RefreshPattern(ctx echo.Context) error {
	userID := ctx.Param("user_id")
	if userID == "" {
		return c.BadRequest(errors.ErrInvalidInput, "user_id is required")
	}

	if c.Enqueuer == nil {
		result, err := c.PatternService.Refresh(ctx.Request().Context(), userID)
		if err != nil {
			return c.ErrorResponse(ctx, err)
		}
		return c.SuccessResponse(ctx, result, "Pattern refreshed")
	}

	if err := c.Enqueuer.EnqueueAnalyze(ctx.Request().Context(), userID); err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusAccepted, controller.NewSuccessResponse(http.StatusAccepted,
		map[string]string{"user_id": userID}, "Pattern refresh queued"))
}
