package router

import (
	"smartschedule/core/middleware"
	"smartschedule/modules/pattern/controller"

	"github.com/labstack/echo/v4"
)

// PatternRouter handles working-hours pattern routes
type PatternRouter struct {
	PatternController *controller.PatternController
}

// NewPatternRouter creates a new router
func NewPatternRouter(patternController *controller.PatternController) *PatternRouter {
	return &PatternRouter{
		PatternController: patternController,
	}
}

// Setup registers pattern routes
func (r *PatternRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	patternRoutes := privateRoutes.Group("/patterns", mw.AuthMiddleware())
	patternRoutes.GET("/:user_id", r.PatternController.GetPattern)
	patternRoutes.POST("/:user_id/refresh", r.PatternController.RefreshPattern)
}
