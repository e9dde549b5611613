package router

import (
	"smartschedule/core/middleware"
	"smartschedule/modules/matching/controller"

	"github.com/labstack/echo/v4"
)

// MatchingRouter handles slot search routes
type MatchingRouter struct {
	MatchingController *controller.MatchingController
}

// NewMatchingRouter creates a new router
func NewMatchingRouter(matchingController *controller.MatchingController) *MatchingRouter {
	return &MatchingRouter{
		MatchingController: matchingController,
	}
}

// Setup registers matching routes
func (r *MatchingRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	matchingRoutes := privateRoutes.Group("/matching", mw.AuthMiddleware())
	matchingRoutes.POST("/find-slots", r.MatchingController.FindSlots)
	matchingRoutes.POST("/fallback-slots", r.MatchingController.FallbackSlots)
	matchingRoutes.POST("/parse-constraints", r.MatchingController.ParseConstraints)
	matchingRoutes.POST("/analyze", r.MatchingController.Analyze)
}
