package router

import (
	"smartschedule/core/middleware"
	"smartschedule/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{
		controller: controller,
	}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Private routes (require authentication)
	calendarRoutes := v1.Group("/private/calendar")
	calendarRoutes.Use(mw.AuthMiddleware())

	// Calendar connections
	calendarRoutes.GET("/connections", r.controller.GetConnections)

	// Declared availability
	calendarRoutes.GET("/availability", r.controller.GetAvailability)
	calendarRoutes.PUT("/availability", r.controller.SetAvailability)

	// Busy
	calendarRoutes.GET("/busy", r.controller.GetMyBusy)

	// User-specific busy view
	userRoutes := v1.Group("/private/users")
	userRoutes.Use(mw.AuthMiddleware())
	userRoutes.GET("/:id/calendar/busy", r.controller.GetUserBusy)
}
