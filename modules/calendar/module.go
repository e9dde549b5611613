package calendar

import (
	"smartschedule/core/middleware"
	"smartschedule/modules/calendar/controller"
	"smartschedule/modules/calendar/repository"
	"smartschedule/modules/calendar/router"
	"smartschedule/modules/calendar/service"
	"smartschedule/modules/calendar/source"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, mw *middleware.Middleware, repo repository.CalendarRepository, events source.EventSource) {
	// Initialize layers
	calendarService := service.NewCalendarService(repo, events)
	calendarController := controller.NewCalendarController(calendarService)

	// Setup routes
	router.NewCalendarRouter(calendarController).Setup(e, mw)
}
