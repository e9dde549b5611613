package matching

import (
	"smartschedule/core/middleware"
	"smartschedule/modules/matching/controller"
	"smartschedule/modules/matching/router"
	"smartschedule/modules/matching/service"

	"github.com/labstack/echo/v4"
)

// Init wires the matching module and registers its routes
func Init(e *echo.Echo, mw *middleware.Middleware, deps service.Deps) service.MatchingService {
	svc := service.NewMatchingService(deps)
	ctrl := controller.NewMatchingController(svc)
	rtr := router.NewMatchingRouter(ctrl)

	rtr.Setup(e, mw)
	return svc
}
