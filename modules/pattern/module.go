package pattern

import (
	"smartschedule/core/middleware"
	"smartschedule/modules/pattern/controller"
	"smartschedule/modules/pattern/router"
	"smartschedule/modules/pattern/service"
	"smartschedule/modules/pattern/worker"

	"github.com/labstack/echo/v4"
)

// Init wires the pattern module and registers its routes. The returned
// service doubles as the matching module's pattern cache.
func Init(e *echo.Echo, mw *middleware.Middleware, deps service.Deps, enqueuer worker.Enqueuer) service.PatternService {
	svc := service.NewPatternService(deps)
	ctrl := controller.NewPatternController(svc, enqueuer)
	rtr := router.NewPatternRouter(ctrl)

	rtr.Setup(e, mw)
	return svc
}
