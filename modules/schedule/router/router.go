package router

import (
	"schedule-board/core/middleware"
	"schedule-board/modules/schedule/controller"

	"github.com/labstack/echo/v4"
)

type ScheduleRouter struct {
	controller *controller.ScheduleController
}

func NewScheduleRouter(controller *controller.ScheduleController) *ScheduleRouter {
	return &ScheduleRouter{controller: controller}
}

func (r *ScheduleRouter) Register(e *echo.Group, mw *middleware.Middleware) {
	group := e.Group("/schedules", mw.AuthMiddleware())
	group.GET("", r.controller.ListWeek)
	group.GET("/slots", r.controller.SlotCatalog)
	group.POST("", r.controller.Create)
	group.PUT("/:id", r.controller.Update)
	group.DELETE("/:id", r.controller.Delete)
}
