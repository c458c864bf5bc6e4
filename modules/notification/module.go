package notification

import (
	"schedule-board/core/constants"
	"schedule-board/core/database"
	"schedule-board/core/middleware"
	"schedule-board/modules/notification/controller"
	"schedule-board/modules/notification/repository"
	"schedule-board/modules/notification/router"
	"schedule-board/modules/notification/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

// Init wires the notification module: routes plus the background delivery
// handler on the asynq mux.
func Init(e *echo.Group, db database.Database, client *asynq.Client, mux *asynq.ServeMux, mw *middleware.Middleware) *service.NotificationService {
	repo := repository.NewNotificationRepository(&db)
	svc := service.NewNotificationService(repo, client)
	ctrl := controller.NewNotificationController(svc)

	router.NewNotificationRouter(ctrl).Register(e, mw)

	if mux != nil {
		mux.HandleFunc(constants.TaskTypeNotificationDeliver, svc.HandleDeliverTask)
	}

	return svc
}
