package schedule

import (
	"schedule-board/core/cache"
	"schedule-board/core/database"
	"schedule-board/core/middleware"
	"schedule-board/modules/schedule/controller"
	"schedule-board/modules/schedule/feed"
	"schedule-board/modules/schedule/repository"
	"schedule-board/modules/schedule/router"
	"schedule-board/modules/schedule/service"
	"schedule-board/modules/schedule/sync"

	"github.com/labstack/echo/v4"
)

// Init wires the schedule module and registers its routes. maxSlotIndex is
// the configured accepted slot bound.
func Init(e *echo.Group, db database.Database, c cache.Cache, dispatcher service.NotificationDispatcher, mw *middleware.Middleware, maxSlotIndex int) *service.ScheduleService {
	repo := repository.NewScheduleRepository(&db)
	changeFeed := feed.NewRedisFeed(c)
	svc := service.NewScheduleService(repo, changeFeed, c, dispatcher, maxSlotIndex)
	ctrl := controller.NewScheduleController(svc)

	router.NewScheduleRouter(ctrl).Register(e, mw)

	return svc
}

// NewSyncSession builds a realtime session wired to Postgres and the redis
// change feed, for embedding the sync engine outside the HTTP surface.
func NewSyncSession(db database.Database, c cache.Cache, notifier sync.Notifier, opts sync.Options) (*sync.Session, error) {
	repo := repository.NewScheduleRepository(&db)
	changeFeed := feed.NewRedisFeed(c)
	remote := sync.NewPostgresRemote(repo, changeFeed)
	return sync.NewSession(remote, changeFeed, notifier, opts)
}
