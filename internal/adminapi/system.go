package adminapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/qrfactory/internal/webserver"
	"github.com/talkincode/qrfactory/pkg/common"
)

func registerSystemRoutes() {
	webserver.GET("/health", health)
	registerDbmsRoutes()
}

func health(c echo.Context) error {
	appCtx := GetAppContext(c)
	db := appCtx.Config().Database.Type
	if appCtx.Config().IsSqlite() {
		db = appCtx.Config().SqlitePath()
	}
	return ok(c, echo.Map{"ok": true, "db": db, "time": common.FmtTime(time.Now())})
}
