package adminapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/webserver"
)

func registerAuditRoutes() {
	webserver.ApiGET("/audit", queryAudit)
}

func queryAudit(c echo.Context) error {
	limit := cast.ToInt(strings.TrimSpace(c.QueryParam("limit")))
	rows, err := GetAppContext(c).Ledger().Query(c.Request().Context(), strings.TrimSpace(c.QueryParam("code")), limit)
	if err != nil {
		return failErr(c, err)
	}
	if rows == nil {
		rows = []domain.AuditEntry{}
	}
	return ok(c, echo.Map{"rows": rows})
}
