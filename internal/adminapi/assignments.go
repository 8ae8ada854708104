package adminapi

import (
	"github.com/labstack/echo/v4"

	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/webserver"
	"github.com/talkincode/qrfactory/pkg/common"
)

func registerAssignmentRoutes() {
	webserver.ApiGET("/assignments", listAssignments)
	webserver.ApiPOST("/assignments/set", setAssignment)
}

type assignmentPayload struct {
	StaffID    common.FlexInt64 `json:"staff_id"`
	CustomerID common.FlexInt64 `json:"customer_id"`
	On         bool             `json:"on"`
}

func listAssignments(c echo.Context) error {
	rows, err := GetAppContext(c).Registry().ListAssignments(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	if rows == nil {
		rows = []domain.AssignmentView{}
	}
	return ok(c, echo.Map{"rows": rows})
}

func setAssignment(c echo.Context) error {
	var payload assignmentPayload
	if err := bindJSON(c, &payload); err != nil {
		return failErr(c, err)
	}
	err := GetAppContext(c).Registry().SetAssignment(c.Request().Context(), actor(c),
		payload.StaffID.Int64(), payload.CustomerID.Int64(), payload.On)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"ok": true})
}
