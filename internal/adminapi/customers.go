package adminapi

import (
	"github.com/labstack/echo/v4"

	"github.com/talkincode/qrfactory/internal/bulksync"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/registry"
	"github.com/talkincode/qrfactory/internal/webserver"
	"github.com/talkincode/qrfactory/pkg/common"
)

func registerCustomerRoutes() {
	webserver.ApiGET("/customers", listCustomers)
	webserver.ApiPOST("/customers/upsert", upsertCustomer)
	webserver.ApiPOST("/customers/delete", deleteCustomer)
	webserver.ApiPOST("/customers/bulkUpsert", bulkUpsertHandler(bulksync.KindCustomers))
}

func registerStaffRoutes() {
	webserver.ApiGET("/staff", listStaff)
	webserver.ApiPOST("/staff/upsert", upsertStaff)
	webserver.ApiPOST("/staff/delete", deleteStaff)
	webserver.ApiPOST("/staff/bulkUpsert", bulkUpsertHandler(bulksync.KindStaff))
}

type deletePayload struct {
	ID common.FlexInt64 `json:"id"`
}

func listCustomers(c echo.Context) error {
	rows, err := GetAppContext(c).Registry().ListCustomers(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	if rows == nil {
		rows = []domain.Customer{}
	}
	return ok(c, echo.Map{"rows": rows})
}

func upsertCustomer(c echo.Context) error {
	var in registry.CustomerInput
	if err := bindJSON(c, &in); err != nil {
		return failErr(c, err)
	}
	row, err := GetAppContext(c).Registry().UpsertCustomer(c.Request().Context(), actor(c), in)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"ok": true, "row": row})
}

func deleteCustomer(c echo.Context) error {
	var payload deletePayload
	if err := bindJSON(c, &payload); err != nil {
		return failErr(c, err)
	}
	if err := GetAppContext(c).Registry().DeleteCustomer(c.Request().Context(), actor(c), payload.ID.Int64()); err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"ok": true})
}

func listStaff(c echo.Context) error {
	rows, err := GetAppContext(c).Registry().ListStaff(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	if rows == nil {
		rows = []domain.Staff{}
	}
	return ok(c, echo.Map{"rows": rows})
}

func upsertStaff(c echo.Context) error {
	var in registry.StaffInput
	if err := bindJSON(c, &in); err != nil {
		return failErr(c, err)
	}
	row, err := GetAppContext(c).Registry().UpsertStaff(c.Request().Context(), actor(c), in)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"ok": true, "row": row})
}

func deleteStaff(c echo.Context) error {
	var payload deletePayload
	if err := bindJSON(c, &payload); err != nil {
		return failErr(c, err)
	}
	if err := GetAppContext(c).Registry().DeleteStaff(c.Request().Context(), actor(c), payload.ID.Int64()); err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"ok": true})
}
