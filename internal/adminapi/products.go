package adminapi

import (
	"strings"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"

	"github.com/talkincode/qrfactory/internal/bulksync"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/links"
	"github.com/talkincode/qrfactory/internal/registry"
	"github.com/talkincode/qrfactory/internal/webserver"
	"github.com/talkincode/qrfactory/pkg/common"
)

// registerProductRoutes registers the product registry endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:code", getProduct)
	webserver.ApiPOST("/products", upsertProduct)
	webserver.ApiPOST("/generate", upsertProduct)
	webserver.ApiPOST("/products/bulkUpsert", bulkUpsertHandler(bulksync.KindProducts))
	webserver.ApiGET("/qr/:code/link", getScanLink)
}

// parseSince accepts any common date format and returns the stored layout
func parseSince(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return "", domain.InvalidArgument("invalid since value %q", s)
	}
	return common.FmtTime(t), nil
}

func listProducts(c echo.Context) error {
	since, err := parseSince(c.QueryParam("since"))
	if err != nil {
		return failErr(c, err)
	}
	rows, err := GetAppContext(c).Registry().ListProducts(c.Request().Context(), registry.ProductFilter{
		Query: strings.TrimSpace(c.QueryParam("q")),
		Since: since,
	})
	if err != nil {
		return failErr(c, err)
	}
	if rows == nil {
		rows = []domain.Product{}
	}
	return ok(c, echo.Map{"rows": rows})
}

func getProduct(c echo.Context) error {
	row, err := GetAppContext(c).Registry().GetProduct(c.Request().Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"row": row})
}

func upsertProduct(c echo.Context) error {
	var in registry.ProductInput
	if err := bindJSON(c, &in); err != nil {
		return failErr(c, err)
	}
	code, err := GetAppContext(c).Registry().UpsertProduct(c.Request().Context(), actor(c), in)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{
		"ok":       true,
		"code":     code,
		"scan_url": links.ScanURL(publicBase(c), code),
	})
}

func getScanLink(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return failErr(c, domain.InvalidArgument("code is required"))
	}
	return ok(c, echo.Map{"code": code, "scan_url": links.ScanURL(publicBase(c), code)})
}
