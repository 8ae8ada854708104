package adminapi

import (
	"github.com/labstack/echo/v4"

	"github.com/talkincode/qrfactory/internal/bulksync"
)

type bulkPayload struct {
	Source string           `json:"source"`
	Config *bulksync.Config `json:"config"`
	Rows   []bulksync.Row   `json:"rows"`
}

// bulkUpsertHandler applies the posted rows to one entity kind
func bulkUpsertHandler(kind bulksync.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var payload bulkPayload
		if err := bindJSON(c, &payload); err != nil {
			return failErr(c, err)
		}
		source := payload.Source
		if source == "" {
			source = "api"
		}
		n, err := GetAppContext(c).Sync().ApplyBatch(c.Request().Context(), bulksync.Batch{
			Kind:   kind,
			Source: source,
			Config: payload.Config,
			Rows:   payload.Rows,
		}, actor(c))
		if err != nil {
			return failErr(c, err)
		}
		return ok(c, echo.Map{"ok": true, "imported": n})
	}
}
