package adminapi

import (
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/webserver"
)

// DBMSTableInfo represents table metadata
type DBMSTableInfo struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

type backupPayload struct {
	AdminCode string `json:"admin_code"`
}

func registerDbmsRoutes() {
	webserver.ApiGET("/system/tables", dbmsListTables)
	webserver.ApiPOST("/system/backup", dbmsBackupDatabase)
}

type tabler interface {
	TableName() string
}

// dbmsListTables returns the row count of every registry table
func dbmsListTables(c echo.Context) error {
	db := GetDB(c).WithContext(c.Request().Context())
	tables := make([]DBMSTableInfo, 0, len(domain.Tables))
	for _, model := range domain.Tables {
		t, isTabler := model.(tabler)
		if !isTabler {
			continue
		}
		var count int64
		if err := db.Model(model).Count(&count).Error; err != nil {
			return failErr(c, domain.StorageFailure(errors.Wrapf(err, "count %s", t.TableName()), "failed to query tables"))
		}
		tables = append(tables, DBMSTableInfo{Name: t.TableName(), RowCount: count})
	}
	return ok(c, echo.Map{"rows": tables, "type": db.Dialector.Name()})
}

// dbmsBackupDatabase writes a snapshot into the backup directory
func dbmsBackupDatabase(c echo.Context) error {
	var payload backupPayload
	if err := bindJSON(c, &payload); err != nil {
		return failErr(c, err)
	}
	appCtx := GetAppContext(c)
	if err := appCtx.Tokens().VerifyAdmin(c.Request().Context(), payload.AdminCode); err != nil {
		return failErr(c, err)
	}
	path, err := appCtx.Backup(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"ok": true, "file": filepath.Base(path)})
}
