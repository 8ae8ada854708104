package adminapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/qrfactory/internal/bulksync"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/registry"
	"github.com/talkincode/qrfactory/internal/sheet"
	"github.com/talkincode/qrfactory/internal/webserver"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var maxUploadBytes int64 = 32 << 20

func registerSheetRoutes() {
	webserver.ApiPOST("/import/xlsx", importWorkbook)
	webserver.ApiGET("/export/xlsx", exportWorkbook)
	webserver.ApiGET("/export/products.csv", exportProductsCSV)
}

// uploadReader returns the multipart "file" field, or the raw body when the
// request is not multipart.
func uploadReader(c echo.Context) (io.Reader, string, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, "", domain.InvalidArgument("unable to open upload")
		}
		defer f.Close()
		data, err := readUpload(f)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), fh.Filename, nil
	}
	data, err := readUpload(c.Request().Body)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", domain.InvalidArgument("workbook file is required")
	}
	source := c.QueryParam("source")
	if source == "" {
		source = "upload.xlsx"
	}
	return bytes.NewReader(data), source, nil
}

// readUpload reads at most maxUploadBytes and rejects anything longer.
func readUpload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return nil, domain.InvalidArgument("unable to read upload")
	}
	if int64(len(data)) > maxUploadBytes {
		return nil, domain.InvalidArgument("file too large, limit is %d bytes", maxUploadBytes)
	}
	return data, nil
}

func importWorkbook(c echo.Context) error {
	r, source, err := uploadReader(c)
	if err != nil {
		return failErr(c, err)
	}
	batches, err := sheet.ReadWorkbook(r, source)
	if err != nil {
		return failErr(c, err)
	}
	imported := map[bulksync.Kind]int{}
	for _, batch := range batches {
		n, err := GetAppContext(c).Sync().ApplyBatch(c.Request().Context(), batch, actor(c))
		if err != nil {
			return failErr(c, err)
		}
		imported[batch.Kind] = n
	}
	return ok(c, echo.Map{"ok": true, "imported": imported})
}

func exportWorkbook(c echo.Context) error {
	var buf bytes.Buffer
	if err := sheet.Export(c.Request().Context(), GetAppContext(c).Registry(), &buf); err != nil {
		return failErr(c, err)
	}
	filename := fmt.Sprintf("qrfactory_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func exportProductsCSV(c echo.Context) error {
	rows, err := GetAppContext(c).Registry().ListProducts(c.Request().Context(), registry.ProductFilter{})
	if err != nil {
		return failErr(c, err)
	}
	var buf bytes.Buffer
	if err := sheet.WriteProductsCSV(&buf, rows); err != nil {
		return failErr(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=products.csv")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
