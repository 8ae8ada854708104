package sheet

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/qrfactory/internal/bulksync"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/registry"
)

type fakeLister struct {
	products  []domain.Product
	customers []domain.Customer
	staff     []domain.Staff
}

func (f fakeLister) ListProducts(context.Context, registry.ProductFilter) ([]domain.Product, error) {
	return f.products, nil
}

func (f fakeLister) ListCustomers(context.Context) ([]domain.Customer, error) {
	return f.customers, nil
}

func (f fakeLister) ListStaff(context.Context) ([]domain.Staff, error) {
	return f.staff, nil
}

func TestWorkbookRoundTrip(t *testing.T) {
	src := fakeLister{
		products: []domain.Product{
			{Code: "AB12-CD34-X", ProductName: "Widget", MfgDate: "01-02-2024", Status: "active"},
			{Code: "EF56-GH78-Y", ProductName: "Gadget", BatchSerial: "B7", Status: "recalled"},
		},
		customers: []domain.Customer{{ID: 1790000000000000001, Name: "Acme", ContractValue: 12.5, Status: "active"}},
		staff:     []domain.Staff{{ID: 42, Name: "Ann", Email: "ann@example.com"}},
	}
	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), src, &buf))

	batches, err := ReadWorkbook(bytes.NewReader(buf.Bytes()), "export.xlsx")
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.Equal(t, bulksync.KindProducts, batches[0].Kind)
	require.Len(t, batches[0].Rows, 2)
	assert.Equal(t, "AB12-CD34-X", batches[0].Rows[0]["code"])
	assert.Equal(t, "01-02-2024", batches[0].Rows[0]["mfg_date"])
	assert.Equal(t, "B7", batches[0].Rows[1]["batch_serial"])
	assert.Nil(t, batches[0].Config)

	assert.Equal(t, bulksync.KindCustomers, batches[1].Kind)
	require.Len(t, batches[1].Rows, 1)
	assert.Equal(t, "1790000000000000001", batches[1].Rows[0]["id"])
	assert.Equal(t, "Acme", batches[1].Rows[0]["name"])

	assert.Equal(t, bulksync.KindStaff, batches[2].Kind)
	assert.Equal(t, "ann@example.com", batches[2].Rows[0]["email"])
	assert.Equal(t, "export.xlsx", batches[2].Source)
}

func TestReadWorkbookConfigSheet(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Staff")
	f.SetCellValue("Staff", "A1", "name")
	f.SetCellValue("Staff", "A2", "Zoe")
	f.SetCellValue("Staff", "A3", "")
	f.NewSheet("config")
	f.SetCellValue("config", "A1", "publicBaseUrl")
	f.SetCellValue("config", "A2", "http://lan:3131")

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	batches, err := ReadWorkbook(&buf, "staff.xlsx")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, bulksync.KindStaff, batches[0].Kind)
	require.NotNil(t, batches[0].Config)
	assert.Equal(t, "http://lan:3131", batches[0].Config.PublicBaseURL)
	assert.Len(t, batches[0].Rows, 1)
}

func TestReadWorkbookInvalid(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("not a zip"), "x")
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}

func TestProductsCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProductsCSV(&buf, []domain.Product{
		{Code: "P-1", ProductName: "Widget, large", Status: "active"},
	}))
	assert.True(t, strings.HasPrefix(buf.String(), "code,product_name,"))

	rows, err := ReadProductsCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "P-1", rows[0]["code"])
	assert.Equal(t, "Widget, large", rows[0]["product_name"])
}
