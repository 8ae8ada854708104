// Package sheet converts between registry listings and spreadsheet files.
package sheet

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/talkincode/qrfactory/internal/bulksync"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/registry"
)

const ConfigSheet = "config"

var (
	productColumns  = []string{"code", "product_name", "batch_serial", "mfg_date", "exp_date", "note_extra", "status", "created_at", "updated_at"}
	customerColumns = []string{"id", "name", "contract_start", "contract_end", "product_type", "contract_value", "status", "note", "created_at", "updated_at"}
	staffColumns    = []string{"id", "name", "email", "phone", "note", "created_at", "updated_at"}
)

var sheetOrder = []bulksync.Kind{bulksync.KindProducts, bulksync.KindCustomers, bulksync.KindStaff}

func findSheet(f *excelize.File, name string) string {
	for _, s := range f.GetSheetMap() {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return s
		}
	}
	return ""
}

func sheetRows(f *excelize.File, name string) []bulksync.Row {
	rows := f.GetRows(name)
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]
	var out []bulksync.Row
	for _, cells := range rows[1:] {
		row := make(bulksync.Row, len(header))
		blank := true
		for i, key := range header {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			var v string
			if i < len(cells) {
				v = strings.TrimSpace(cells[i])
			}
			if v != "" {
				blank = false
			}
			row[key] = v
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}

// ReadWorkbook reads the products, customers and staff sheets into batches.
// A config sheet with publicBaseUrl in A2 is attached to the first batch.
func ReadWorkbook(r io.Reader, source string) ([]bulksync.Batch, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.InvalidArgument("not a valid xlsx workbook: %v", err)
	}

	var cfg *bulksync.Config
	if name := findSheet(f, ConfigSheet); name != "" {
		if v := strings.TrimSpace(f.GetCellValue(name, "A2")); v != "" {
			cfg = &bulksync.Config{PublicBaseURL: v}
		}
	}

	var batches []bulksync.Batch
	for _, kind := range sheetOrder {
		name := findSheet(f, string(kind))
		if name == "" {
			continue
		}
		batches = append(batches, bulksync.Batch{Kind: kind, Source: source, Rows: sheetRows(f, name)})
	}
	if cfg != nil {
		if len(batches) == 0 {
			batches = append(batches, bulksync.Batch{Kind: bulksync.KindProducts, Source: source})
		}
		batches[0].Config = cfg
	}
	if len(batches) == 0 {
		return nil, domain.InvalidArgument("workbook has no products, customers or staff sheet")
	}
	return batches, nil
}

func writeSheet(f *excelize.File, name string, columns []string, rows [][]interface{}) {
	for i, col := range columns {
		f.SetCellValue(name, excelize.ToAlphaString(i)+"1", col)
	}
	for r, row := range rows {
		line := strconv.Itoa(r + 2)
		for i, v := range row {
			f.SetCellValue(name, excelize.ToAlphaString(i)+line, v)
		}
	}
}

// WriteWorkbook writes one sheet per entity kind using the import column
// names, so an exported file can be imported back unchanged.
func WriteWorkbook(w io.Writer, products []domain.Product, customers []domain.Customer, staff []domain.Staff) error {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", string(bulksync.KindProducts))
	f.NewSheet(string(bulksync.KindCustomers))
	f.NewSheet(string(bulksync.KindStaff))

	prows := make([][]interface{}, 0, len(products))
	for _, p := range products {
		prows = append(prows, []interface{}{p.Code, p.ProductName, p.BatchSerial, p.MfgDate, p.ExpDate, p.NoteExtra, p.Status, p.CreatedAt, p.UpdatedAt})
	}
	writeSheet(f, string(bulksync.KindProducts), productColumns, prows)

	crows := make([][]interface{}, 0, len(customers))
	for _, c := range customers {
		crows = append(crows, []interface{}{strconv.FormatInt(c.ID, 10), c.Name, c.ContractStart, c.ContractEnd, c.ProductType, c.ContractValue, c.Status, c.Note, c.CreatedAt, c.UpdatedAt})
	}
	writeSheet(f, string(bulksync.KindCustomers), customerColumns, crows)

	srows := make([][]interface{}, 0, len(staff))
	for _, s := range staff {
		srows = append(srows, []interface{}{strconv.FormatInt(s.ID, 10), s.Name, s.Email, s.Phone, s.Note, s.CreatedAt, s.UpdatedAt})
	}
	writeSheet(f, string(bulksync.KindStaff), staffColumns, srows)

	return errors.Wrap(f.Write(w), "write workbook")
}

// Lister is the registry subset used by Export
type Lister interface {
	ListProducts(ctx context.Context, filter registry.ProductFilter) ([]domain.Product, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	ListStaff(ctx context.Context) ([]domain.Staff, error)
}

// Export loads the three listings concurrently and writes them as one
// workbook.
func Export(ctx context.Context, src Lister, w io.Writer) error {
	var (
		products  []domain.Product
		customers []domain.Customer
		staff     []domain.Staff
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = src.ListProducts(gctx, registry.ProductFilter{})
		return err
	})
	g.Go(func() (err error) {
		customers, err = src.ListCustomers(gctx)
		return err
	})
	g.Go(func() (err error) {
		staff, err = src.ListStaff(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return WriteWorkbook(w, products, customers, staff)
}
