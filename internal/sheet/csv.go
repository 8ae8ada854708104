package sheet

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/talkincode/qrfactory/internal/bulksync"
	"github.com/talkincode/qrfactory/internal/domain"
)

type productRecord struct {
	Code        string `csv:"code"`
	ProductName string `csv:"product_name"`
	BatchSerial string `csv:"batch_serial"`
	MfgDate     string `csv:"mfg_date"`
	ExpDate     string `csv:"exp_date"`
	NoteExtra   string `csv:"note_extra"`
	Status      string `csv:"status"`
	CreatedAt   string `csv:"created_at"`
	UpdatedAt   string `csv:"updated_at"`
}

// ReadProductsCSV reads a product CSV with a header line into batch rows.
func ReadProductsCSV(r io.Reader) ([]bulksync.Row, error) {
	var records []*productRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, domain.InvalidArgument("invalid products csv: %v", err)
	}
	rows := make([]bulksync.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, bulksync.Row{
			"code":         rec.Code,
			"product_name": rec.ProductName,
			"batch_serial": rec.BatchSerial,
			"mfg_date":     rec.MfgDate,
			"exp_date":     rec.ExpDate,
			"note_extra":   rec.NoteExtra,
			"status":       rec.Status,
		})
	}
	return rows, nil
}

// WriteProductsCSV writes products with the same header ReadProductsCSV expects.
func WriteProductsCSV(w io.Writer, products []domain.Product) error {
	records := make([]*productRecord, 0, len(products))
	for _, p := range products {
		records = append(records, &productRecord{
			Code:        p.Code,
			ProductName: p.ProductName,
			BatchSerial: p.BatchSerial,
			MfgDate:     p.MfgDate,
			ExpDate:     p.ExpDate,
			NoteExtra:   p.NoteExtra,
			Status:      p.Status,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return errors.Wrap(gocsv.Marshal(records, w), "write products csv")
}
