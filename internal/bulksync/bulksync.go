// Package bulksync applies externally supplied row batches to the registry
// in a single transaction.
package bulksync

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/qrfactory/internal/audit"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/registry"
	"github.com/talkincode/qrfactory/internal/settings"
)

// Kind names the entity a batch targets
type Kind string

const (
	KindProducts  Kind = "products"
	KindCustomers Kind = "customers"
	KindStaff     Kind = "staff"
)

// ParseKind accepts the plural or singular entity name
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "products", "product":
		return KindProducts, nil
	case "customers", "customer":
		return KindCustomers, nil
	case "staff":
		return KindStaff, nil
	}
	return "", domain.InvalidArgument("unknown batch kind %q", s)
}

// ConfigKey is the row key carrying the public base URL override
const ConfigKey = "publicBaseUrl"

// Config is the optional configuration record of a batch
type Config struct {
	PublicBaseURL string `json:"publicBaseUrl" mapstructure:"publicBaseUrl"`
}

// Row is one loosely typed record
type Row = map[string]interface{}

// Batch is a set of rows for one entity kind
type Batch struct {
	Kind   Kind
	Source string
	Config *Config
	Rows   []Row
}

// SplitConfigRecord lifts a leading row that only carries publicBaseUrl
// out of rows.
func SplitConfigRecord(rows []Row) (*Config, []Row) {
	if len(rows) == 0 {
		return nil, rows
	}
	first := rows[0]
	var base string
	found := false
	for k, v := range first {
		if strings.EqualFold(strings.TrimSpace(k), ConfigKey) {
			base = strings.TrimSpace(cast.ToString(v))
			found = true
			continue
		}
		if strings.TrimSpace(cast.ToString(v)) != "" {
			return nil, rows
		}
	}
	if !found {
		return nil, rows
	}
	return &Config{PublicBaseURL: base}, rows[1:]
}

// Synchronizer applies batches
type Synchronizer struct {
	db       *gorm.DB
	settings *settings.Store
	audit    audit.Sink
	now      func() time.Time
}

func New(db *gorm.DB, store *settings.Store, sink audit.Sink) *Synchronizer {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Synchronizer{db: db, settings: store, audit: sink, now: time.Now}
}

// WithClock replaces the timestamp source
func (s *Synchronizer) WithClock(now func() time.Time) *Synchronizer {
	s.now = now
	return s
}

type accepted struct {
	products  []registry.ProductInput
	customers []registry.CustomerInput
	staff     []registry.StaffInput
}

func (a accepted) len() int {
	return len(a.products) + len(a.customers) + len(a.staff)
}

// filterRows decodes every row and keeps those carrying their required keys.
func filterRows(kind Kind, rows []Row) accepted {
	var out accepted
	for i, row := range rows {
		var err error
		switch kind {
		case KindProducts:
			var in registry.ProductInput
			if err = decodeRow(row, &in); err == nil &&
				strings.TrimSpace(in.Code) != "" && strings.TrimSpace(in.ProductName) != "" {
				out.products = append(out.products, in)
				continue
			}
		case KindCustomers:
			var in registry.CustomerInput
			if err = decodeRow(row, &in); err == nil && strings.TrimSpace(in.Name) != "" {
				out.customers = append(out.customers, in)
				continue
			}
		case KindStaff:
			var in registry.StaffInput
			if err = decodeRow(row, &in); err == nil && strings.TrimSpace(in.Name) != "" {
				out.staff = append(out.staff, in)
				continue
			}
		}
		zap.L().Debug("bulk row skipped", zap.String("kind", string(kind)), zap.Int("row", i), zap.Error(err))
	}
	return out
}

// ApplyBatch applies the accepted rows of batch and the optional config
// record atomically and returns the number of rows applied.
func (s *Synchronizer) ApplyBatch(ctx context.Context, batch Batch, actor string) (int, error) {
	if _, err := ParseKind(string(batch.Kind)); err != nil {
		return 0, err
	}
	cfg, rows := batch.Config, batch.Rows
	if cfg == nil {
		cfg, rows = SplitConfigRecord(rows)
	}
	rowsAccepted := filterRows(batch.Kind, rows)
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cfg != nil && cfg.PublicBaseURL != "" {
			if err := s.settings.WithTx(tx).Set(ctx, domain.SettingPublicBaseURL, cfg.PublicBaseURL); err != nil {
				return err
			}
		}
		repos := registry.NewGormRepositories(tx)
		for _, in := range rowsAccepted.products {
			if _, err := registry.SaveProduct(ctx, repos, in, now); err != nil {
				return err
			}
		}
		for _, in := range rowsAccepted.customers {
			if _, _, err := registry.SaveCustomer(ctx, repos, in, now); err != nil {
				return err
			}
		}
		for _, in := range rowsAccepted.staff {
			if _, _, err := registry.SaveStaff(ctx, repos, in, now); err != nil {
				return err
			}
		}
		return nil
	})
	if cfg != nil && cfg.PublicBaseURL != "" {
		s.settings.Invalidate(domain.SettingPublicBaseURL)
	}
	if err != nil {
		zap.L().Error("bulk sync rolled back",
			zap.String("kind", string(batch.Kind)),
			zap.String("source", batch.Source),
			zap.Error(err))
		var de *domain.Error
		if errors.As(err, &de) {
			return 0, err
		}
		return 0, domain.StorageFailure(pkgerrors.Wrap(err, "apply batch"), "bulk sync failed")
	}

	count := rowsAccepted.len()
	detail := map[string]interface{}{
		"kind":     string(batch.Kind),
		"source":   batch.Source,
		"received": len(rows),
		"imported": count,
	}
	if cfg != nil && cfg.PublicBaseURL != "" {
		detail["public_base_url"] = cfg.PublicBaseURL
	}
	s.audit.Append(ctx, audit.Entry{
		Actor:  actor,
		Action: domain.ActionBulkImportExcel,
		Code:   string(batch.Kind),
		Detail: detail,
	})
	return count, nil
}
