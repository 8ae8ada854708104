package bulksync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/talkincode/qrfactory/internal/audit"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/settings"
	"github.com/talkincode/qrfactory/internal/testutil"
)

func newSync(t *testing.T) (*Synchronizer, *gorm.DB, *settings.Store, *audit.Ledger) {
	t.Helper()
	db := testutil.NewDB(t)
	clock := testutil.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	store := settings.NewStore(db)
	ledger := audit.NewLedger(db).WithClock(clock.Now)
	return New(db, store, ledger).WithClock(clock.Now), db, store, ledger
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Product ")
	require.NoError(t, err)
	assert.Equal(t, KindProducts, k)
	_, err = ParseKind("orders")
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}

func TestSplitConfigRecord(t *testing.T) {
	rows := []Row{
		{"publicBaseUrl": " http://lan:3131 ", "code": ""},
		{"code": "A", "product_name": "Apple"},
	}
	cfg, rest := SplitConfigRecord(rows)
	require.NotNil(t, cfg)
	assert.Equal(t, "http://lan:3131", cfg.PublicBaseURL)
	assert.Len(t, rest, 1)

	cfg, rest = SplitConfigRecord(rows[1:])
	assert.Nil(t, cfg)
	assert.Len(t, rest, 1)

	cfg, _ = SplitConfigRecord([]Row{{"publicBaseUrl": "x", "code": "A"}})
	assert.Nil(t, cfg)
}

func TestApplyBatchSkipsMalformedRows(t *testing.T) {
	s, db, _, ledger := newSync(t)
	ctx := context.Background()

	n, err := s.ApplyBatch(ctx, Batch{
		Kind:   KindCustomers,
		Source: "customers.xlsx",
		Rows: []Row{
			{"name": "Acme", "contract_value": "1500.50"},
			{"name": "  "},
			{"Name": "Globex", "contract_value": -3},
			{"note": "missing name"},
			{"name": "Initech", "id": "", "status": "trial"},
		},
	}, "importer")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var customers []domain.Customer
	require.NoError(t, db.Order("name").Find(&customers).Error)
	require.Len(t, customers, 3)
	assert.Equal(t, "Acme", customers[0].Name)
	assert.Equal(t, 1500.5, customers[0].ContractValue)
	assert.Equal(t, 0.0, customers[1].ContractValue)
	assert.Equal(t, "trial", customers[2].Status)

	entries, err := ledger.Query(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionBulkImportExcel, entries[0].Action)
	assert.Equal(t, 3, cast.ToInt(entries[0].Detail["imported"]))
}

func TestApplyBatchProductsRequireCode(t *testing.T) {
	s, db, _, _ := newSync(t)
	n, err := s.ApplyBatch(context.Background(), Batch{
		Kind: KindProducts,
		Rows: []Row{
			{"code": "P-1", "product_name": "Widget", "mfg_date": "01-01-2024", "status": "ACTIVE"},
			{"product_name": "No code"},
			{"code": "P-2", "product_name": "Gadget"},
		},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var p domain.Product
	require.NoError(t, db.Where("code = ?", "P-1").First(&p).Error)
	assert.Equal(t, "active", p.Status)
	assert.Equal(t, "01-01-2024", p.MfgDate)
}

func TestApplyBatchStaffUpdatesById(t *testing.T) {
	s, db, _, _ := newSync(t)
	ctx := context.Background()
	_, err := s.ApplyBatch(ctx, Batch{Kind: KindStaff, Rows: []Row{{"id": "1001", "name": "Ann"}}}, "")
	require.NoError(t, err)
	_, err = s.ApplyBatch(ctx, Batch{Kind: KindStaff, Rows: []Row{{"id": 1001, "name": "Ann B"}}}, "")
	require.NoError(t, err)

	var staff []domain.Staff
	require.NoError(t, db.Find(&staff).Error)
	require.Len(t, staff, 1)
	assert.Equal(t, int64(1001), staff[0].ID)
	assert.Equal(t, "Ann B", staff[0].Name)
}

func TestApplyBatchConfigRecord(t *testing.T) {
	s, _, store, _ := newSync(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.SettingPublicBaseURL, "http://old:3131"))
	require.Equal(t, "http://old:3131", store.GetString(ctx, domain.SettingPublicBaseURL))

	n, err := s.ApplyBatch(ctx, Batch{
		Kind: KindProducts,
		Rows: []Row{
			{"publicBaseUrl": "http://192.168.1.20:3131"},
			{"code": "P-1", "product_name": "Widget"},
		},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, ok, err := store.Get(ctx, domain.SettingPublicBaseURL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://192.168.1.20:3131", v)
}

func TestApplyBatchRollsBackOnStorageFailure(t *testing.T) {
	s, db, store, ledger := newSync(t)
	ctx := context.Background()

	inserts := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_third", func(tx *gorm.DB) {
		if tx.Statement.Table != "products" {
			return
		}
		inserts++
		if inserts == 3 {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := s.ApplyBatch(ctx, Batch{
		Kind:   KindProducts,
		Config: &Config{PublicBaseURL: "http://rollback:1"},
		Rows: []Row{
			{"code": "P-1", "product_name": "One"},
			{"code": "P-2", "product_name": "Two"},
			{"code": "P-3", "product_name": "Three"},
		},
	}, "")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindStorageFailure))

	var count int64
	require.NoError(t, db.Model(&domain.Product{}).Count(&count).Error)
	assert.Zero(t, count)

	_, ok, err := store.Get(ctx, domain.SettingPublicBaseURL)
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := ledger.Query(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
