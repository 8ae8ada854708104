package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/testutil"
)

func TestLedgerAppendAndQuery(t *testing.T) {
	db := testutil.NewDB(t)
	clock := testutil.NewClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	ledger := NewLedger(db).WithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ledger.Append(ctx, Entry{
			Actor:  "desk-1",
			Action: domain.ActionUpsertProduct,
			Code:   fmt.Sprintf("CODE-%d", i%2),
			Detail: map[string]interface{}{"n": i},
		})
		clock.Advance(time.Second)
	}

	rows, err := ledger.Query(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "CODE-0", rows[0].Code)
	assert.Greater(t, rows[0].Ts, rows[1].Ts)
	assert.Equal(t, 2, cast.ToInt(rows[0].Detail["n"]))

	rows, err = ledger.Query(ctx, "CODE-1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "desk-1", rows[0].Actor)
}

func TestLedgerQueryLimitCapped(t *testing.T) {
	db := testutil.NewDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ledger.Append(ctx, Entry{Action: domain.ActionSetAssignment, Code: "1:2"})
	}
	rows, err := ledger.Query(ctx, "1:2", 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = ledger.Query(ctx, "1:2", 100000)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestLedgerAppendSwallowsErrors(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Migrator().DropTable(&domain.AuditEntry{}))
	ledger := NewLedger(db)

	assert.NotPanics(t, func() {
		ledger.Append(context.Background(), Entry{Action: domain.ActionUpsertProduct, Code: "X"})
	})
}
