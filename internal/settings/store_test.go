package settings

import (
	"context"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/testutil"
)

func TestStoreGetSet(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", "v1"))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	require.NoError(t, store.Set(ctx, "k", "v2"))
	assert.Equal(t, "v2", store.GetString(ctx, "k"))
}

func TestStoreBootstrapIdempotent(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	require.NoError(t, store.Bootstrap(ctx, Defaults{PublicBaseURL: "http://lan:3131"}))
	code := store.GetString(ctx, domain.SettingAdminCode)
	assert.Len(t, code, 12)
	assert.Equal(t, DefaultInstallURL, store.GetString(ctx, domain.SettingInstallURL))
	assert.Equal(t, "http://lan:3131", store.GetString(ctx, domain.SettingPublicBaseURL))

	require.NoError(t, store.Bootstrap(ctx, Defaults{PublicBaseURL: "http://other"}))
	assert.Equal(t, code, store.GetString(ctx, domain.SettingAdminCode))
	assert.Equal(t, "http://lan:3131", store.GetString(ctx, domain.SettingPublicBaseURL))
}

func TestStoreTxRollbackInvalidatesCache(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", "before"))
	assert.Equal(t, "before", store.GetString(ctx, "k"))

	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, store.WithTx(tx).Set(ctx, "k", "inside"))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "before", store.GetString(ctx, "k"))
}

func TestStoreInvalidateAfterCommit(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", "before"))

	err := db.Transaction(func(tx *gorm.DB) error {
		txStore := store.WithTx(tx)
		require.NoError(t, txStore.Set(ctx, "k", "inside"))
		assert.Equal(t, "inside", txStore.GetString(ctx, "k"))
		// a reader outside the transaction caches the committed value
		store.cache.Set("k", "before", cache.DefaultExpiration)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "before", store.GetString(ctx, "k"))

	store.Invalidate("k")
	assert.Equal(t, "inside", store.GetString(ctx, "k"))
}

func TestStoreTxReadsDoNotFillCache(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		txStore := store.WithTx(tx)
		require.NoError(t, txStore.Set(ctx, "k", "uncommitted"))
		assert.Equal(t, "uncommitted", txStore.GetString(ctx, "k"))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	_, cached := store.cache.Get("k")
	assert.False(t, cached)
	assert.Equal(t, "", store.GetString(ctx, "k"))
}
