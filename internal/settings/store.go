// Package settings is the durable key/value store behind the admin secret,
// the install URL and the public base URL.
package settings

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/pkg/common"
)

const cacheTTL = 5 * time.Minute

// Store reads through a process cache and writes through to the database.
type Store struct {
	db    *gorm.DB
	cache *cache.Cache
	now   func() time.Time
	inTx  bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		cache: cache.New(cacheTTL, 2*cacheTTL),
		now:   time.Now,
	}
}

// WithTx returns a store bound to tx that shares the cache. Reads through it
// never fill the cache, and the caller must Invalidate the keys it wrote once
// the transaction has finished.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx, cache: s.cache, now: s.now, inTx: true}
}

// Invalidate drops keys from the cache.
func (s *Store) Invalidate(keys ...string) {
	for _, key := range keys {
		s.cache.Delete(key)
	}
}

// Get returns the value and whether the key exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.(string), true, nil
	}
	var row domain.SysSetting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.StorageFailure(pkgerrors.Wrapf(err, "get setting %s", key), "failed to read setting")
	}
	if !s.inTx {
		s.cache.Set(key, row.Value, cache.DefaultExpiration)
	}
	return row.Value, true, nil
}

// GetString returns the value or "" when absent.
func (s *Store) GetString(ctx context.Context, key string) string {
	v, _, err := s.Get(ctx, key)
	if err != nil {
		zap.L().Warn("read setting failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return v
}

// Set upserts key and stamps updated_at.
func (s *Store) Set(ctx context.Context, key, value string) error {
	row := domain.SysSetting{Key: key, Value: value, UpdatedAt: common.FmtTime(s.now())}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	s.cache.Delete(key)
	if err != nil {
		return domain.StorageFailure(pkgerrors.Wrapf(err, "set setting %s", key), "failed to write setting")
	}
	return nil
}

// Defaults are applied by Bootstrap when a key is missing.
type Defaults struct {
	InstallURL    string
	PublicBaseURL string
}

const DefaultInstallURL = "https://example.com/qrfactory/install"

// Bootstrap generates the admin code and seeds placeholders on first start.
// Existing values are never touched.
func (s *Store) Bootstrap(ctx context.Context, defaults Defaults) error {
	if _, ok, err := s.Get(ctx, domain.SettingAdminCode); err != nil {
		return err
	} else if !ok {
		code := common.RandBase36(12)
		if err := s.Set(ctx, domain.SettingAdminCode, code); err != nil {
			return err
		}
		zap.L().Warn("generated initial admin code, change it from the admin panel",
			zap.String("admin_code", code))
	}

	if _, ok, err := s.Get(ctx, domain.SettingInstallURL); err != nil {
		return err
	} else if !ok {
		url := defaults.InstallURL
		if url == "" {
			url = DefaultInstallURL
		}
		if err := s.Set(ctx, domain.SettingInstallURL, url); err != nil {
			return err
		}
		zap.L().Info("initialized setting", zap.String("key", domain.SettingInstallURL), zap.String("value", url))
	}

	if defaults.PublicBaseURL != "" {
		if _, ok, err := s.Get(ctx, domain.SettingPublicBaseURL); err != nil {
			return err
		} else if !ok {
			if err := s.Set(ctx, domain.SettingPublicBaseURL, defaults.PublicBaseURL); err != nil {
				return err
			}
		}
	}
	return nil
}
