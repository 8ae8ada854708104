// Package audit is the append-only action ledger. Appending is best effort:
// the Sink contract has no error return and a failed write never reaches
// the caller that triggered it.
package audit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/pkg/common"
)

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 500
)

// Entry is an append request
type Entry struct {
	Actor  string
	Action string
	Code   string
	Detail map[string]interface{}
}

// Sink accepts ledger entries and never fails.
type Sink interface {
	Append(ctx context.Context, e Entry)
}

// Nop discards entries
type Nop struct{}

func (Nop) Append(context.Context, Entry) {}

// Ledger is the GORM backed ledger
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Sink = (*Ledger)(nil)

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// WithClock replaces the timestamp source
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Append writes the entry. Persistence errors are logged and dropped.
func (l *Ledger) Append(ctx context.Context, e Entry) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("audit append panic", zap.Any("panic", r), zap.String("action", e.Action))
		}
	}()
	row := domain.AuditEntry{
		Ts:     common.FmtTime(l.now()),
		Actor:  e.Actor,
		Action: e.Action,
		Code:   e.Code,
		Detail: datatypes.JSONMap(e.Detail),
	}
	if row.Detail == nil {
		row.Detail = datatypes.JSONMap{}
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		zap.L().Warn("audit append failed",
			zap.String("action", e.Action),
			zap.String("code", e.Code),
			zap.Error(err))
	}
}

// Query returns entries newest first, optionally filtered by correlation code.
func (l *Ledger) Query(ctx context.Context, code string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	query := l.db.WithContext(ctx).Model(&domain.AuditEntry{})
	if code != "" {
		query = query.Where("code = ?", code)
	}
	var rows []domain.AuditEntry
	if err := query.Order("ts DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, domain.StorageFailure(errors.Wrap(err, "query audit"), "failed to query audit log")
	}
	return rows, nil
}
