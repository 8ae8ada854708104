// Package token issues and consumes single-use login/logout tokens and
// guards the admin-secret protected settings.
package token

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/qrfactory/internal/audit"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/links"
	"github.com/talkincode/qrfactory/pkg/common"
)

const (
	DefaultTTLMinutes = 10
	MinTTLMinutes     = 1
	MaxTTLMinutes     = 1440
	MinAdminCodeLen   = 6
)

// SettingStore is the settings subset the authority needs
type SettingStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	GetString(ctx context.Context, key string) string
	Set(ctx context.Context, key, value string) error
}

// IssueRequest describes a token to mint. BaseURL is the fallback used for
// the link when no public_base_url is configured.
type IssueRequest struct {
	Actor      string
	Secret     string
	Type       string
	TTLMinutes int
	BaseURL    string
}

// Issued is the result of Issue
type Issued struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ExpiresAt string `json:"expires_at"`
	Link      string `json:"link"`
}

// PublicInfo is safe to show without the admin secret
type PublicInfo struct {
	HasAdminCode  bool   `json:"has_admin_code"`
	AppInstallURL string `json:"app_install_url"`
}

// Stats counts tokens by state
type Stats struct {
	Active  int64 `json:"active"`
	Used    int64 `json:"used"`
	Expired int64 `json:"expired"`
}

// Authority is the token service
type Authority struct {
	db       *gorm.DB
	settings SettingStore
	resolver *links.Resolver
	audit    audit.Sink
	now      func() time.Time
}

func NewAuthority(db *gorm.DB, settings SettingStore, sink audit.Sink) *Authority {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Authority{
		db:       db,
		settings: settings,
		resolver: links.NewResolver(settings),
		audit:    sink,
		now:      time.Now,
	}
}

// WithClock replaces the time source
func (a *Authority) WithClock(now func() time.Time) *Authority {
	a.now = now
	return a
}

// ClampTTL maps 0 to the default and bounds the rest to [1,1440] minutes.
func ClampTTL(minutes int) int {
	switch {
	case minutes == 0:
		return DefaultTTLMinutes
	case minutes < MinTTLMinutes:
		return MinTTLMinutes
	case minutes > MaxTTLMinutes:
		return MaxTTLMinutes
	}
	return minutes
}

// NewTokenValue returns two random base-36 fragments followed by the
// base-36 creation millis.
func NewTokenValue(now time.Time) string {
	return common.RandBase36(8) + common.RandBase36(8) + common.Base36Millis(now)
}

func (a *Authority) checkSecret(ctx context.Context, secret string) error {
	stored, ok, err := a.settings.Get(ctx, domain.SettingAdminCode)
	if err != nil {
		return err
	}
	if !ok || stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(secret)) != 1 {
		return domain.Forbidden("admin code mismatch")
	}
	return nil
}

// VerifyAdmin returns Forbidden unless secret equals the stored admin code.
func (a *Authority) VerifyAdmin(ctx context.Context, secret string) error {
	return a.checkSecret(ctx, secret)
}

// Issue mints a single-use token after checking the admin secret.
func (a *Authority) Issue(ctx context.Context, req IssueRequest) (*Issued, error) {
	if err := a.checkSecret(ctx, req.Secret); err != nil {
		return nil, err
	}
	typ := strings.ToLower(strings.TrimSpace(req.Type))
	if !domain.ValidTokenType(typ) {
		return nil, domain.InvalidArgument("type must be login or logout")
	}
	ttl := ClampTTL(req.TTLMinutes)
	now := a.now()
	row := domain.AuthToken{
		Token:     NewTokenValue(now),
		Type:      typ,
		ExpiresAt: common.FmtTime(now.Add(time.Duration(ttl) * time.Minute)),
		CreatedBy: req.Actor,
		CreatedAt: common.FmtTime(now),
	}
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, domain.StorageFailure(pkgerrors.Wrap(err, "insert token"), "failed to issue token")
	}
	a.audit.Append(ctx, audit.Entry{
		Actor:  req.Actor,
		Action: domain.ActionIssueToken,
		Code:   row.Token,
		Detail: map[string]interface{}{"type": typ, "ttl_minutes": ttl},
	})
	base := a.resolver.Base(ctx, req.BaseURL)
	return &Issued{
		Token:     row.Token,
		Type:      typ,
		ExpiresAt: row.ExpiresAt,
		Link:      links.ActionURL(base, row.Token, typ),
	}, nil
}

// Consume marks the token used by deviceID and returns its type. It
// succeeds at most once per token.
func (a *Authority) Consume(ctx context.Context, token, deviceID string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.InvalidArgument("token is required")
	}
	now := common.FmtTime(a.now())
	res := a.db.WithContext(ctx).Model(&domain.AuthToken{}).
		Where("token = ? AND used_at IS NULL AND expires_at > ?", token, now).
		Updates(map[string]interface{}{"used_at": now, "used_by": deviceID})
	if res.Error != nil {
		return "", domain.StorageFailure(pkgerrors.Wrap(res.Error, "consume token"), "failed to consume token")
	}

	var row domain.AuthToken
	err := a.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if res.RowsAffected == 0 {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return "", domain.NotFound("token not found")
		case err != nil:
			return "", domain.StorageFailure(pkgerrors.Wrap(err, "read token"), "failed to consume token")
		case row.UsedAt != nil:
			return "", domain.Conflict("token already used")
		default:
			return "", domain.Gone("token expired")
		}
	}
	if err != nil {
		zap.L().Warn("read back consumed token", zap.String("token", token), zap.Error(err))
	}
	a.audit.Append(ctx, audit.Entry{
		Actor:  deviceID,
		Action: domain.ActionConsumeToken,
		Code:   token,
		Detail: map[string]interface{}{"type": row.Type, "device_id": deviceID},
	})
	return row.Type, nil
}

// RotateAdminCode replaces the admin secret.
func (a *Authority) RotateAdminCode(ctx context.Context, actor, current, next string) error {
	if err := a.checkSecret(ctx, current); err != nil {
		return err
	}
	next = strings.TrimSpace(next)
	if len(next) < MinAdminCodeLen {
		return domain.InvalidArgument("new admin code must be at least %d characters", MinAdminCodeLen)
	}
	if err := a.settings.Set(ctx, domain.SettingAdminCode, next); err != nil {
		return err
	}
	a.audit.Append(ctx, audit.Entry{Actor: actor, Action: domain.ActionRotateAdminCode})
	return nil
}

// SetInstallURL stores the app download link shown to devices.
func (a *Authority) SetInstallURL(ctx context.Context, actor, secret, url string) error {
	if err := a.checkSecret(ctx, secret); err != nil {
		return err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.InvalidArgument("url is required")
	}
	if err := a.settings.Set(ctx, domain.SettingInstallURL, url); err != nil {
		return err
	}
	a.audit.Append(ctx, audit.Entry{
		Actor:  actor,
		Action: domain.ActionSetInstallURL,
		Detail: map[string]interface{}{"url": url},
	})
	return nil
}

func (a *Authority) PublicInfo(ctx context.Context) (*PublicInfo, error) {
	code, ok, err := a.settings.Get(ctx, domain.SettingAdminCode)
	if err != nil {
		return nil, err
	}
	return &PublicInfo{
		HasAdminCode:  ok && code != "",
		AppInstallURL: a.settings.GetString(ctx, domain.SettingInstallURL),
	}, nil
}

// Stats counts active, used and expired tokens at the current time.
func (a *Authority) Stats(ctx context.Context) (*Stats, error) {
	now := common.FmtTime(a.now())
	var st Stats
	db := a.db.WithContext(ctx).Model(&domain.AuthToken{})
	if err := db.Session(&gorm.Session{}).Where("used_at IS NOT NULL").Count(&st.Used).Error; err != nil {
		return nil, domain.StorageFailure(pkgerrors.Wrap(err, "count used tokens"), "failed to count tokens")
	}
	if err := db.Session(&gorm.Session{}).Where("used_at IS NULL AND expires_at > ?", now).Count(&st.Active).Error; err != nil {
		return nil, domain.StorageFailure(pkgerrors.Wrap(err, "count active tokens"), "failed to count tokens")
	}
	if err := db.Session(&gorm.Session{}).Where("used_at IS NULL AND expires_at <= ?", now).Count(&st.Expired).Error; err != nil {
		return nil, domain.StorageFailure(pkgerrors.Wrap(err, "count expired tokens"), "failed to count tokens")
	}
	return &st, nil
}
