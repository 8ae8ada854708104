// Package links builds the scan URLs printed into QR codes.
package links

import (
	"context"
	"net/url"
	"strings"

	"github.com/talkincode/qrfactory/internal/domain"
)

// ScanPage is the page served to scanning devices
const ScanPage = "/qr.html"

// SettingReader is the subset of the settings store used here
type SettingReader interface {
	GetString(ctx context.Context, key string) string
}

// ScanURL returns {base}/qr.html?token={code}.
func ScanURL(base, code string) string {
	return strings.TrimRight(base, "/") + ScanPage + "?token=" + url.QueryEscape(code)
}

// ActionURL returns the scan URL carrying an action parameter, used for
// login/logout tokens.
func ActionURL(base, token, action string) string {
	u := ScanURL(base, token)
	if action != "" {
		u += "&action=" + url.QueryEscape(action)
	}
	return u
}

// Resolver picks the externally visible base URL
type Resolver struct {
	settings SettingReader
}

func NewResolver(settings SettingReader) *Resolver {
	return &Resolver{settings: settings}
}

// Base returns the persisted public_base_url, else fallback which is
// usually the request's scheme://host.
func (r *Resolver) Base(ctx context.Context, fallback string) string {
	if r != nil && r.settings != nil {
		if v := strings.TrimSpace(r.settings.GetString(ctx, domain.SettingPublicBaseURL)); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return strings.TrimRight(fallback, "/")
}
