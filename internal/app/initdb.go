package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/talkincode/qrfactory/internal/settings"
)

// checkSettings seeds the admin code and placeholders on first start.
// Existing values are left alone.
func (a *Application) checkSettings(ctx context.Context) error {
	err := a.settings.Bootstrap(ctx, settings.Defaults{
		InstallURL:    settings.DefaultInstallURL,
		PublicBaseURL: a.appConfig.Web.PublicBaseURL,
	})
	if err != nil {
		zap.L().Error("failed to bootstrap settings", zap.Error(err))
		return err
	}
	return nil
}
