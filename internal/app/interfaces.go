package app

import (
	"context"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/talkincode/qrfactory/config"
	"github.com/talkincode/qrfactory/internal/audit"
	"github.com/talkincode/qrfactory/internal/bulksync"
	"github.com/talkincode/qrfactory/internal/links"
	"github.com/talkincode/qrfactory/internal/registry"
	"github.com/talkincode/qrfactory/internal/settings"
	"github.com/talkincode/qrfactory/internal/token"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// ServiceProvider exposes the domain services bound to the application database
type ServiceProvider interface {
	Registry() *registry.Registry
	Tokens() *token.Authority
	Sync() *bulksync.Synchronizer
	Ledger() *audit.Ledger
	Settings() *settings.Store
	Links() *links.Resolver
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	ServiceProvider

	MigrateDB(track bool) error
	InitDb() error
	// Backup writes a consistent snapshot of the database and returns its path
	Backup(ctx context.Context) (string, error)
}
