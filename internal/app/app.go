package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/talkincode/qrfactory/config"
	"github.com/talkincode/qrfactory/internal/audit"
	"github.com/talkincode/qrfactory/internal/bulksync"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/links"
	"github.com/talkincode/qrfactory/internal/registry"
	"github.com/talkincode/qrfactory/internal/settings"
	"github.com/talkincode/qrfactory/internal/token"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron

	settings *settings.Store
	ledger   *audit.Ledger
	registry *registry.Registry
	tokens   *token.Authority
	sync     *bulksync.Synchronizer
	links    *links.Resolver
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ ServiceProvider   = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle and rebinds the
// services to it (used in tests and by the CLI tools).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
	a.bindServices()
}

func (a *Application) bindServices() {
	a.settings = settings.NewStore(a.gormDB)
	a.ledger = audit.NewLedger(a.gormDB)
	a.registry = registry.New(a.gormDB, a.ledger)
	a.tokens = token.NewAuthority(a.gormDB, a.settings, a.ledger)
	a.sync = bulksync.New(a.gormDB, a.settings, a.ledger)
	a.links = links.NewResolver(a.settings)
}

// InitLogger installs the global zap logger
func InitLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	var err error
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// Init opens the database, migrates the schema, bootstraps settings and
// starts the cron jobs.
func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	InitLogger(cfg)

	if err := cfg.InitDirs(); err != nil {
		return err
	}

	db, err := getDatabase(cfg)
	if err != nil {
		return err
	}
	a.gormDB = db
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(cfg.Database.Debug); err != nil {
		return err
	}
	a.bindServices()

	if err := a.checkSettings(context.Background()); err != nil {
		return err
	}

	a.initJob()
	return nil
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	if err := db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
		return err
	}
	return nil
}

// InitDb recreates every table and seeds fresh settings
func (a *Application) InitDb() error {
	if err := a.gormDB.Migrator().DropTable(domain.Tables...); err != nil {
		zap.S().Error(err)
		return errors.Wrap(err, "drop tables")
	}
	if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
		return errors.Wrap(err, "migrate tables")
	}
	a.bindServices()
	if err := a.checkSettings(context.Background()); err != nil {
		return errors.Wrap(err, "seed settings")
	}
	return nil
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Registry() *registry.Registry {
	return a.registry
}

func (a *Application) Tokens() *token.Authority {
	return a.tokens
}

func (a *Application) Sync() *bulksync.Synchronizer {
	return a.sync
}

func (a *Application) Ledger() *audit.Ledger {
	return a.ledger
}

func (a *Application) Settings() *settings.Store {
	return a.settings
}

func (a *Application) Links() *links.Resolver {
	return a.links
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
