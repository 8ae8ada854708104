package app

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/qrfactory/config"
)

// sqlitePragmas puts the file in WAL mode and waits on a locked database
// instead of failing immediately.
const sqlitePragmas = "_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"

func getDatabase(cfg *config.AppConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if cfg.Database.Debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Type {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Passwd,
			cfg.Database.Name)
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	case "sqlite", "":
		dsn := fmt.Sprintf("file:%s?%s", cfg.SqlitePath(), sqlitePragmas)
		db, err = gorm.Open(sqlite.Open(dsn), gormConfig)
	default:
		return nil, errors.Errorf("unsupported database type %q", cfg.Database.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.Database.Type)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "database handle")
	}
	if !cfg.IsSqlite() {
		sqlDB.SetMaxOpenConns(max(cfg.Database.MaxConn, 1))
		sqlDB.SetMaxIdleConns(max(cfg.Database.IdleConn, 1))
	} else {
		// one connection serializes every writer in process
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	zap.L().Debug("database pool configured", zap.String("type", cfg.Database.Type))
	return db, nil
}
