package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system config
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig embedded web server config
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// DBConfig database config. Type is "sqlite" (default) or "postgres".
type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// LogConfig logger config
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// BackupConfig periodic database snapshot config
type BackupConfig struct {
	Enabled bool   `yaml:"enabled"`
	Spec    string `yaml:"spec"`
}

type AppConfig struct {
	System   SysConfig    `yaml:"system"`
	Web      WebConfig    `yaml:"web"`
	Database DBConfig     `yaml:"database"`
	Logger   LogConfig    `yaml:"logger"`
	Backup   BackupConfig `yaml:"backup"`
}

// GetDataDir returns the directory holding the database file
func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

// GetLogDir returns the log directory
func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

// GetBackupDir returns the directory that receives database snapshots
func (c *AppConfig) GetBackupDir() string {
	return filepath.Join(c.System.Workdir, "backup")
}

// SqlitePath resolves the SQLite database file. An absolute name is used as is.
func (c *AppConfig) SqlitePath() string {
	if filepath.IsAbs(c.Database.Name) {
		return c.Database.Name
	}
	return filepath.Join(c.GetDataDir(), c.Database.Name)
}

// IsSqlite reports whether the configured backend is SQLite. An empty type
// means SQLite.
func (c *AppConfig) IsSqlite() bool {
	return c.Database.Type == "" || strings.EqualFold(c.Database.Type, "sqlite")
}

// InitDirs creates the working directories
func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.GetDataDir(), c.GetLogDir(), c.GetBackupDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	return nil
}

// DefaultAppConfig returns the built-in configuration
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "QRFactory",
			Location: "Local",
			Workdir:  "./var",
			Debug:    false,
		},
		Web: WebConfig{
			Host: "127.0.0.1",
			Port: 3131,
		},
		Database: DBConfig{
			Type:     "sqlite",
			Name:     "qr-factory.db",
			MaxConn:  1,
			IdleConn: 1,
		},
		Logger: LogConfig{
			Mode:       "development",
			FileEnable: false,
			Filename:   "./var/logs/qrfactory.log",
		},
		Backup: BackupConfig{
			Enabled: false,
			Spec:    "@daily",
		},
	}
}

// LoadConfig reads a YAML file over the defaults, then applies environment
// overrides. An empty file name skips the file.
func LoadConfig(file string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}
	applyEnv(cfg)
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	cfg.Database.Type = strings.ToLower(cfg.Database.Type)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setEnvString("QRFACTORY_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvString("QRFACTORY_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBool("QRFACTORY_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvString("QRFACTORY_WEB_HOST", &cfg.Web.Host)
	setEnvInt("QRFACTORY_WEB_PORT", &cfg.Web.Port)
	setEnvString("QRFACTORY_PUBLIC_BASE_URL", &cfg.Web.PublicBaseURL)

	setEnvString("QRFACTORY_DB_TYPE", &cfg.Database.Type)
	setEnvString("QRFACTORY_DB_HOST", &cfg.Database.Host)
	setEnvInt("QRFACTORY_DB_PORT", &cfg.Database.Port)
	setEnvString("QRFACTORY_DB_NAME", &cfg.Database.Name)
	setEnvString("QRFACTORY_DB_USER", &cfg.Database.User)
	setEnvString("QRFACTORY_DB_PWD", &cfg.Database.Passwd)
	setEnvBool("QRFACTORY_DB_DEBUG", &cfg.Database.Debug)
	// compatibility with the desktop shell, which exports the db path only
	setEnvString("QR_DB", &cfg.Database.Name)

	setEnvString("QRFACTORY_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBool("QRFACTORY_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvBool("QRFACTORY_BACKUP_ENABLED", &cfg.Backup.Enabled)
	setEnvString("QRFACTORY_BACKUP_SPEC", &cfg.Backup.Spec)
}

func setEnvString(name string, val *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*val = v
	}
}

func setEnvInt(name string, val *int) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			*val = n
		}
	}
}

func setEnvBool(name string, val *bool) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			*val = b
		}
	}
}
