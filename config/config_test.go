package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "127.0.0.1", cfg.Web.Host)
	assert.Equal(t, 1, cfg.Database.MaxConn)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "qrfactory.yml")
	content := []byte(`
system:
  workdir: /srv/qr
web:
  port: 9000
  public_base_url: http://lan.example:9000
database:
  type: Postgres
  name: qr
`)
	require.NoError(t, os.WriteFile(file, content, 0o600))

	t.Setenv("QRFACTORY_WEB_PORT", "9100")
	t.Setenv("QRFACTORY_DB_DEBUG", "true")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "/srv/qr", cfg.System.Workdir)
	assert.Equal(t, 9100, cfg.Web.Port)
	assert.Equal(t, "http://lan.example:9000", cfg.Web.PublicBaseURL)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.True(t, cfg.Database.Debug)
	assert.Equal(t, filepath.Join("/srv/qr", "data", "qr"), cfg.SqlitePath())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestIsSqlite(t *testing.T) {
	cfg := DefaultAppConfig()
	assert.True(t, cfg.IsSqlite())
	cfg.Database.Type = ""
	assert.True(t, cfg.IsSqlite())
	cfg.Database.Type = "postgres"
	assert.False(t, cfg.IsSqlite())
}

func TestSqlitePathAbsolute(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Database.Name = "/tmp/x.db"
	assert.Equal(t, "/tmp/x.db", cfg.SqlitePath())
}
