package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/talkincode/qrfactory/internal/domain"
)

// MaxBackups is the number of snapshot files kept in the backup directory
const MaxBackups = 7

const backupPrefix = "qrfactory_backup_"

// Backup writes a consistent copy of the SQLite database with VACUUM INTO
// and prunes old snapshots.
func (a *Application) Backup(ctx context.Context) (string, error) {
	if name := a.gormDB.Dialector.Name(); name != "sqlite" {
		return "", domain.InvalidArgument("backup is not supported for %s", name)
	}
	dir := a.appConfig.GetBackupDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.StorageFailure(errors.Wrap(err, "create backup dir"), "backup failed")
	}
	path := filepath.Join(dir, fmt.Sprintf("%s%s.db", backupPrefix, time.Now().Format("20060102_150405.000")))
	stmt := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(path, "'", "''"))
	if err := a.gormDB.WithContext(ctx).Exec(stmt).Error; err != nil {
		return "", domain.StorageFailure(errors.Wrap(err, "vacuum into"), "backup failed")
	}
	a.pruneBackups(dir)
	return path, nil
}

func (a *Application) pruneBackups(dir string) {
	files, err := filepath.Glob(filepath.Join(dir, backupPrefix+"*.db"))
	if err != nil || len(files) <= MaxBackups {
		return
	}
	// names embed the timestamp, so lexical order is age order
	sort.Strings(files)
	for _, f := range files[:len(files)-MaxBackups] {
		if err := os.Remove(f); err != nil {
			zap.L().Warn("remove old backup", zap.String("file", f), zap.Error(err))
		}
	}
}
