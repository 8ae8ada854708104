package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	if loc == nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	if a.appConfig.Backup.Enabled {
		_, err = a.sched.AddFunc(a.appConfig.Backup.Spec, a.SchedBackupTask)
		if err != nil {
			zap.S().Errorf("init backup job error %s", err.Error())
		}
	}

	_, err = a.sched.AddFunc("@hourly", a.SchedTokenStatsTask)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedBackupTask snapshots the database into the backup directory
func (a *Application) SchedBackupTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	path, err := a.Backup(context.Background())
	if err != nil {
		zap.L().Error("scheduled backup failed", zap.Error(err))
		return
	}
	zap.L().Info("scheduled backup written", zap.String("path", path))
}

// SchedTokenStatsTask logs how many tokens are pending, used and expired
func (a *Application) SchedTokenStatsTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	st, err := a.tokens.Stats(context.Background())
	if err != nil {
		zap.L().Warn("token stats failed", zap.Error(err))
		return
	}
	zap.L().Info("auth token stats",
		zap.Int64("active", st.Active),
		zap.Int64("used", st.Used),
		zap.Int64("expired", st.Expired))
}
