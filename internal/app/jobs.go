package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/retailworks/opsledger/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@hourly", func() {
		a.SchedStockSnapshotTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.SchedCleanupTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedStockSnapshotTask writes the append-only on-hand snapshot for
// reporting. Runs outside the workflow transactions.
func (a *Application) SchedStockSnapshotTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	if _, err := a.snapshotWriter.WriteSnapshot(context.Background()); err != nil {
		zap.L().Error("stock snapshot job failed", zap.Error(err))
	}
}

// SchedCleanupTask purges expired snapshots and year-old operator logs.
func (a *Application) SchedCleanupTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	days := cast.ToInt(a.GetSettingsStringValue("reporting", "SnapshotRetentionDays"))
	if days == 0 {
		days = 365
	}
	if err := a.snapshotWriter.PurgeOlderThan(context.Background(), days); err != nil {
		zap.L().Error("snapshot purge failed", zap.Error(err))
	}

	a.gormDB.
		Where("opt_time < ? ", time.Now().
			Add(-time.Hour*24*365)).Delete(domain.SysOprLog{})
}
