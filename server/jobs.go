package server

import (
	"context"

	"github.com/Daskott/lifeline/colors"
	"github.com/Daskott/lifeline/server/cron"
	"github.com/Daskott/lifeline/server/gstorage"
	"github.com/Daskott/lifeline/server/reminders"
	"github.com/Daskott/lifeline/shared"
)

const (
	REMINDER_SCAN_JOB = "reminder_scan"
	USERS_BACKUP_JOB  = "users_backup"
)

func runScan(ctx context.Context, scanner *reminders.Scanner) {
	stats, err := scanner.Scan(ctx)
	if err != nil {
		logg.Errorf("%vscan failed: %v (%v)", colors.Prefix(REMINDER_SCAN_JOB), err, stats)
		return
	}
	logg.Infof("%v%v", colors.Prefix(REMINDER_SCAN_JOB), stats)
}

func runBackup(ctx context.Context, backup *gstorage.UsersBackup) {
	if _, _, err := backup.Run(ctx); err != nil {
		logg.Errorf("%v%v", colors.Prefix(USERS_BACKUP_JOB), err)
	}
}

// scheduleJobs registers the reminder scan & when configured, the users backup
func scheduleJobs(ctx context.Context, scheduler *cron.Scheduler, config *shared.ServerConfig, scanner *reminders.Scanner, backup *gstorage.UsersBackup) error {
	err := scheduler.Every(config.Lifeline.Cron.ScanInterval, REMINDER_SCAN_JOB, func() { runScan(ctx, scanner) })
	if err != nil {
		return err
	}

	if backup == nil {
		return nil
	}

	return scheduler.Cron(config.Google.Storage.BackupSchedule, USERS_BACKUP_JOB, func() { runBackup(ctx, backup) })
}
