package scheduler

import (
	"context"
	"time"

	"github.com/appsparrow/streakzilla/internal/config"
	"github.com/appsparrow/streakzilla/internal/service"
	"github.com/appsparrow/streakzilla/pkg/logger"

	"github.com/robfig/cron/v3"
)

// MaintenanceScheduler refreshes cached member state on a cron schedule.
// Check-ins and reads never depend on it having run.
type MaintenanceScheduler struct {
	cron          *cron.Cron
	cronExpr      string
	challengeSvc  *service.ChallengeService
	recoverySvc   *service.RecoveryService
	backupEnabled bool
	retention     time.Duration
}

type Report struct {
	Active      int
	Deactivated int
	Refreshed   int
	BackedUp    int
	Pruned      int64
	Failures    int
}

func NewMaintenanceScheduler(
	challengeSvc *service.ChallengeService,
	recoverySvc *service.RecoveryService,
	schedCfg config.SchedulerConfig,
	backupCfg config.BackupConfig,
) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cron:          cron.New(cron.WithSeconds()),
		cronExpr:      schedCfg.MaintenanceCron,
		challengeSvc:  challengeSvc,
		recoverySvc:   recoverySvc,
		backupEnabled: backupCfg.Enabled,
		retention:     time.Duration(backupCfg.RetentionDays) * 24 * time.Hour,
	}
}

func (s *MaintenanceScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronExpr, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.WithFields(map[string]interface{}{
		"cron": s.cronExpr,
	}).Info("maintenance scheduler started")
	return nil
}

func (s *MaintenanceScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("maintenance scheduler stopped")
}

// RunOnce closes expired challenges, refreshes every active member and, when
// enabled, snapshots totals and prunes old backups. A failing challenge is
// logged and skipped.
func (s *MaintenanceScheduler) RunOnce(ctx context.Context) Report {
	var report Report

	active, closed, err := s.challengeSvc.DeactivateExpired(ctx)
	if err != nil {
		logger.Error("failed to deactivate expired challenges:", err)
		report.Failures++
		return report
	}
	report.Active = len(active)
	report.Deactivated = len(closed)

	for _, id := range active {
		n, err := s.challengeSvc.Refresh(ctx, id)
		if err != nil {
			logger.ForChallenge(id, "").WithError(err).Error("failed to refresh challenge")
			report.Failures++
			continue
		}
		report.Refreshed += n

		if !s.backupEnabled {
			continue
		}
		n, err = s.recoverySvc.BackupChallenge(ctx, id)
		if err != nil {
			logger.ForChallenge(id, "").WithError(err).Error("failed to back up challenge")
			report.Failures++
			continue
		}
		report.BackedUp += n
	}

	if s.backupEnabled && s.retention > 0 {
		pruned, err := s.recoverySvc.PruneBackups(ctx, s.retention)
		if err != nil {
			logger.Error("failed to prune backups:", err)
			report.Failures++
		}
		report.Pruned = pruned
	}

	logger.WithFields(map[string]interface{}{
		"active":      report.Active,
		"deactivated": report.Deactivated,
		"refreshed":   report.Refreshed,
		"backed_up":   report.BackedUp,
		"pruned":      report.Pruned,
		"failures":    report.Failures,
	}).Info("maintenance run completed")
	return report
}
