package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
)

const RefreshRollupSnapshotsJob = "refresh_rollup_snapshots"

type RollupJobs struct {
	rollupService rollup.RollupService
	interval      time.Duration
}

func NewRollupJobs(rollupService rollup.RollupService, interval time.Duration) *RollupJobs {
	return &RollupJobs{
		rollupService: rollupService,
		interval:      interval,
	}
}

func (j *RollupJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     RefreshRollupSnapshotsJob,
		Interval: j.interval,
		Timeout:  j.interval,
		Fn:      j.RefreshSnapshots,
	})
}

// RefreshSnapshots reloads every cached company snapshot so open trees pick up new attendance data
func (j *RollupJobs) RefreshSnapshots(ctx context.Context) error {
	start := time.Now()
	if err := j.rollupService.RefreshAll(ctx); err != nil {
		return err
	}
	slog.Debug("Cron: rollup snapshots refreshed", "duration", time.Since(start))
	return nil
}
