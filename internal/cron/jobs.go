package cron

import (
	"context"
	"log/slog"
)

// ContinuationPurger is the subset of the continuation tracker needed by
// the sweep job. Defined here to avoid a dependency on the tracker package.
type ContinuationPurger interface {
	Len() int
	Purge()
}

// ContinuationSweepJob drops all reply-continuation entries on a schedule.
// Intended for deployments running without TTL or LRU eviction, where the
// tracker would otherwise grow without bound.
type ContinuationSweepJob struct {
	Tracker      ContinuationPurger
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 */6 * * *"
}

var _ Job = (*ContinuationSweepJob)(nil)

// Name implements Job.
func (j *ContinuationSweepJob) Name() string { return "continuation_sweep" }

// Schedule implements Job.
func (j *ContinuationSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 */6 * * *"
}

// Run drops every tracked continuation.
func (j *ContinuationSweepJob) Run(_ context.Context) error {
	dropped := j.Tracker.Len()
	j.Tracker.Purge()
	if dropped > 0 {
		j.Logger.Info("cron: swept continuations", "count", dropped)
	}
	return nil
}

// LaneCleaner is the subset of the router's lane lock needed by the cleanup
// job.
type LaneCleaner interface {
	Cleanup() int
}

// LaneCleanupJob removes idle per-sender lanes from the serialization map.
type LaneCleanupJob struct {
	Lanes        LaneCleaner
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/30 * * * *"
}

var _ Job = (*LaneCleanupJob)(nil)

// Name implements Job.
func (j *LaneCleanupJob) Name() string { return "lane_cleanup" }

// Schedule implements Job.
func (j *LaneCleanupJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/30 * * * *"
}

// Run removes lanes with no holders.
func (j *LaneCleanupJob) Run(_ context.Context) error {
	removed := j.Lanes.Cleanup()
	if removed > 0 {
		j.Logger.Debug("cron: cleaned idle lanes", "count", removed)
	}
	return nil
}
