package cron

import (
	"context"
	"log/slog"
	"testing"

	"github.com/metoushela/megan/internal/continuation"
	"github.com/metoushela/megan/internal/router"
)

func TestContinuationSweepJob(t *testing.T) {
	t.Parallel()

	tracker := continuation.New()
	tracker.Register("m1", continuation.Entry{OwnerID: "u1"})
	tracker.Register("m2", continuation.Entry{OwnerID: "u2"})

	job := &ContinuationSweepJob{Tracker: tracker, Logger: slog.Default()}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tracker.Len() != 0 {
		t.Errorf("tracker not emptied, %d entries left", tracker.Len())
	}
	if job.Schedule() != "0 */6 * * *" {
		t.Errorf("default schedule = %q", job.Schedule())
	}
}

func TestContinuationSweepJobCustomSchedule(t *testing.T) {
	t.Parallel()

	job := &ContinuationSweepJob{ScheduleExpr: "*/15 * * * *"}
	if job.Schedule() != "*/15 * * * *" {
		t.Errorf("Schedule = %q", job.Schedule())
	}
}

func TestLaneCleanupJob(t *testing.T) {
	t.Parallel()

	lanes := router.NewLaneLock()
	key := router.SessionKey{Channel: "mock", ThreadID: "t1", SenderID: "u1"}
	lanes.Acquire(key)
	lanes.Release(key)

	job := &LaneCleanupJob{Lanes: lanes, Logger: slog.Default()}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.Name() != "lane_cleanup" {
		t.Errorf("Name = %q", job.Name())
	}
}
