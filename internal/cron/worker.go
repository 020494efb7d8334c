package cron

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bher20/dormbill/internal/metrics"
	"github.com/bher20/dormbill/internal/storage"
)

const (
	// JobName identifies the overdue sweep in metrics and scheduled_jobs.
	JobName = "overdue_sweep"
	// ScheduleSetting overrides the configured schedule at runtime.
	ScheduleSetting = "overdue_schedule"

	lockKey int64 = 0x646f726d // "dorm"
)

// ErrLockHeld is returned by RunOnce when another worker holds the job lock.
var ErrLockHeld = errors.New("cron: advisory lock held by another worker")

// Sweeper moves past-due bills to overdue.
type Sweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}

type Worker struct {
	st       storage.Storage
	sweeper  Sweeper
	schedule string
	log      *zap.Logger
	tick     time.Duration
	now      func() time.Time
}

// NewWorker builds a worker that runs sweeper on schedule, which is either a
// number of seconds or a cron expression.
func NewWorker(st storage.Storage, sweeper Sweeper, schedule string, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		st:       st,
		sweeper:  sweeper,
		schedule: schedule,
		log:      log,
		tick:     10 * time.Second,
		now:      time.Now,
	}
}

// nextRun interprets setting as integer seconds or a cron expression,
// falling back to an hour.
func nextRun(setting string, last time.Time) time.Time {
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return last.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(last)
	}
	return last.Add(time.Hour)
}

// RunOnce executes a single sweep under the advisory lock and records the
// outcome.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	started := w.now()

	ok, err := w.st.AcquireAdvisoryLock(ctx, lockKey)
	if err != nil {
		metrics.UpdateJobMetrics(JobName, started, err)
		return 0, err
	}
	if !ok {
		return 0, ErrLockHeld
	}

	var (
		n      int
		runErr error
	)
	func() {
		defer func() {
			released, err := w.st.ReleaseAdvisoryLock(ctx, lockKey)
			switch {
			case err != nil:
				w.log.Warn("cron: release advisory lock failed", zap.Error(err))
			case !released:
				w.log.Warn("cron: advisory lock was not held at release", zap.Int64("key", lockKey))
			}
		}()
		n, runErr = w.sweeper.SweepOverdue(ctx, started)
	}()

	metrics.UpdateJobMetrics(JobName, started, runErr)
	dur := time.Since(started)
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := w.st.UpdateScheduledJob(ctx, JobName, started, dur, runErr == nil, errMsg); err != nil {
		w.log.Warn("cron: update scheduled_jobs failed", zap.Error(err))
	}

	if runErr != nil {
		w.log.Error("cron: job completed with error", zap.String("job", JobName), zap.Duration("duration", dur), zap.Error(runErr))
	} else {
		w.log.Info("cron: job completed", zap.String("job", JobName), zap.Int("marked_overdue", n), zap.Duration("duration", dur))
	}
	return n, runErr
}

// Run sweeps immediately and then on schedule until ctx is cancelled. The
// schedule setting is re-read from storage on every tick.
func (w *Worker) Run(ctx context.Context) error {
	setting := w.schedule
	if val, err := w.st.GetSetting(ctx, ScheduleSetting); err == nil && val != "" {
		setting = val
	}

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	next := w.now()
	w.log.Info("cron worker starting", zap.String("schedule", setting))

	for {
		if !w.now().Before(next) {
			if _, err := w.RunOnce(ctx); errors.Is(err, ErrLockHeld) {
				w.log.Info("cron: advisory lock held by another worker, skipping run")
			}
			next = nextRun(setting, w.now())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if val, err := w.st.GetSetting(ctx, ScheduleSetting); err == nil && val != "" && val != setting {
			w.log.Info("cron: schedule updated", zap.String("from", setting), zap.String("to", val))
			setting = val
			next = nextRun(setting, w.now())
		}
	}
}
