package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bher20/dormbill/internal/storage"
)

type fakeSweeper struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeSweeper) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

type lockedStore struct {
	*storage.MemoryStorage
}

func (lockedStore) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return false, nil
}

type lostLockStore struct {
	*storage.MemoryStorage
}

func (lostLockStore) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return false, nil
}

func TestNextRun(t *testing.T) {
	base := time.Date(2024, 5, 3, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, base.Add(90*time.Second), nextRun("90", base))
	assert.Equal(t, time.Date(2024, 5, 3, 11, 0, 0, 0, time.UTC), nextRun("@hourly", base))
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), nextRun("0 0 * * *", base))
	assert.Equal(t, base.Add(time.Hour), nextRun("garbage", base))
}

func TestRunOnce_RecordsJob(t *testing.T) {
	st := storage.NewMemory()
	sw := &fakeSweeper{n: 3}
	w := NewWorker(st, sw, "@hourly", nil)

	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	job, ok := st.ScheduledJob(JobName)
	require.True(t, ok)
	assert.Equal(t, 1, job.LastSuccess)
	assert.Empty(t, job.LastError)
}

func TestRunOnce_RecordsFailure(t *testing.T) {
	st := storage.NewMemory()
	w := NewWorker(st, &fakeSweeper{err: errors.New("db down")}, "@hourly", nil)

	_, err := w.RunOnce(context.Background())
	require.Error(t, err)

	job, ok := st.ScheduledJob(JobName)
	require.True(t, ok)
	assert.Equal(t, 0, job.LastSuccess)
	assert.Equal(t, "db down", job.LastError)
}

func TestRunOnce_SkipsWhenLockHeld(t *testing.T) {
	sw := &fakeSweeper{}
	w := NewWorker(lockedStore{storage.NewMemory()}, sw, "@hourly", nil)

	_, err := w.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrLockHeld)
	assert.Zero(t, sw.calls.Load())
}

func TestRunOnce_WarnsWhenLockLostBeforeRelease(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sw := &fakeSweeper{n: 1}
	w := NewWorker(lostLockStore{storage.NewMemory()}, sw, "@hourly", zap.New(core))

	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	warned := logs.FilterMessage("cron: advisory lock was not held at release")
	require.Equal(t, 1, warned.Len())
	assert.Equal(t, lockKey, warned.All()[0].ContextMap()["key"])
}

func TestRun_SweepsImmediatelyAndStops(t *testing.T) {
	sw := &fakeSweeper{}
	w := NewWorker(storage.NewMemory(), sw, "3600", nil)
	w.tick = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), sw.calls.Load())
}
