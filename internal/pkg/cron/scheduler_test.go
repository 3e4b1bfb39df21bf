package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler()
	var calls atomic.Int32
	s.AddJob("ok", time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	s.AddJob("fails", time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	})
	s.AddJob("panics", time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		panic("unexpected")
	})
	s.AddJob("never", 0, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	s.RunOnce(context.Background())

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []string{"ok", "fails", "panics"}, s.Jobs())
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler()
	var calls atomic.Int32
	s.AddJob("tick", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	s.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())

	s.Stop()
}

type fakeArchiver struct {
	archived int
	cutoff   time.Time
}

func (f *fakeArchiver) ArchiveLockedPeriods(ctx context.Context) (int, error) {
	f.archived++
	return 1, nil
}

func (f *fakeArchiver) PurgeExpiredArchives(ctx context.Context, before time.Time) (int, error) {
	f.cutoff = before
	return 0, nil
}

type fakeSweeper struct{ calls int }

func (f *fakeSweeper) RequeuePending(ctx context.Context) (int, error) {
	f.calls++
	return 2, nil
}

func TestReportJobs_Register(t *testing.T) {
	archiver := &fakeArchiver{}
	sweeper := &fakeSweeper{}
	jobs := NewReportJobs(archiver, sweeper, time.Hour, time.Minute, 48*time.Hour)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	jobs.now = func() time.Time { return fixed }

	s := NewScheduler()
	jobs.RegisterJobs(s)
	assert.Equal(t, []string{"archive_locked_periods", "purge_expired_archives", "requeue_pending_deliveries"}, s.Jobs())

	s.RunOnce(context.Background())

	assert.Equal(t, 1, archiver.archived)
	assert.Equal(t, fixed.Add(-48*time.Hour), archiver.cutoff)
	assert.Equal(t, 1, sweeper.calls)
}
