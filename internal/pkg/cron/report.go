package cron

import (
	"context"
	"log/slog"
	"time"
)

// PeriodArchiver bundles and expires report artifacts.
type PeriodArchiver interface {
	ArchiveLockedPeriods(ctx context.Context) (int, error)
	PurgeExpiredArchives(ctx context.Context, before time.Time) (int, error)
}

// TicketSweeper re-queues delivery tickets that missed the worker queue.
type TicketSweeper interface {
	RequeuePending(ctx context.Context) (int, error)
}

type ReportJobs struct {
	archiver     PeriodArchiver
	sweeper      TicketSweeper
	archiveEvery time.Duration
	sweepEvery   time.Duration
	retention    time.Duration
	now          func() time.Time
}

func NewReportJobs(archiver PeriodArchiver, sweeper TicketSweeper, archiveEvery, sweepEvery, retention time.Duration) *ReportJobs {
	return &ReportJobs{
		archiver:     archiver,
		sweeper:      sweeper,
		archiveEvery: archiveEvery,
		sweepEvery:   sweepEvery,
		retention:    retention,
		now:          time.Now,
	}
}

func (j *ReportJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("archive_locked_periods", j.archiveEvery, j.ArchiveLockedPeriods)
	scheduler.AddJob("purge_expired_archives", j.archiveEvery, j.PurgeExpiredArchives)
	scheduler.AddJob("requeue_pending_deliveries", j.sweepEvery, j.RequeuePendingDeliveries)
}

func (j *ReportJobs) ArchiveLockedPeriods(ctx context.Context) error {
	n, err := j.archiver.ArchiveLockedPeriods(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Cron: archived locked periods", "count", n)
	}
	return nil
}

func (j *ReportJobs) PurgeExpiredArchives(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)
	n, err := j.archiver.PurgeExpiredArchives(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Cron: purged expired archives", "count", n, "cutoff", cutoff)
	}
	return nil
}

func (j *ReportJobs) RequeuePendingDeliveries(ctx context.Context) error {
	n, err := j.sweeper.RequeuePending(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Cron: re-queued pending deliveries", "count", n)
	}
	return nil
}
