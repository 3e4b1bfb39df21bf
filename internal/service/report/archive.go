package report

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/storage"
)

const archiveStampLayout = "20060102-150405"

// Archiver bundles a period's artifacts into one zip and expires old
// bundles. The bundled files stay in place; only the artifacts are stamped.
type Archiver struct {
	periodRepo   payroll.PeriodRepository
	artifactRepo report.ArtifactRepository
	fileStorage  storage.FileStorage
	now          func() time.Time
}

func NewArchiver(periodRepo payroll.PeriodRepository, artifactRepo report.ArtifactRepository, fileStorage storage.FileStorage) *Archiver {
	return &Archiver{
		periodRepo:   periodRepo,
		artifactRepo: artifactRepo,
		fileStorage:  fileStorage,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Archive zips every unarchived payslip and team summary of the period.
func (a *Archiver) Archive(ctx context.Context, period payroll.Period) (report.Artifact, error) {
	artifacts, err := a.artifactRepo.ListByPeriod(ctx, period.ID)
	if err != nil {
		return report.Artifact{}, fmt.Errorf("failed to list artifacts: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var ids []string
	for _, artifact := range artifacts {
		if artifact.ArchivedAt != nil || artifact.Kind == report.KindArchive {
			continue
		}
		data, err := storage.ReadAll(ctx, a.fileStorage, artifact.Path)
		if err != nil {
			if errors.Is(err, storage.ErrFileNotFound) {
				slog.Warn("Artifact file missing, left out of archive", "artifact_id", artifact.ID, "path", artifact.Path)
				continue
			}
			return report.Artifact{}, fmt.Errorf("failed to read artifact %s: %w", artifact.ID, err)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     string(artifact.Kind) + "/" + artifact.Subject() + "/" + artifact.FileName(),
			Method:   zip.Deflate,
			Modified: artifact.CreatedAt,
		})
		if err != nil {
			return report.Artifact{}, fmt.Errorf("failed to add %s to archive: %w", artifact.FileName(), err)
		}
		if _, err := w.Write(data); err != nil {
			return report.Artifact{}, fmt.Errorf("failed to add %s to archive: %w", artifact.FileName(), err)
		}
		ids = append(ids, artifact.ID)
	}
	if len(ids) == 0 {
		return report.Artifact{}, fmt.Errorf("%w: %s", report.ErrNothingToArchive, period.Label())
	}
	if err := zw.Close(); err != nil {
		return report.Artifact{}, fmt.Errorf("failed to finish archive: %w", err)
	}

	now := a.now()
	label := period.Label()
	stamp := now.Format(archiveStampLayout)
	fileName := report.FileName(report.KindArchive, label, stamp, report.FormatZIP)
	path := report.StoragePath(label, report.KindArchive, report.SubjectOf(report.KindArchive, stamp), fileName)

	key, err := a.fileStorage.Upload(ctx, bytes.NewReader(buf.Bytes()), path, report.FormatZIP.ContentType())
	if err != nil {
		return report.Artifact{}, fmt.Errorf("failed to store archive: %w", err)
	}
	bundle, err := a.artifactRepo.Upsert(ctx, report.Artifact{
		Kind:          report.KindArchive,
		Format:        report.FormatZIP,
		PeriodID:      period.ID,
		PeriodLabel:   label,
		SubjectID:     stamp,
		Path:          key,
		ContentType:   report.FormatZIP.ContentType(),
		SizeBytes:     int64(buf.Len()),
		DeliveryState: report.DeliveryPending,
	})
	if err != nil {
		return report.Artifact{}, fmt.Errorf("failed to save archive artifact: %w", err)
	}
	if err := a.artifactRepo.MarkArchived(ctx, ids, now); err != nil {
		return report.Artifact{}, fmt.Errorf("failed to mark artifacts archived: %w", err)
	}

	slog.Info("Archive created", "period", label, "path", key, "count", len(ids))
	return bundle, nil
}

// ArchiveLockedPeriods archives every locked period that still has loose
// artifacts. Periods with nothing left are skipped.
func (a *Archiver) ArchiveLockedPeriods(ctx context.Context) (int, error) {
	periods, err := a.periodRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list periods: %w", err)
	}

	archived := 0
	for _, period := range periods {
		if !period.Locked {
			continue
		}
		if _, err := a.Archive(ctx, period); err != nil {
			if errors.Is(err, report.ErrNothingToArchive) {
				continue
			}
			return archived, err
		}
		archived++
	}
	return archived, nil
}

// PurgeExpiredArchives deletes archive bundles created before the cutoff.
func (a *Archiver) PurgeExpiredArchives(ctx context.Context, before time.Time) (int, error) {
	expired, err := a.artifactRepo.ListArchivesCreatedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired archives: %w", err)
	}

	purged := 0
	for _, bundle := range expired {
		if err := a.fileStorage.Delete(ctx, bundle.Path); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			return purged, fmt.Errorf("failed to delete archive file %s: %w", bundle.Path, err)
		}
		if err := a.artifactRepo.Delete(ctx, bundle.ID); err != nil {
			return purged, fmt.Errorf("failed to delete archive artifact %s: %w", bundle.ID, err)
		}
		purged++
	}
	return purged, nil
}
