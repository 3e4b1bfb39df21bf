package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const artifactColumns = `id, kind, format, period_id, period_label, subject_id, path, content_type,
	size_bytes, payslip_ids, delivery_state, created_at, archived_at`

type artifactRepositoryImpl struct {
	db *database.DB
}

func NewArtifactRepository(db *database.DB) report.ArtifactRepository {
	return &artifactRepositoryImpl{db: db}
}

func scanArtifact(row pgx.Row) (report.Artifact, error) {
	var a report.Artifact
	err := row.Scan(
		&a.ID, &a.Kind, &a.Format, &a.PeriodID, &a.PeriodLabel, &a.SubjectID, &a.Path, &a.ContentType,
		&a.SizeBytes, &a.PayslipIDs, &a.DeliveryState, &a.CreatedAt, &a.ArchivedAt,
	)
	return a, err
}

func (r *artifactRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]report.Artifact, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list report artifacts: %w", err)
	}
	defer rows.Close()

	var list []report.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Upsert implements report.ArtifactRepository. Regenerating the active
// artifact keeps its id and resets delivery to PENDING.
func (r *artifactRepositoryImpl) Upsert(ctx context.Context, a report.Artifact) (report.Artifact, error) {
	q := GetQuerier(ctx, r.db)

	ids := a.PayslipIDs
	if ids == nil {
		ids = []string{}
	}

	query := `
		INSERT INTO report_artifacts (
			kind, format, period_id, period_label, subject_id, path, content_type, size_bytes, payslip_ids, delivery_state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'PENDING')
		ON CONFLICT (kind, period_id, subject_id) WHERE archived_at IS NULL DO UPDATE SET
			format = EXCLUDED.format,
			period_label = EXCLUDED.period_label,
			path = EXCLUDED.path,
			content_type = EXCLUDED.content_type,
			size_bytes = EXCLUDED.size_bytes,
			payslip_ids = EXCLUDED.payslip_ids,
			delivery_state = 'PENDING',
			created_at = NOW()
		RETURNING ` + artifactColumns

	saved, err := scanArtifact(q.QueryRow(ctx, query,
		a.Kind, a.Format, a.PeriodID, a.PeriodLabel, a.SubjectID, a.Path, a.ContentType, a.SizeBytes, ids,
	))
	if err != nil {
		return report.Artifact{}, fmt.Errorf("failed to upsert report artifact: %w", err)
	}
	return saved, nil
}

// GetByID implements report.ArtifactRepository.
func (r *artifactRepositoryImpl) GetByID(ctx context.Context, id string) (report.Artifact, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanArtifact(q.QueryRow(ctx, `SELECT `+artifactColumns+` FROM report_artifacts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report.Artifact{}, report.ErrArtifactNotFound
		}
		return report.Artifact{}, fmt.Errorf("failed to get report artifact: %w", err)
	}
	return a, nil
}

// FindActive implements report.ArtifactRepository.
func (r *artifactRepositoryImpl) FindActive(ctx context.Context, kind report.Kind, periodID, subjectID string) (report.Artifact, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + artifactColumns + `
		FROM report_artifacts
		WHERE kind = $1 AND period_id = $2 AND subject_id = $3 AND archived_at IS NULL
	`
	a, err := scanArtifact(q.QueryRow(ctx, query, kind, periodID, subjectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report.Artifact{}, report.ErrArtifactNotFound
		}
		return report.Artifact{}, fmt.Errorf("failed to find active artifact: %w", err)
	}
	return a, nil
}

// ListByPeriod implements report.ArtifactRepository.
func (r *artifactRepositoryImpl) ListByPeriod(ctx context.Context, periodID string) ([]report.Artifact, error) {
	return r.list(ctx, `SELECT `+artifactColumns+` FROM report_artifacts WHERE period_id = $1 ORDER BY created_at, id`, periodID)
}

// SetDeliveryState implements report.ArtifactRepository.
func (r *artifactRepositoryImpl) SetDeliveryState(ctx context.Context, id string, state report.DeliveryState) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE report_artifacts SET delivery_state = $2 WHERE id = $1`, id, state)
	if err != nil {
		return fmt.Errorf("failed to update delivery state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return report.ErrArtifactNotFound
	}
	return nil
}

// MarkArchived implements report.ArtifactRepository.
func (r *artifactRepositoryImpl) MarkArchived(ctx context.Context, ids []string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `UPDATE report_artifacts SET archived_at = $2 WHERE id = ANY($1) AND archived_at IS NULL`, ids, at)
	if err != nil {
		return fmt.Errorf("failed to mark artifacts archived: %w", err)
	}
	return nil
}

// ListArchivesCreatedBefore implements report.ArtifactRepository.
func (r *artifactRepositoryImpl) ListArchivesCreatedBefore(ctx context.Context, before time.Time) ([]report.Artifact, error) {
	query := `
		SELECT ` + artifactColumns + `
		FROM report_artifacts
		WHERE kind = $1 AND created_at < $2
		ORDER BY created_at, id
	`
	return r.list(ctx, query, report.KindArchive, before)
}

// Delete implements report.ArtifactRepository.
func (r *artifactRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM report_artifacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report artifact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return report.ErrArtifactNotFound
	}
	return nil
}
