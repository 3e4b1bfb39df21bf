package report

import (
	"context"
	"time"
)

type ArtifactRepository interface {
	// Upsert keeps one unarchived artifact per (kind, period, subject); a
	// regenerated artifact keeps its ID and resets delivery state to PENDING.
	Upsert(ctx context.Context, a Artifact) (Artifact, error)
	GetByID(ctx context.Context, id string) (Artifact, error)
	FindActive(ctx context.Context, kind Kind, periodID, subjectID string) (Artifact, error)
	// ListByPeriod returns artifacts, archived ones included, oldest first.
	ListByPeriod(ctx context.Context, periodID string) ([]Artifact, error)
	SetDeliveryState(ctx context.Context, id string, state DeliveryState) error
	MarkArchived(ctx context.Context, ids []string, at time.Time) error
	// ListArchivesCreatedBefore returns archive bundles older than before.
	ListArchivesCreatedBefore(ctx context.Context, before time.Time) ([]Artifact, error)
	Delete(ctx context.Context, id string) error
}
