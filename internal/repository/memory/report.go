package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
)

type artifactRepository struct {
	s *Store
}

func NewArtifactRepository(s *Store) report.ArtifactRepository {
	return &artifactRepository{s: s}
}

func copyArtifact(a report.Artifact) report.Artifact {
	a.PayslipIDs = cloneStrings(a.PayslipIDs)
	a.ArchivedAt = cloneTimePtr(a.ArchivedAt)
	return a
}

func (r *artifactRepository) Upsert(ctx context.Context, a report.Artifact) (report.Artifact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a.DeliveryState = report.DeliveryPending
	a.CreatedAt = r.s.now()
	a.ArchivedAt = nil
	if existing, ok := r.findActiveLocked(a.Kind, a.PeriodID, a.SubjectID); ok {
		a.ID = existing.ID
	} else if a.ID == "" {
		a.ID = newID()
	}
	r.s.artifacts[a.ID] = copyArtifact(a)
	return copyArtifact(a), nil
}

func (r *artifactRepository) findActiveLocked(kind report.Kind, periodID, subjectID string) (report.Artifact, bool) {
	for _, a := range r.s.artifacts {
		if a.Kind == kind && a.PeriodID == periodID && a.SubjectID == subjectID && a.ArchivedAt == nil {
			return a, true
		}
	}
	return report.Artifact{}, false
}

func (r *artifactRepository) GetByID(ctx context.Context, id string) (report.Artifact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.artifacts[id]
	if !ok {
		return report.Artifact{}, report.ErrArtifactNotFound
	}
	return copyArtifact(a), nil
}

func (r *artifactRepository) FindActive(ctx context.Context, kind report.Kind, periodID, subjectID string) (report.Artifact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.findActiveLocked(kind, periodID, subjectID)
	if !ok {
		return report.Artifact{}, report.ErrArtifactNotFound
	}
	return copyArtifact(a), nil
}

func (r *artifactRepository) ListByPeriod(ctx context.Context, periodID string) ([]report.Artifact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var list []report.Artifact
	for _, a := range r.s.artifacts {
		if a.PeriodID == periodID {
			list = append(list, copyArtifact(a))
		}
	}
	sortArtifacts(list)
	return list, nil
}

func (r *artifactRepository) SetDeliveryState(ctx context.Context, id string, state report.DeliveryState) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.artifacts[id]
	if !ok {
		return report.ErrArtifactNotFound
	}
	a.DeliveryState = state
	r.s.artifacts[id] = a
	return nil
}

func (r *artifactRepository) MarkArchived(ctx context.Context, ids []string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range ids {
		a, ok := r.s.artifacts[id]
		if !ok {
			return report.ErrArtifactNotFound
		}
		if a.ArchivedAt != nil {
			continue
		}
		stamp := at
		a.ArchivedAt = &stamp
		r.s.artifacts[id] = a
	}
	return nil
}

func (r *artifactRepository) ListArchivesCreatedBefore(ctx context.Context, before time.Time) ([]report.Artifact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var list []report.Artifact
	for _, a := range r.s.artifacts {
		if a.Kind == report.KindArchive && a.CreatedAt.Before(before) {
			list = append(list, copyArtifact(a))
		}
	}
	sortArtifacts(list)
	return list, nil
}

func (r *artifactRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.artifacts[id]; !ok {
		return report.ErrArtifactNotFound
	}
	delete(r.s.artifacts, id)
	return nil
}

func sortArtifacts(list []report.Artifact) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
