package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
)

type progressRepo struct {
	s *Storage
}

func (r *progressRepo) UpsertProgress(ctx context.Context, p models.Progress) (models.Progress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := progressKey{UserID: p.UserID, SeriesID: p.SeriesID, EpisodeID: p.EpisodeID}
	r.s.progress[key] = p
	r.s.persistLocked()

	return p, nil
}

func (r *progressRepo) ListSeriesProgress(ctx context.Context, userID string, seriesID uuid.UUID) ([]models.Progress, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []models.Progress{}
	for key, p := range r.s.progress {
		if key.UserID == userID && key.SeriesID == seriesID {
			list = append(list, p)
		}
	}

	sortByLastRead(list)

	return list, nil
}

func (r *progressRepo) ListUserProgress(ctx context.Context, userID string) ([]models.Progress, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []models.Progress{}
	for key, p := range r.s.progress {
		if key.UserID == userID {
			list = append(list, p)
		}
	}

	sortByLastRead(list)

	return list, nil
}

func (r *progressRepo) DeleteProgress(ctx context.Context, userID string, seriesID uuid.UUID, episodeID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := progressKey{UserID: userID, SeriesID: seriesID, EpisodeID: episodeID}
	if _, ok := r.s.progress[key]; !ok {
		return apperrors.ErrProgressNotFound
	}

	delete(r.s.progress, key)
	r.s.persistLocked()

	return nil
}

func sortByLastRead(list []models.Progress) {
	sort.Slice(list, func(i, j int) bool { return list[i].LastReadAt.After(list[j].LastReadAt) })
}
