package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
)

type seriesRepo struct {
	s *Storage
}

func (r *seriesRepo) CreateSeries(ctx context.Context, s models.Series) (models.Series, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = models.SeriesStatusOngoing
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	r.s.series[s.ID] = s
	r.s.persistLocked()

	return s, nil
}

func (r *seriesRepo) GetSeries(ctx context.Context, id uuid.UUID) (models.Series, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	s, ok := r.s.series[id]
	if !ok {
		return models.Series{}, apperrors.ErrSeriesNotFound
	}

	return s, nil
}

func (r *seriesRepo) UpdateSeries(ctx context.Context, s models.Series) (models.Series, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.series[s.ID]
	if !ok {
		return models.Series{}, apperrors.ErrSeriesNotFound
	}

	stored.Title = s.Title
	stored.Description = s.Description
	stored.Genre = s.Genre
	stored.Tags = s.Tags
	stored.CoverImageURL = s.CoverImageURL
	stored.IsPublished = s.IsPublished
	stored.Status = s.Status
	stored.PublishedAt = s.PublishedAt
	stored.UpdatedAt = time.Now().UTC()

	r.s.series[s.ID] = stored
	r.s.persistLocked()

	return stored, nil
}

func (r *seriesRepo) DeleteSeries(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.series[id]; !ok {
		return apperrors.ErrSeriesNotFound
	}

	delete(r.s.series, id)
	for epID, ep := range r.s.episodes {
		if ep.SeriesID == id {
			delete(r.s.episodes, epID)
			delete(r.s.panels, epID)
		}
	}
	r.s.persistLocked()

	return nil
}

func (r *seriesRepo) ListPublishedSeries(ctx context.Context) ([]models.Series, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []models.Series{}
	for _, s := range r.s.series {
		if !s.IsPublished {
			continue
		}
		s.EpisodeCount = r.countEpisodesLocked(s.ID, true)
		list = append(list, s)
	}

	sort.Slice(list, func(i, j int) bool {
		return publishedOrCreated(list[i]).After(publishedOrCreated(list[j]))
	})

	return list, nil
}

func (r *seriesRepo) ListTrendingSeries(ctx context.Context, limit int) ([]models.Series, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []models.Series{}
	for _, s := range r.s.series {
		if !s.IsPublished {
			continue
		}
		s.EpisodeCount = r.countEpisodesLocked(s.ID, true)
		list = append(list, s)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].ViewCount > list[j].ViewCount })

	if len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

func (r *seriesRepo) ListCreatorSeries(ctx context.Context, creatorUID string) ([]models.Series, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []models.Series{}
	for _, s := range r.s.series {
		if s.CreatorUID != creatorUID {
			continue
		}
		s.EpisodeCount = r.countEpisodesLocked(s.ID, false)
		list = append(list, s)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	return list, nil
}

func (r *seriesRepo) IncrementSeriesViews(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	s, ok := r.s.series[id]
	if !ok {
		return apperrors.ErrSeriesNotFound
	}

	s.ViewCount++
	r.s.series[id] = s
	r.s.persistLocked()

	return nil
}

func (r *seriesRepo) CreateEpisode(ctx context.Context, e models.Episode) (models.Episode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now().UTC()

	r.s.episodes[e.ID] = e
	r.s.persistLocked()

	return e, nil
}

func (r *seriesRepo) GetEpisode(ctx context.Context, id uuid.UUID) (models.Episode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.episodes[id]
	if !ok {
		return models.Episode{}, apperrors.ErrEpisodeNotFound
	}

	return e, nil
}

func (r *seriesRepo) UpdateEpisode(ctx context.Context, e models.Episode) (models.Episode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.episodes[e.ID]
	if !ok {
		return models.Episode{}, apperrors.ErrEpisodeNotFound
	}

	stored.Title = e.Title
	stored.ThumbnailURL = e.ThumbnailURL
	stored.IsPublished = e.IsPublished
	stored.PublishedAt = e.PublishedAt

	r.s.episodes[e.ID] = stored
	r.s.persistLocked()

	return stored, nil
}

func (r *seriesRepo) ListSeriesEpisodes(ctx context.Context, seriesID uuid.UUID, publishedOnly bool) ([]models.Episode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []models.Episode{}
	for _, e := range r.s.episodes {
		if e.SeriesID != seriesID {
			continue
		}
		if publishedOnly && !e.IsPublished {
			continue
		}
		list = append(list, e)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].EpisodeNumber < list[j].EpisodeNumber })

	return list, nil
}

func (r *seriesRepo) ListCreatorEpisodes(ctx context.Context, creatorUID string) ([]models.Episode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []models.Episode{}
	for _, e := range r.s.episodes {
		if e.CreatorUID == creatorUID {
			list = append(list, e)
		}
	}

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	return list, nil
}

func (r *seriesRepo) CountSeriesEpisodes(ctx context.Context, seriesID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.countEpisodesLocked(seriesID, false), nil
}

func (r *seriesRepo) IncrementEpisodeViews(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.episodes[id]
	if !ok {
		return apperrors.ErrEpisodeNotFound
	}

	e.ViewCount++
	r.s.episodes[id] = e
	r.s.persistLocked()

	return nil
}

func (r *seriesRepo) ReplacePanels(ctx context.Context, episodeID uuid.UUID, panels []models.Panel) ([]models.Panel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	saved := make([]models.Panel, 0, len(panels))
	for i, p := range panels {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if p.Dialogues == nil {
			p.Dialogues = []string{}
		}
		p.EpisodeID = episodeID
		p.Order = i
		p.CreatedAt = now
		saved = append(saved, p)
	}

	r.s.panels[episodeID] = saved
	r.s.persistLocked()

	out := make([]models.Panel, len(saved))
	copy(out, saved)
	return out, nil
}

func (r *seriesRepo) ListPanels(ctx context.Context, episodeID uuid.UUID) ([]models.Panel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored := r.s.panels[episodeID]
	out := make([]models.Panel, len(stored))
	copy(out, stored)

	return out, nil
}

func (r *seriesRepo) countEpisodesLocked(seriesID uuid.UUID, publishedOnly bool) int {
	count := 0
	for _, e := range r.s.episodes {
		if e.SeriesID != seriesID {
			continue
		}
		if publishedOnly && !e.IsPublished {
			continue
		}
		count++
	}
	return count
}

func publishedOrCreated(s models.Series) time.Time {
	if s.PublishedAt != nil {
		return *s.PublishedAt
	}
	return s.CreatedAt
}
