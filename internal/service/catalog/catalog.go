package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/models"
	"github.com/Tolits3/PanelX-Backend/internal/repository"
)

const trendingLimit = 10

// Service owns the comic catalog: series, their episodes and the panel sets
// inside episodes. Everything starts as a draft and becomes reader visible
// only after an explicit publish toggle.
type Service struct {
	seriesRepo repository.SeriesRepo
}

func NewService(seriesRepo repository.SeriesRepo) *Service {
	return &Service{seriesRepo: seriesRepo}
}

func (s *Service) CreateSeries(ctx context.Context, series models.Series) (models.Series, error) {
	series.IsPublished = false
	series.Status = models.SeriesStatusOngoing
	return s.seriesRepo.CreateSeries(ctx, series)
}

// GetSeries returns the series with its published episodes and counts the
// visit: every read bumps the view counter.
func (s *Service) GetSeries(ctx context.Context, id uuid.UUID) (models.Series, []models.Episode, error) {
	series, err := s.seriesRepo.GetSeries(ctx, id)
	if err != nil {
		return models.Series{}, nil, err
	}

	episodes, err := s.seriesRepo.ListSeriesEpisodes(ctx, id, true)
	if err != nil {
		return models.Series{}, nil, err
	}

	if err := s.seriesRepo.IncrementSeriesViews(ctx, id); err != nil {
		return models.Series{}, nil, err
	}
	series.ViewCount++

	return series, episodes, nil
}

type SeriesUpdate struct {
	Title         *string
	Description   *string
	Genre         *string
	Tags          *string
	CoverImageURL *string
}

func (s *Service) UpdateSeries(ctx context.Context, id uuid.UUID, update SeriesUpdate) (models.Series, error) {
	series, err := s.seriesRepo.GetSeries(ctx, id)
	if err != nil {
		return models.Series{}, err
	}

	if update.Title != nil {
		series.Title = *update.Title
	}
	if update.Description != nil {
		series.Description = *update.Description
	}
	if update.Genre != nil {
		series.Genre = *update.Genre
	}
	if update.Tags != nil {
		series.Tags = *update.Tags
	}
	if update.CoverImageURL != nil {
		series.CoverImageURL = *update.CoverImageURL
	}

	return s.seriesRepo.UpdateSeries(ctx, series)
}

func (s *Service) DeleteSeries(ctx context.Context, id uuid.UUID) error {
	return s.seriesRepo.DeleteSeries(ctx, id)
}

// TogglePublishSeries flips the published flag. The first publish stamps
// PublishedAt, unpublishing keeps the stamp.
func (s *Service) TogglePublishSeries(ctx context.Context, id uuid.UUID) (models.Series, error) {
	series, err := s.seriesRepo.GetSeries(ctx, id)
	if err != nil {
		return models.Series{}, err
	}

	series.IsPublished = !series.IsPublished
	if series.IsPublished && series.PublishedAt == nil {
		now := time.Now().UTC()
		series.PublishedAt = &now
	}

	return s.seriesRepo.UpdateSeries(ctx, series)
}

func (s *Service) ListPublishedSeries(ctx context.Context) ([]models.Series, error) {
	return s.seriesRepo.ListPublishedSeries(ctx)
}

func (s *Service) ListTrendingSeries(ctx context.Context) ([]models.Series, error) {
	return s.seriesRepo.ListTrendingSeries(ctx, trendingLimit)
}

func (s *Service) ListCreatorSeries(ctx context.Context, creatorUID string) ([]models.Series, error) {
	return s.seriesRepo.ListCreatorSeries(ctx, creatorUID)
}

// CreateEpisode adds an episode to the series. Without an explicit number the
// next free one is assigned.
func (s *Service) CreateEpisode(ctx context.Context, episode models.Episode) (models.Episode, error) {
	if _, err := s.seriesRepo.GetSeries(ctx, episode.SeriesID); err != nil {
		return models.Episode{}, err
	}

	if episode.EpisodeNumber == 0 {
		count, err := s.seriesRepo.CountSeriesEpisodes(ctx, episode.SeriesID)
		if err != nil {
			return models.Episode{}, fmt.Errorf("can't count episodes. Err: %w", err)
		}
		episode.EpisodeNumber = count + 1
	}

	episode.IsPublished = false
	return s.seriesRepo.CreateEpisode(ctx, episode)
}

// GetEpisode returns the episode with its ordered panels and bumps views.
func (s *Service) GetEpisode(ctx context.Context, id uuid.UUID) (models.Episode, []models.Panel, error) {
	episode, err := s.seriesRepo.GetEpisode(ctx, id)
	if err != nil {
		return models.Episode{}, nil, err
	}

	panels, err := s.seriesRepo.ListPanels(ctx, id)
	if err != nil {
		return models.Episode{}, nil, err
	}

	if err := s.seriesRepo.IncrementEpisodeViews(ctx, id); err != nil {
		return models.Episode{}, nil, err
	}
	episode.ViewCount++

	return episode, panels, nil
}

func (s *Service) ListCreatorEpisodes(ctx context.Context, creatorUID string) ([]models.Episode, error) {
	return s.seriesRepo.ListCreatorEpisodes(ctx, creatorUID)
}

func (s *Service) TogglePublishEpisode(ctx context.Context, id uuid.UUID) (models.Episode, error) {
	episode, err := s.seriesRepo.GetEpisode(ctx, id)
	if err != nil {
		return models.Episode{}, err
	}

	episode.IsPublished = !episode.IsPublished
	if episode.IsPublished && episode.PublishedAt == nil {
		now := time.Now().UTC()
		episode.PublishedAt = &now
	}

	return s.seriesRepo.UpdateEpisode(ctx, episode)
}

// SavePanels replaces the whole panel set of an episode in editor order. The
// first panel image becomes the episode thumbnail.
func (s *Service) SavePanels(ctx context.Context, episodeID uuid.UUID, panels []models.Panel) ([]models.Panel, error) {
	episode, err := s.seriesRepo.GetEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	saved, err := s.seriesRepo.ReplacePanels(ctx, episodeID, panels)
	if err != nil {
		return nil, err
	}

	if len(saved) > 0 && saved[0].ImageURL != "" && saved[0].ImageURL != episode.ThumbnailURL {
		episode.ThumbnailURL = saved[0].ImageURL
		if _, err := s.seriesRepo.UpdateEpisode(ctx, episode); err != nil {
			return nil, fmt.Errorf("can't update episode thumbnail. Err: %w", err)
		}
	}

	return saved, nil
}
