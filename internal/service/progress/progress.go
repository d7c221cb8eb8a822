package progress

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/models"
	"github.com/Tolits3/PanelX-Backend/internal/repository"
)

// Service tracks how far readers got in each episode. One record per
// (user, series, episode), last write wins.
type Service struct {
	progressRepo repository.ProgressRepo
}

func NewService(progressRepo repository.ProgressRepo) *Service {
	return &Service{progressRepo: progressRepo}
}

func (s *Service) UpdateProgress(ctx context.Context, p models.Progress) (models.Progress, error) {
	if p.PageNumber <= 0 {
		p.PageNumber = 1
	}
	if p.LastReadAt.IsZero() {
		p.LastReadAt = time.Now().UTC()
	}

	return s.progressRepo.UpsertProgress(ctx, p)
}

func (s *Service) GetSeriesProgress(ctx context.Context, userID string, seriesID uuid.UUID) ([]models.Progress, error) {
	return s.progressRepo.ListSeriesProgress(ctx, userID, seriesID)
}

func (s *Service) GetUserProgress(ctx context.Context, userID string) ([]models.Progress, error) {
	return s.progressRepo.ListUserProgress(ctx, userID)
}

func (s *Service) ClearProgress(ctx context.Context, userID string, seriesID uuid.UUID, episodeID uuid.UUID) error {
	return s.progressRepo.DeleteProgress(ctx, userID, seriesID, episodeID)
}
