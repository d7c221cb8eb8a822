package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
)

type ProgressRepo struct {
	DB DBTX
}

const upsertProgress = `-- name: UpsertProgress
INSERT INTO reading_progress (user_id, series_id, episode_id, page_number, completed, last_read_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, series_id, episode_id)
DO UPDATE SET page_number = $4, completed = $5, last_read_at = $6
RETURNING user_id, series_id, episode_id, page_number, completed, last_read_at
`

func (r *ProgressRepo) UpsertProgress(ctx context.Context, p models.Progress) (models.Progress, error) {
	rows, _ := r.DB.Query(ctx, upsertProgress, p.UserID, p.SeriesID, p.EpisodeID, p.PageNumber, p.Completed, p.LastReadAt)
	progress, err := pgx.CollectOneRow(rows, rowToProgress)
	if err != nil {
		return progress, fmt.Errorf("db error: %w", err)
	}

	return progress, nil
}

const listSeriesProgress = `-- name: ListSeriesProgress
SELECT user_id, series_id, episode_id, page_number, completed, last_read_at FROM reading_progress
WHERE user_id = $1 AND series_id = $2
ORDER BY last_read_at DESC
`

func (r *ProgressRepo) ListSeriesProgress(ctx context.Context, userID string, seriesID uuid.UUID) ([]models.Progress, error) {
	rows, _ := r.DB.Query(ctx, listSeriesProgress, userID, seriesID)
	return collectProgress(rows)
}

const listUserProgress = `-- name: ListUserProgress
SELECT user_id, series_id, episode_id, page_number, completed, last_read_at FROM reading_progress
WHERE user_id = $1
ORDER BY last_read_at DESC
`

func (r *ProgressRepo) ListUserProgress(ctx context.Context, userID string) ([]models.Progress, error) {
	rows, _ := r.DB.Query(ctx, listUserProgress, userID)
	return collectProgress(rows)
}

const deleteProgress = `-- name: DeleteProgress
DELETE FROM reading_progress
WHERE user_id = $1 AND series_id = $2 AND episode_id = $3
`

func (r *ProgressRepo) DeleteProgress(ctx context.Context, userID string, seriesID uuid.UUID, episodeID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteProgress, userID, seriesID, episodeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrProgressNotFound
	}

	return nil
}

func collectProgress(rows pgx.Rows) ([]models.Progress, error) {
	list, err := pgx.CollectRows(rows, rowToProgress)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if list == nil {
		list = []models.Progress{}
	}

	return list, nil
}

func rowToProgress(row pgx.CollectableRow) (models.Progress, error) {
	var p models.Progress
	err := row.Scan(&p.UserID, &p.SeriesID, &p.EpisodeID, &p.PageNumber, &p.Completed, &p.LastReadAt)
	return p, err
}
