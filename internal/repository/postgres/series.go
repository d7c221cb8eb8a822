package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
)

type SeriesRepo struct {
	DB DBTX
}

const seriesColumns = `id, creator_uid, title, description, genre, tags, cover_image_url,
is_published, status, view_count, like_count, created_at, updated_at, published_at`

const createSeries = `-- name: CreateSeries
INSERT INTO series (id, creator_uid, title, description, genre, tags, cover_image_url, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + seriesColumns + `
`

func (r *SeriesRepo) CreateSeries(ctx context.Context, s models.Series) (models.Series, error) {
	id := s.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	status := s.Status
	if status == "" {
		status = models.SeriesStatusOngoing
	}

	rows, _ := r.DB.Query(ctx, createSeries, id, s.CreatorUID, s.Title, s.Description, s.Genre, s.Tags, s.CoverImageURL, status)
	series, err := pgx.CollectOneRow(rows, rowToSeries)
	if err != nil {
		return series, fmt.Errorf("db error: %w", err)
	}

	return series, nil
}

const getSeries = `-- name: GetSeries
SELECT ` + seriesColumns + ` FROM series
WHERE id = $1
`

func (r *SeriesRepo) GetSeries(ctx context.Context, id uuid.UUID) (models.Series, error) {
	rows, _ := r.DB.Query(ctx, getSeries, id)
	return collectSeries(rows)
}

const updateSeries = `-- name: UpdateSeries
UPDATE series
SET title = $2, description = $3, genre = $4, tags = $5, cover_image_url = $6,
    is_published = $7, status = $8, published_at = $9, updated_at = now()
WHERE id = $1
RETURNING ` + seriesColumns + `
`

func (r *SeriesRepo) UpdateSeries(ctx context.Context, s models.Series) (models.Series, error) {
	rows, _ := r.DB.Query(ctx, updateSeries,
		s.ID, s.Title, s.Description, s.Genre, s.Tags, s.CoverImageURL,
		s.IsPublished, s.Status, s.PublishedAt)
	return collectSeries(rows)
}

const deleteSeries = `-- name: DeleteSeries
DELETE FROM series
WHERE id = $1
`

func (r *SeriesRepo) DeleteSeries(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteSeries, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrSeriesNotFound
	}

	return nil
}

const listPublishedSeries = `-- name: ListPublishedSeries
SELECT ` + seriesColumns + `,
    (SELECT count(*) FROM episodes e WHERE e.series_id = series.id AND e.is_published) AS episode_count
FROM series
WHERE is_published
ORDER BY coalesce(published_at, created_at) DESC
`

func (r *SeriesRepo) ListPublishedSeries(ctx context.Context) ([]models.Series, error) {
	rows, _ := r.DB.Query(ctx, listPublishedSeries)
	return collectSeriesListWithCount(rows)
}

const listTrendingSeries = `-- name: ListTrendingSeries
SELECT ` + seriesColumns + `,
    (SELECT count(*) FROM episodes e WHERE e.series_id = series.id AND e.is_published) AS episode_count
FROM series
WHERE is_published
ORDER BY view_count DESC
LIMIT $1
`

func (r *SeriesRepo) ListTrendingSeries(ctx context.Context, limit int) ([]models.Series, error) {
	rows, _ := r.DB.Query(ctx, listTrendingSeries, limit)
	return collectSeriesListWithCount(rows)
}

const listCreatorSeries = `-- name: ListCreatorSeries
SELECT ` + seriesColumns + `,
    (SELECT count(*) FROM episodes e WHERE e.series_id = series.id) AS episode_count
FROM series
WHERE creator_uid = $1
ORDER BY created_at DESC
`

func (r *SeriesRepo) ListCreatorSeries(ctx context.Context, creatorUID string) ([]models.Series, error) {
	rows, _ := r.DB.Query(ctx, listCreatorSeries, creatorUID)
	return collectSeriesListWithCount(rows)
}

const incrementSeriesViews = `-- name: IncrementSeriesViews
UPDATE series
SET view_count = view_count + 1
WHERE id = $1
`

func (r *SeriesRepo) IncrementSeriesViews(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, incrementSeriesViews, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrSeriesNotFound
	}

	return nil
}

const episodeColumns = `id, series_id, creator_uid, episode_number, title, thumbnail_url,
is_published, view_count, created_at, published_at`

const createEpisode = `-- name: CreateEpisode
INSERT INTO episodes (id, series_id, creator_uid, episode_number, title, thumbnail_url)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + episodeColumns + `
`

func (r *SeriesRepo) CreateEpisode(ctx context.Context, e models.Episode) (models.Episode, error) {
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createEpisode, id, e.SeriesID, e.CreatorUID, e.EpisodeNumber, e.Title, e.ThumbnailURL)
	episode, err := pgx.CollectOneRow(rows, rowToEpisode)
	if err != nil {
		return episode, fmt.Errorf("db error: %w", err)
	}

	return episode, nil
}

const getEpisode = `-- name: GetEpisode
SELECT ` + episodeColumns + ` FROM episodes
WHERE id = $1
`

func (r *SeriesRepo) GetEpisode(ctx context.Context, id uuid.UUID) (models.Episode, error) {
	rows, _ := r.DB.Query(ctx, getEpisode, id)
	episode, err := pgx.CollectOneRow(rows, rowToEpisode)

	switch {
	case err == nil:
		return episode, nil
	case errors.Is(err, pgx.ErrNoRows):
		return episode, apperrors.ErrEpisodeNotFound
	default:
		return episode, fmt.Errorf("db error: %w", err)
	}
}

const updateEpisode = `-- name: UpdateEpisode
UPDATE episodes
SET title = $2, thumbnail_url = $3, is_published = $4, published_at = $5
WHERE id = $1
RETURNING ` + episodeColumns + `
`

func (r *SeriesRepo) UpdateEpisode(ctx context.Context, e models.Episode) (models.Episode, error) {
	rows, _ := r.DB.Query(ctx, updateEpisode, e.ID, e.Title, e.ThumbnailURL, e.IsPublished, e.PublishedAt)
	episode, err := pgx.CollectOneRow(rows, rowToEpisode)

	switch {
	case err == nil:
		return episode, nil
	case errors.Is(err, pgx.ErrNoRows):
		return episode, apperrors.ErrEpisodeNotFound
	default:
		return episode, fmt.Errorf("db error: %w", err)
	}
}

const listSeriesEpisodes = `-- name: ListSeriesEpisodes
SELECT ` + episodeColumns + ` FROM episodes
WHERE series_id = $1 AND (NOT $2 OR is_published)
ORDER BY episode_number
`

func (r *SeriesRepo) ListSeriesEpisodes(ctx context.Context, seriesID uuid.UUID, publishedOnly bool) ([]models.Episode, error) {
	rows, _ := r.DB.Query(ctx, listSeriesEpisodes, seriesID, publishedOnly)
	return collectEpisodes(rows)
}

const listCreatorEpisodes = `-- name: ListCreatorEpisodes
SELECT ` + episodeColumns + ` FROM episodes
WHERE creator_uid = $1
ORDER BY created_at DESC
`

func (r *SeriesRepo) ListCreatorEpisodes(ctx context.Context, creatorUID string) ([]models.Episode, error) {
	rows, _ := r.DB.Query(ctx, listCreatorEpisodes, creatorUID)
	return collectEpisodes(rows)
}

const countSeriesEpisodes = `-- name: CountSeriesEpisodes
SELECT count(*) FROM episodes
WHERE series_id = $1
`

func (r *SeriesRepo) CountSeriesEpisodes(ctx context.Context, seriesID uuid.UUID) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx, countSeriesEpisodes, seriesID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

const incrementEpisodeViews = `-- name: IncrementEpisodeViews
UPDATE episodes
SET view_count = view_count + 1
WHERE id = $1
`

func (r *SeriesRepo) IncrementEpisodeViews(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, incrementEpisodeViews, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrEpisodeNotFound
	}

	return nil
}

const deleteEpisodePanels = `-- name: DeleteEpisodePanels
DELETE FROM panels
WHERE episode_id = $1
`

const insertPanel = `-- name: InsertPanel
INSERT INTO panels (id, episode_id, panel_order, image_url, dialogues, width, height)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, episode_id, panel_order, image_url, dialogues, width, height, created_at
`

func (r *SeriesRepo) ReplacePanels(ctx context.Context, episodeID uuid.UUID, panels []models.Panel) ([]models.Panel, error) {
	_, err := r.DB.Exec(ctx, deleteEpisodePanels, episodeID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	saved := make([]models.Panel, 0, len(panels))
	for i, p := range panels {
		id := p.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		dialogues := p.Dialogues
		if dialogues == nil {
			dialogues = []string{}
		}

		rows, _ := r.DB.Query(ctx, insertPanel, id, episodeID, i, p.ImageURL, dialogues, p.Width, p.Height)
		panel, err := pgx.CollectOneRow(rows, rowToPanel)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		saved = append(saved, panel)
	}

	return saved, nil
}

const listPanels = `-- name: ListPanels
SELECT id, episode_id, panel_order, image_url, dialogues, width, height, created_at FROM panels
WHERE episode_id = $1
ORDER BY panel_order
`

func (r *SeriesRepo) ListPanels(ctx context.Context, episodeID uuid.UUID) ([]models.Panel, error) {
	rows, _ := r.DB.Query(ctx, listPanels, episodeID)
	panels, err := pgx.CollectRows(rows, rowToPanel)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if panels == nil {
		panels = []models.Panel{}
	}

	return panels, nil
}

func collectSeries(rows pgx.Rows) (models.Series, error) {
	series, err := pgx.CollectOneRow(rows, rowToSeries)

	switch {
	case err == nil:
		return series, nil
	case errors.Is(err, pgx.ErrNoRows):
		return series, apperrors.ErrSeriesNotFound
	default:
		return series, fmt.Errorf("db error: %w", err)
	}
}

func collectSeriesListWithCount(rows pgx.Rows) ([]models.Series, error) {
	list, err := pgx.CollectRows(rows, rowToSeriesWithCount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if list == nil {
		list = []models.Series{}
	}

	return list, nil
}

func collectEpisodes(rows pgx.Rows) ([]models.Episode, error) {
	episodes, err := pgx.CollectRows(rows, rowToEpisode)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if episodes == nil {
		episodes = []models.Episode{}
	}

	return episodes, nil
}

func rowToSeries(row pgx.CollectableRow) (models.Series, error) {
	var s models.Series
	err := row.Scan(
		&s.ID, &s.CreatorUID, &s.Title, &s.Description, &s.Genre, &s.Tags, &s.CoverImageURL,
		&s.IsPublished, &s.Status, &s.ViewCount, &s.LikeCount, &s.CreatedAt, &s.UpdatedAt, &s.PublishedAt,
	)
	return s, err
}

func rowToSeriesWithCount(row pgx.CollectableRow) (models.Series, error) {
	var s models.Series
	err := row.Scan(
		&s.ID, &s.CreatorUID, &s.Title, &s.Description, &s.Genre, &s.Tags, &s.CoverImageURL,
		&s.IsPublished, &s.Status, &s.ViewCount, &s.LikeCount, &s.CreatedAt, &s.UpdatedAt, &s.PublishedAt,
		&s.EpisodeCount,
	)
	return s, err
}

func rowToEpisode(row pgx.CollectableRow) (models.Episode, error) {
	var e models.Episode
	err := row.Scan(
		&e.ID, &e.SeriesID, &e.CreatorUID, &e.EpisodeNumber, &e.Title, &e.ThumbnailURL,
		&e.IsPublished, &e.ViewCount, &e.CreatedAt, &e.PublishedAt,
	)
	return e, err
}

func rowToPanel(row pgx.CollectableRow) (models.Panel, error) {
	var p models.Panel
	err := row.Scan(&p.ID, &p.EpisodeID, &p.Order, &p.ImageURL, &p.Dialogues, &p.Width, &p.Height, &p.CreatedAt)
	return p, err
}
