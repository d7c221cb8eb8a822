package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
	"github.com/Tolits3/PanelX-Backend/internal/repository"
	"github.com/Tolits3/PanelX-Backend/internal/testutil"
)

func TestProgress(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
			storage := NewStorage(innerTx)
			fn(innerTx, storage)
		})
	}

	seriesID := uuid.New()
	episodeID := uuid.New()

	t.Run("UpsertProgress", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			t.Run("insert", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					progress, err := storage.Progress().UpsertProgress(t.Context(), models.Progress{
						UserID:     "reader-1",
						SeriesID:   seriesID,
						EpisodeID:  episodeID,
						PageNumber: 3,
						LastReadAt: time.Now(),
					})

					require.NoError(t, err, "inserting progress should not fail")
					require.Equal(t, 3, progress.PageNumber)
					require.False(t, progress.Completed)
				})
			})

			t.Run("update on conflict", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					first := models.Progress{
						UserID: "reader-1", SeriesID: seriesID, EpisodeID: episodeID,
						PageNumber: 3, LastReadAt: time.Now(),
					}
					_, err := storage.Progress().UpsertProgress(t.Context(), first)
					require.NoError(t, err)

					second := first
					second.PageNumber = 8
					second.Completed = true
					progress, err := storage.Progress().UpsertProgress(t.Context(), second)

					require.NoError(t, err, "second upsert should update, not fail")
					require.Equal(t, 8, progress.PageNumber)
					require.True(t, progress.Completed)

					list, err := storage.Progress().ListSeriesProgress(t.Context(), "reader-1", seriesID)
					require.NoError(t, err)
					require.Len(t, list, 1, "upsert should not create a second row")
				})
			})
		})
	})

	t.Run("Listing", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			otherSeries := uuid.New()
			now := time.Now()

			// Explicit timestamps drive the newest-first ordering
			_, err := storage.Progress().UpsertProgress(t.Context(), models.Progress{
				UserID: "reader-1", SeriesID: seriesID, EpisodeID: episodeID,
				PageNumber: 1, LastReadAt: now.Add(-time.Hour),
			})
			require.NoError(t, err)
			_, err = storage.Progress().UpsertProgress(t.Context(), models.Progress{
				UserID: "reader-1", SeriesID: otherSeries, EpisodeID: uuid.New(),
				PageNumber: 5, LastReadAt: now,
			})
			require.NoError(t, err)
			_, err = storage.Progress().UpsertProgress(t.Context(), models.Progress{
				UserID: "reader-2", SeriesID: seriesID, EpisodeID: episodeID,
				PageNumber: 9, LastReadAt: now,
			})
			require.NoError(t, err)

			t.Run("series progress scoped to user and series", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					list, err := storage.Progress().ListSeriesProgress(t.Context(), "reader-1", seriesID)

					require.NoError(t, err)
					require.Len(t, list, 1)
					require.Equal(t, 1, list[0].PageNumber)
				})
			})

			t.Run("user progress newest first", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					list, err := storage.Progress().ListUserProgress(t.Context(), "reader-1")

					require.NoError(t, err)
					require.Len(t, list, 2)
					require.Equal(t, otherSeries, list[0].SeriesID, "most recently read should come first")
				})
			})

			t.Run("empty for unknown user", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					list, err := storage.Progress().ListUserProgress(t.Context(), "ghost")

					require.NoError(t, err)
					require.NotNil(t, list, "should be empty list, not nil")
					require.Empty(t, list)
				})
			})
		})
	})

	t.Run("DeleteProgress", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			_, err := storage.Progress().UpsertProgress(t.Context(), models.Progress{
				UserID: "reader-1", SeriesID: seriesID, EpisodeID: episodeID,
				PageNumber: 1, LastReadAt: time.Now(),
			})
			require.NoError(t, err)

			t.Run("delete ok", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					err := storage.Progress().DeleteProgress(t.Context(), "reader-1", seriesID, episodeID)
					require.NoError(t, err)

					list, err := storage.Progress().ListSeriesProgress(t.Context(), "reader-1", seriesID)
					require.NoError(t, err)
					require.Empty(t, list)
				})
			})

			t.Run("delete missing", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					err := storage.Progress().DeleteProgress(t.Context(), "reader-1", seriesID, uuid.New())
					require.ErrorIs(t, err, apperrors.ErrProgressNotFound)
				})
			})
		})
	})
}
