package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
	"github.com/Tolits3/PanelX-Backend/internal/repository"
	"github.com/Tolits3/PanelX-Backend/internal/testutil"
)

func TestProfiles(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
			storage := NewStorage(innerTx)
			fn(innerTx, storage)
		})
	}

	sam := models.Profile{
		UID:      "uid-1",
		Email:    "sam@example.com",
		Username: "sam",
		Role:     models.RoleCreator,
	}

	t.Run("CreateProfile", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			t.Run("create ok", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					profile, err := storage.Profile().CreateProfile(t.Context(), sam)

					require.NoError(t, err, "profile has to be created ok")
					require.Equal(t, "uid-1", profile.UID)
					require.Equal(t, "sam", profile.Username)
					require.False(t, profile.CreatedAt.IsZero(), "created_at should be set by the db")
				})
			})

			t.Run("duplicate uid", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Profile().CreateProfile(t.Context(), sam)
					require.NoError(t, err)

					duplicate := sam
					duplicate.Username = "other"
					_, err = storage.Profile().CreateProfile(t.Context(), duplicate)

					require.ErrorIs(t, err, apperrors.ErrProfileExists)
				})
			})

			t.Run("duplicate username", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Profile().CreateProfile(t.Context(), sam)
					require.NoError(t, err)

					duplicate := sam
					duplicate.UID = "uid-2"
					_, err = storage.Profile().CreateProfile(t.Context(), duplicate)

					require.ErrorIs(t, err, apperrors.ErrUsernameTaken, "username unique violation should map to taken")
				})
			})
		})
	})

	t.Run("GetProfile", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			_, err := storage.Profile().CreateProfile(t.Context(), sam)
			require.NoError(t, err)

			t.Run("by uid", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					profile, err := storage.Profile().GetProfile(t.Context(), "uid-1")

					require.NoError(t, err)
					require.Equal(t, "sam", profile.Username)
				})
			})

			t.Run("by username", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					profile, err := storage.Profile().GetProfileByUsername(t.Context(), "sam")

					require.NoError(t, err)
					require.Equal(t, "uid-1", profile.UID)
				})
			})

			t.Run("missing", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Profile().GetProfile(t.Context(), "ghost")
					require.ErrorIs(t, err, apperrors.ErrProfileNotFound)

					_, err = storage.Profile().GetProfileByUsername(t.Context(), "ghost")
					require.ErrorIs(t, err, apperrors.ErrProfileNotFound)
				})
			})
		})
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			created, err := storage.Profile().CreateProfile(t.Context(), sam)
			require.NoError(t, err)

			t.Run("update fields", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					changed := created
					changed.Username = "sam_draws"
					changed.Bio = "Comic artist"

					updated, err := storage.Profile().UpdateProfile(t.Context(), changed)

					require.NoError(t, err, "updating profile should not fail")
					require.Equal(t, "sam_draws", updated.Username)
					require.Equal(t, "Comic artist", updated.Bio)
				})
			})

			t.Run("rename to taken username", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					other := models.Profile{UID: "uid-2", Email: "kim@example.com", Username: "kim", Role: models.RoleReader}
					_, err := storage.Profile().CreateProfile(t.Context(), other)
					require.NoError(t, err)

					changed := created
					changed.Username = "kim"
					_, err = storage.Profile().UpdateProfile(t.Context(), changed)

					require.ErrorIs(t, err, apperrors.ErrUsernameTaken)
				})
			})

			t.Run("update missing profile", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					ghost := created
					ghost.UID = "ghost"

					_, err := storage.Profile().UpdateProfile(t.Context(), ghost)

					require.ErrorIs(t, err, apperrors.ErrProfileNotFound)
				})
			})
		})
	})

	t.Run("DeleteProfile", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			_, err := storage.Profile().CreateProfile(t.Context(), sam)
			require.NoError(t, err)

			t.Run("delete ok", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					err := storage.Profile().DeleteProfile(t.Context(), "uid-1")
					require.NoError(t, err)

					_, err = storage.Profile().GetProfile(t.Context(), "uid-1")
					require.ErrorIs(t, err, apperrors.ErrProfileNotFound)
				})
			})

			t.Run("delete missing", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					err := storage.Profile().DeleteProfile(t.Context(), "ghost")
					require.ErrorIs(t, err, apperrors.ErrProfileNotFound)
				})
			})
		})
	})
}
