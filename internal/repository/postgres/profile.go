package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
)

type ProfileRepo struct {
	DB DBTX
}

const createProfile = `-- name: CreateProfile
INSERT INTO profiles (uid, email, username, role, avatar_url, bio)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING uid, email, username, role, avatar_url, bio, created_at, updated_at
`

func (r *ProfileRepo) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, createProfile, p.UID, p.Email, p.Username, p.Role, p.AvatarURL, p.Bio)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == "profiles_username_key" {
				return profile, apperrors.ErrUsernameTaken
			}
			return profile, apperrors.ErrProfileExists
		}

		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

const getProfile = `-- name: GetProfile
SELECT uid, email, username, role, avatar_url, bio, created_at, updated_at FROM profiles
WHERE uid = $1
`

func (r *ProfileRepo) GetProfile(ctx context.Context, uid string) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, getProfile, uid)
	return collectProfile(rows)
}

const getProfileByUsername = `-- name: GetProfileByUsername
SELECT uid, email, username, role, avatar_url, bio, created_at, updated_at FROM profiles
WHERE username = $1
`

func (r *ProfileRepo) GetProfileByUsername(ctx context.Context, username string) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, getProfileByUsername, username)
	return collectProfile(rows)
}

const updateProfile = `-- name: UpdateProfile
UPDATE profiles
SET email = $2, username = $3, role = $4, avatar_url = $5, bio = $6, updated_at = now()
WHERE uid = $1
RETURNING uid, email, username, role, avatar_url, bio, created_at, updated_at
`

func (r *ProfileRepo) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, updateProfile, p.UID, p.Email, p.Username, p.Role, p.AvatarURL, p.Bio)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return profile, apperrors.ErrUsernameTaken
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return profile, apperrors.ErrProfileNotFound
		}

		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

const deleteProfile = `-- name: DeleteProfile
DELETE FROM profiles
WHERE uid = $1
`

func (r *ProfileRepo) DeleteProfile(ctx context.Context, uid string) error {
	tag, err := r.DB.Exec(ctx, deleteProfile, uid)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrProfileNotFound
	}

	return nil
}

func collectProfile(rows pgx.Rows) (models.Profile, error) {
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrProfileNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

func rowToProfile(row pgx.CollectableRow) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UID, &p.Email, &p.Username, &p.Role, &p.AvatarURL, &p.Bio, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
