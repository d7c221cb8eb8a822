package memory

import (
	"context"
	"time"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
)

type profileRepo struct {
	s *Storage
}

func (r *profileRepo) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[p.UID]; ok {
		return models.Profile{}, apperrors.ErrProfileExists
	}
	for _, other := range r.s.profiles {
		if other.Username == p.Username {
			return models.Profile{}, apperrors.ErrUsernameTaken
		}
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	r.s.profiles[p.UID] = p
	r.s.persistLocked()

	return p, nil
}

func (r *profileRepo) GetProfile(ctx context.Context, uid string) (models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[uid]
	if !ok {
		return models.Profile{}, apperrors.ErrProfileNotFound
	}

	return p, nil
}

func (r *profileRepo) GetProfileByUsername(ctx context.Context, username string) (models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.profiles {
		if p.Username == username {
			return p, nil
		}
	}

	return models.Profile{}, apperrors.ErrProfileNotFound
}

func (r *profileRepo) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.profiles[p.UID]
	if !ok {
		return models.Profile{}, apperrors.ErrProfileNotFound
	}
	for uid, other := range r.s.profiles {
		if uid != p.UID && other.Username == p.Username {
			return models.Profile{}, apperrors.ErrUsernameTaken
		}
	}

	stored.Email = p.Email
	stored.Username = p.Username
	stored.Role = p.Role
	stored.AvatarURL = p.AvatarURL
	stored.Bio = p.Bio
	stored.UpdatedAt = time.Now().UTC()

	r.s.profiles[p.UID] = stored
	r.s.persistLocked()

	return stored, nil
}

func (r *profileRepo) DeleteProfile(ctx context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[uid]; !ok {
		return apperrors.ErrProfileNotFound
	}

	delete(r.s.profiles, uid)
	r.s.persistLocked()

	return nil
}
