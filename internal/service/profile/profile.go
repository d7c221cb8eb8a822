package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
	"github.com/Tolits3/PanelX-Backend/internal/repository"
)

// Service manages user profiles created after signup on the identity
// provider side. Usernames are unique across the platform.
type Service struct {
	profileRepo repository.ProfileRepo
}

func NewService(profileRepo repository.ProfileRepo) *Service {
	return &Service{profileRepo: profileRepo}
}

// CreateProfile stores a new profile. An empty username is derived from the
// email local part; a taken username gets a uid-prefix suffix instead of
// failing, signup must not bounce on a name collision.
func (s *Service) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	if p.Username == "" {
		p.Username = usernameFromEmail(p.Email)
	}

	_, err := s.profileRepo.GetProfileByUsername(ctx, p.Username)
	switch {
	case err == nil:
		p.Username = fmt.Sprintf("%s_%s", p.Username, uidPrefix(p.UID))
	case errors.Is(err, apperrors.ErrProfileNotFound):
	default:
		return models.Profile{}, fmt.Errorf("can't check username. Err: %w", err)
	}

	profile, err := s.profileRepo.CreateProfile(ctx, p)
	if err != nil {
		return models.Profile{}, err
	}

	return profile, nil
}

func (s *Service) GetProfile(ctx context.Context, uid string) (models.Profile, error) {
	return s.profileRepo.GetProfile(ctx, uid)
}

type Update struct {
	Username  *string
	Bio       *string
	AvatarURL *string
}

// UpdateProfile applies a partial update. Unlike create, an explicit username
// change to a taken name is an error the caller has to see.
func (s *Service) UpdateProfile(ctx context.Context, uid string, update Update) (models.Profile, error) {
	profile, err := s.profileRepo.GetProfile(ctx, uid)
	if err != nil {
		return models.Profile{}, err
	}

	if update.Username != nil && *update.Username != profile.Username {
		other, err := s.profileRepo.GetProfileByUsername(ctx, *update.Username)
		switch {
		case err == nil && other.UID != uid:
			return models.Profile{}, apperrors.ErrUsernameTaken
		case err != nil && !errors.Is(err, apperrors.ErrProfileNotFound):
			return models.Profile{}, fmt.Errorf("can't check username. Err: %w", err)
		}

		profile.Username = *update.Username
	}
	if update.Bio != nil {
		profile.Bio = *update.Bio
	}
	if update.AvatarURL != nil {
		profile.AvatarURL = *update.AvatarURL
	}

	return s.profileRepo.UpdateProfile(ctx, profile)
}

// UsernameAvailable reports whether nobody holds the username yet.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := s.profileRepo.GetProfileByUsername(ctx, username)

	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, apperrors.ErrProfileNotFound):
		return true, nil
	default:
		return false, err
	}
}

func (s *Service) DeleteProfile(ctx context.Context, uid string) error {
	return s.profileRepo.DeleteProfile(ctx, uid)
}

func usernameFromEmail(email string) string {
	name, _, found := strings.Cut(email, "@")
	if !found || name == "" {
		return email
	}
	return name
}

func uidPrefix(uid string) string {
	if len(uid) > 4 {
		return uid[:4]
	}
	return uid
}
