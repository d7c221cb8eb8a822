package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/handlers/render"
	"github.com/Tolits3/PanelX-Backend/internal/logger"
	"github.com/Tolits3/PanelX-Backend/internal/models"
	"github.com/Tolits3/PanelX-Backend/internal/service/profile"
)

type profileResponse struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toProfileResponse(p models.Profile) profileResponse {
	return profileResponse{
		UID:       p.UID,
		Email:     p.Email,
		Username:  p.Username,
		Role:      p.Role,
		AvatarURL: p.AvatarURL,
		Bio:       p.Bio,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func handleCreateProfile(profiles profileService, l logger.Logger) http.Handler {
	type request struct {
		UID       string `json:"uid" validate:"required"`
		Email     string `json:"email" validate:"required,email"`
		Username  string `json:"username"`
		Role      string `json:"role" validate:"required,oneof=creator reader"`
		AvatarURL string `json:"avatar_url"`
		Bio       string `json:"bio"`
	}

	type response struct {
		Success bool             `json:"success"`
		Message string           `json:"message"`
		User    *profileResponse `json:"user,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := profiles.CreateProfile(r.Context(), models.Profile{
			UID:       req.UID,
			Email:     req.Email,
			Username:  req.Username,
			Role:      req.Role,
			AvatarURL: req.AvatarURL,
			Bio:       req.Bio,
		})

		switch {
		case err == nil:
			user := toProfileResponse(created)
			render.JSON(w, response{
				Success: true,
				Message: "User profile created successfully",
				User:    &user,
			})
		case errors.Is(err, apperrors.ErrProfileExists):
			render.JSON(w, response{Success: false, Message: "User already exists"})
		default:
			l.Error("Failed to create profile", "error", err, "uid", req.UID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetProfile(profiles profileService, l logger.Logger) http.Handler {
	type response struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		User    profileResponse `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.PathValue("uid")

		p, err := profiles.GetProfile(r.Context(), uid)

		switch {
		case err == nil:
			render.JSON(w, response{Success: true, Message: "User found", User: toProfileResponse(p)})
		case errors.Is(err, apperrors.ErrProfileNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			l.Error("Failed to get profile", "error", err, "uid", uid)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUpdateProfile(profiles profileService, l logger.Logger) http.Handler {
	type request struct {
		Username *string `json:"username"`
		Bio      *string `json:"bio"`
	}

	type response struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		User    profileResponse `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.PathValue("uid")

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		p, err := profiles.UpdateProfile(r.Context(), uid, profile.Update{
			Username: req.Username,
			Bio:      req.Bio,
		})

		switch {
		case err == nil:
			render.JSON(w, response{Success: true, Message: "Profile updated successfully", User: toProfileResponse(p)})
		case errors.Is(err, apperrors.ErrProfileNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrUsernameTaken):
			render.ServiceError(w, "Username already taken", http.StatusBadRequest)
		default:
			l.Error("Failed to update profile", "error", err, "uid", uid)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUploadAvatar(profiles profileService, avatars avatarStore, l logger.Logger) http.Handler {
	type response struct {
		Success   bool            `json:"success"`
		Message   string          `json:"message"`
		AvatarURL string          `json:"avatar_url"`
		User      profileResponse `json:"user"`
	}

	allowedTypes := map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
		"image/gif":  {},
		"image/webp": {},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.PathValue("uid")

		if _, err := profiles.GetProfile(r.Context(), uid); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrProfileNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("Failed to get profile", "error", err, "uid", uid)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			render.ServiceError(w, "File is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if _, ok := allowedTypes[contentType]; !ok {
			render.ServiceError(w, "Invalid file type. Only images allowed.", http.StatusBadRequest)
			return
		}

		ext := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
		if ext == "" {
			ext = "jpg"
		}

		avatarURL, err := avatars.Save(uid, ext, file)
		if err != nil {
			l.Error("Failed to save avatar", "error", err, "uid", uid)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		p, err := profiles.UpdateProfile(r.Context(), uid, profile.Update{AvatarURL: &avatarURL})
		if err != nil {
			l.Error("Failed to update profile avatar", "error", err, "uid", uid)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			Success:   true,
			Message:   "Avatar uploaded successfully",
			AvatarURL: avatarURL,
			User:      toProfileResponse(p),
		})
	})
}

func handleCheckUsername(profiles profileService, l logger.Logger) http.Handler {
	type response struct {
		Available bool   `json:"available"`
		Message   string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")

		available, err := profiles.UsernameAvailable(r.Context(), username)

		switch err {
		case nil:
			message := "Username is taken"
			if available {
				message = "Username is available"
			}
			render.JSON(w, response{Available: available, Message: message})
		default:
			l.Error("Failed to check username", "error", err, "username", username)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeleteProfile(profiles profileService, l logger.Logger) http.Handler {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.PathValue("uid")

		err := profiles.DeleteProfile(r.Context(), uid)

		switch {
		case err == nil:
			render.JSON(w, response{Success: true, Message: "User deleted successfully"})
		case errors.Is(err, apperrors.ErrProfileNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete profile", "error", err, "uid", uid)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
