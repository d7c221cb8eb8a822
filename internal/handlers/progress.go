package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/handlers/render"
	"github.com/Tolits3/PanelX-Backend/internal/logger"
	"github.com/Tolits3/PanelX-Backend/internal/models"
)

type progressResponse struct {
	UserID     string    `json:"user_id"`
	SeriesID   string    `json:"series_id"`
	EpisodeID  string    `json:"episode_id"`
	PageNumber int       `json:"page_number"`
	Completed  bool      `json:"completed"`
	LastReadAt time.Time `json:"last_read_at"`
}

func toProgressResponse(p models.Progress) progressResponse {
	return progressResponse{
		UserID:     p.UserID,
		SeriesID:   p.SeriesID.String(),
		EpisodeID:  p.EpisodeID.String(),
		PageNumber: p.PageNumber,
		Completed:  p.Completed,
		LastReadAt: p.LastReadAt,
	}
}

func toProgressResponses(progress []models.Progress) []progressResponse {
	out := make([]progressResponse, 0, len(progress))
	for _, p := range progress {
		out = append(out, toProgressResponse(p))
	}
	return out
}

func handleUpdateProgress(progress progressService, l logger.Logger) http.Handler {
	type request struct {
		UserID     string `json:"user_id" validate:"required"`
		SeriesID   string `json:"series_id" validate:"required,uuid"`
		EpisodeID  string `json:"episode_id" validate:"required,uuid"`
		PageNumber int    `json:"page_number"`
		Completed  bool   `json:"completed"`
	}

	type response struct {
		Success  bool             `json:"success"`
		Message  string           `json:"message"`
		Progress progressResponse `json:"progress"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		// Ids are validated with the uuid tag above, parse can't fail
		seriesID, _ := uuid.Parse(req.SeriesID)
		episodeID, _ := uuid.Parse(req.EpisodeID)

		p, err := progress.UpdateProgress(r.Context(), models.Progress{
			UserID:     req.UserID,
			SeriesID:   seriesID,
			EpisodeID:  episodeID,
			PageNumber: req.PageNumber,
			Completed:  req.Completed,
		})

		switch err {
		case nil:
			render.JSON(w, response{
				Success:  true,
				Message:  "Progress updated successfully",
				Progress: toProgressResponse(p),
			})
		default:
			l.Error("Failed to update progress", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleSeriesProgress(progress progressService, l logger.Logger) http.Handler {
	type response struct {
		Success  bool               `json:"success"`
		Progress []progressResponse `json:"progress"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seriesID, err := uuid.Parse(r.PathValue("seriesID"))
		if err != nil {
			render.ServiceError(w, "Invalid series id", http.StatusBadRequest)
			return
		}

		entries, err := progress.GetSeriesProgress(r.Context(), r.PathValue("uid"), seriesID)

		switch err {
		case nil:
			render.JSON(w, response{Success: true, Progress: toProgressResponses(entries)})
		default:
			l.Error("Failed to get series progress", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUserProgress(progress progressService, l logger.Logger) http.Handler {
	type response struct {
		Success  bool               `json:"success"`
		Progress []progressResponse `json:"progress"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries, err := progress.GetUserProgress(r.Context(), r.PathValue("uid"))

		switch err {
		case nil:
			render.JSON(w, response{Success: true, Progress: toProgressResponses(entries)})
		default:
			l.Error("Failed to get user progress", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleClearProgress(progress progressService, l logger.Logger) http.Handler {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seriesID, err := uuid.Parse(r.PathValue("seriesID"))
		if err != nil {
			render.ServiceError(w, "Invalid series id", http.StatusBadRequest)
			return
		}
		episodeID, err := uuid.Parse(r.PathValue("episodeID"))
		if err != nil {
			render.ServiceError(w, "Invalid episode id", http.StatusBadRequest)
			return
		}

		err = progress.ClearProgress(r.Context(), r.PathValue("uid"), seriesID, episodeID)

		switch {
		case err == nil:
			render.JSON(w, response{Success: true, Message: "Progress cleared"})
		case errors.Is(err, apperrors.ErrProgressNotFound):
			render.JSON(w, response{Success: false, Message: "No progress found"})
		default:
			l.Error("Failed to clear progress", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
