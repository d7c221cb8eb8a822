package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/handlers/render"
	"github.com/Tolits3/PanelX-Backend/internal/logger"
	"github.com/Tolits3/PanelX-Backend/internal/models"
	"github.com/Tolits3/PanelX-Backend/internal/service/catalog"
)

type seriesResponse struct {
	ID            string     `json:"id"`
	CreatorUID    string     `json:"creator_uid"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Genre         string     `json:"genre"`
	Tags          string     `json:"tags"`
	CoverImageURL string     `json:"cover_image_url"`
	IsPublished   bool       `json:"is_published"`
	Status        string     `json:"status"`
	ViewCount     int64      `json:"view_count"`
	LikeCount     int64      `json:"like_count"`
	EpisodeCount  int        `json:"episode_count,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PublishedAt   *time.Time `json:"published_at"`
}

type episodeResponse struct {
	ID            string     `json:"id"`
	SeriesID      string     `json:"series_id"`
	CreatorUID    string     `json:"creator_uid"`
	EpisodeNumber int        `json:"episode_number"`
	Title         string     `json:"title"`
	ThumbnailURL  string     `json:"thumbnail_url"`
	IsPublished   bool       `json:"is_published"`
	ViewCount     int64      `json:"view_count"`
	CreatedAt     time.Time  `json:"created_at"`
	PublishedAt   *time.Time `json:"published_at"`

	Panels []panelResponse `json:"panels,omitempty"`
}

type panelResponse struct {
	ID        string   `json:"id"`
	EpisodeID string   `json:"episode_id"`
	Order     int      `json:"panel_order"`
	ImageURL  string   `json:"image_url"`
	Dialogues []string `json:"dialogues"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
}

func toSeriesResponse(s models.Series) seriesResponse {
	return seriesResponse{
		ID:            s.ID.String(),
		CreatorUID:    s.CreatorUID,
		Title:         s.Title,
		Description:   s.Description,
		Genre:         s.Genre,
		Tags:          s.Tags,
		CoverImageURL: s.CoverImageURL,
		IsPublished:   s.IsPublished,
		Status:        s.Status,
		ViewCount:     s.ViewCount,
		LikeCount:     s.LikeCount,
		EpisodeCount:  s.EpisodeCount,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		PublishedAt:   s.PublishedAt,
	}
}

func toSeriesResponses(series []models.Series) []seriesResponse {
	out := make([]seriesResponse, 0, len(series))
	for _, s := range series {
		out = append(out, toSeriesResponse(s))
	}
	return out
}

func toEpisodeResponse(e models.Episode, panels []models.Panel) episodeResponse {
	res := episodeResponse{
		ID:            e.ID.String(),
		SeriesID:      e.SeriesID.String(),
		CreatorUID:    e.CreatorUID,
		EpisodeNumber: e.EpisodeNumber,
		Title:         e.Title,
		ThumbnailURL:  e.ThumbnailURL,
		IsPublished:   e.IsPublished,
		ViewCount:     e.ViewCount,
		CreatedAt:     e.CreatedAt,
		PublishedAt:   e.PublishedAt,
	}
	for _, p := range panels {
		res.Panels = append(res.Panels, panelResponse{
			ID:        p.ID.String(),
			EpisodeID: p.EpisodeID.String(),
			Order:     p.Order,
			ImageURL:  p.ImageURL,
			Dialogues: p.Dialogues,
			Width:     p.Width,
			Height:    p.Height,
		})
	}
	return res
}

// seriesID parses the {id} path segment. Writes the error response itself so
// callers just return on error.
func seriesID(w http.ResponseWriter, r *http.Request, segment string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(segment))
	if err != nil {
		render.ServiceError(w, "Invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func handleCreateSeries(cat catalogService, l logger.Logger) http.Handler {
	type request struct {
		CreatorUID    string `json:"creator_uid" validate:"required"`
		Title         string `json:"title" validate:"required"`
		Description   string `json:"description"`
		Genre         string `json:"genre"`
		Tags          string `json:"tags"`
		CoverImageURL string `json:"cover_image_url"`
	}

	type response struct {
		Success bool           `json:"success"`
		Series  seriesResponse `json:"series"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		series, err := cat.CreateSeries(r.Context(), models.Series{
			CreatorUID:    req.CreatorUID,
			Title:         req.Title,
			Description:   req.Description,
			Genre:         req.Genre,
			Tags:          req.Tags,
			CoverImageURL: req.CoverImageURL,
		})

		switch err {
		case nil:
			render.JSON(w, response{Success: true, Series: toSeriesResponse(series)})
		default:
			l.Error("Failed to create series", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListSeries(list func(ctx context.Context) ([]models.Series, error), l logger.Logger) http.Handler {
	type response struct {
		Success bool             `json:"success"`
		Series  []seriesResponse `json:"series"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		series, err := list(r.Context())

		switch err {
		case nil:
			render.JSON(w, response{Success: true, Series: toSeriesResponses(series)})
		default:
			l.Error("Failed to list series", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCreatorSeries(cat catalogService, l logger.Logger) http.Handler {
	type response struct {
		Success bool             `json:"success"`
		Series  []seriesResponse `json:"series"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		series, err := cat.ListCreatorSeries(r.Context(), r.PathValue("uid"))

		switch err {
		case nil:
			render.JSON(w, response{Success: true, Series: toSeriesResponses(series)})
		default:
			l.Error("Failed to list creator series", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetSeries(cat catalogService, l logger.Logger) http.Handler {
	type response struct {
		Success  bool              `json:"success"`
		Series   seriesResponse    `json:"series"`
		Episodes []episodeResponse `json:"episodes"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := seriesID(w, r, "id")
		if !ok {
			return
		}

		series, episodes, err := cat.GetSeries(r.Context(), id)

		switch {
		case err == nil:
			res := response{
				Success:  true,
				Series:   toSeriesResponse(series),
				Episodes: make([]episodeResponse, 0, len(episodes)),
			}
			for _, e := range episodes {
				res.Episodes = append(res.Episodes, toEpisodeResponse(e, nil))
			}
			render.JSON(w, res)
		case errors.Is(err, apperrors.ErrSeriesNotFound):
			render.ServiceError(w, "Series not found", http.StatusNotFound)
		default:
			l.Error("Failed to get series", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUpdateSeries(cat catalogService, l logger.Logger) http.Handler {
	type request struct {
		Title         *string `json:"title"`
		Description   *string `json:"description"`
		Genre         *string `json:"genre"`
		Tags          *string `json:"tags"`
		CoverImageURL *string `json:"cover_image_url"`
	}

	type response struct {
		Success bool           `json:"success"`
		Series  seriesResponse `json:"series"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := seriesID(w, r, "id")
		if !ok {
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		series, err := cat.UpdateSeries(r.Context(), id, catalog.SeriesUpdate{
			Title:         req.Title,
			Description:   req.Description,
			Genre:         req.Genre,
			Tags:          req.Tags,
			CoverImageURL: req.CoverImageURL,
		})

		switch {
		case err == nil:
			render.JSON(w, response{Success: true, Series: toSeriesResponse(series)})
		case errors.Is(err, apperrors.ErrSeriesNotFound):
			render.ServiceError(w, "Series not found", http.StatusNotFound)
		default:
			l.Error("Failed to update series", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeleteSeries(cat catalogService, l logger.Logger) http.Handler {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := seriesID(w, r, "id")
		if !ok {
			return
		}

		err := cat.DeleteSeries(r.Context(), id)

		switch {
		case err == nil:
			render.JSON(w, response{Success: true, Message: "Series deleted"})
		case errors.Is(err, apperrors.ErrSeriesNotFound):
			render.ServiceError(w, "Series not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete series", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handlePublishSeries(cat catalogService, l logger.Logger) http.Handler {
	type response struct {
		Success     bool   `json:"success"`
		IsPublished bool   `json:"is_published"`
		Message     string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := seriesID(w, r, "id")
		if !ok {
			return
		}

		series, err := cat.TogglePublishSeries(r.Context(), id)

		switch {
		case err == nil:
			action := "unpublished"
			if series.IsPublished {
				action = "published"
			}
			render.JSON(w, response{
				Success:     true,
				IsPublished: series.IsPublished,
				Message:     "Series " + action + " successfully",
			})
		case errors.Is(err, apperrors.ErrSeriesNotFound):
			render.ServiceError(w, "Series not found", http.StatusNotFound)
		default:
			l.Error("Failed to toggle series publish", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCreateEpisode(cat catalogService, l logger.Logger) http.Handler {
	type request struct {
		SeriesID      string `json:"series_id" validate:"required,uuid"`
		CreatorUID    string `json:"creator_uid" validate:"required"`
		Title         string `json:"title" validate:"required"`
		EpisodeNumber int    `json:"episode_number"`
	}

	type response struct {
		Success bool            `json:"success"`
		Episode episodeResponse `json:"episode"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		seriesID, err := uuid.Parse(req.SeriesID)
		if err != nil {
			render.ServiceError(w, "Invalid series id", http.StatusBadRequest)
			return
		}

		episode, err := cat.CreateEpisode(r.Context(), models.Episode{
			SeriesID:      seriesID,
			CreatorUID:    req.CreatorUID,
			Title:         req.Title,
			EpisodeNumber: req.EpisodeNumber,
		})

		switch {
		case err == nil:
			render.JSON(w, response{Success: true, Episode: toEpisodeResponse(episode, nil)})
		case errors.Is(err, apperrors.ErrSeriesNotFound):
			render.ServiceError(w, "Series not found", http.StatusNotFound)
		default:
			l.Error("Failed to create episode", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCreatorEpisodes(cat catalogService, l logger.Logger) http.Handler {
	type response struct {
		Success  bool              `json:"success"`
		Episodes []episodeResponse `json:"episodes"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		episodes, err := cat.ListCreatorEpisodes(r.Context(), r.PathValue("uid"))

		switch err {
		case nil:
			res := response{Success: true, Episodes: make([]episodeResponse, 0, len(episodes))}
			for _, e := range episodes {
				res.Episodes = append(res.Episodes, toEpisodeResponse(e, nil))
			}
			render.JSON(w, res)
		default:
			l.Error("Failed to list creator episodes", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetEpisode(cat catalogService, l logger.Logger) http.Handler {
	type response struct {
		Success bool            `json:"success"`
		Episode episodeResponse `json:"episode"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := seriesID(w, r, "id")
		if !ok {
			return
		}

		episode, panels, err := cat.GetEpisode(r.Context(), id)

		switch {
		case err == nil:
			render.JSON(w, response{Success: true, Episode: toEpisodeResponse(episode, panels)})
		case errors.Is(err, apperrors.ErrEpisodeNotFound):
			render.ServiceError(w, "Episode not found", http.StatusNotFound)
		default:
			l.Error("Failed to get episode", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handlePublishEpisode(cat catalogService, l logger.Logger) http.Handler {
	type response struct {
		Success     bool   `json:"success"`
		IsPublished bool   `json:"is_published"`
		Message     string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := seriesID(w, r, "id")
		if !ok {
			return
		}

		episode, err := cat.TogglePublishEpisode(r.Context(), id)

		switch {
		case err == nil:
			action := "unpublished"
			if episode.IsPublished {
				action = "published"
			}
			render.JSON(w, response{
				Success:     true,
				IsPublished: episode.IsPublished,
				Message:     "Episode " + action + " successfully",
			})
		case errors.Is(err, apperrors.ErrEpisodeNotFound):
			render.ServiceError(w, "Episode not found", http.StatusNotFound)
		default:
			l.Error("Failed to toggle episode publish", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleSavePanels(cat catalogService, l logger.Logger) http.Handler {
	type panelRequest struct {
		ImageURL  string   `json:"image_url"`
		Dialogues []string `json:"dialogues"`
		Width     int      `json:"width"`
		Height    int      `json:"height"`
	}

	type request struct {
		Panels []panelRequest `json:"panels"`
	}

	type response struct {
		Success     bool   `json:"success"`
		PanelsSaved int    `json:"panels_saved"`
		Message     string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := seriesID(w, r, "id")
		if !ok {
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		panels := make([]models.Panel, 0, len(req.Panels))
		for i, p := range req.Panels {
			width, height := p.Width, p.Height
			if width == 0 {
				width = 800
			}
			if height == 0 {
				height = 1200
			}
			panels = append(panels, models.Panel{
				Order:     i,
				ImageURL:  p.ImageURL,
				Dialogues: p.Dialogues,
				Width:     width,
				Height:    height,
			})
		}

		saved, err := cat.SavePanels(r.Context(), id, panels)

		switch {
		case err == nil:
			render.JSON(w, response{
				Success:     true,
				PanelsSaved: len(saved),
				Message:     "Panels saved successfully",
			})
		case errors.Is(err, apperrors.ErrEpisodeNotFound):
			render.ServiceError(w, "Episode not found", http.StatusNotFound)
		default:
			l.Error("Failed to save panels", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
