package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/handlers/render"
	"github.com/Tolits3/PanelX-Backend/internal/logger"
)

func handleChatMessage(chat chatService, l logger.Logger) http.Handler {
	type request struct {
		UID           string `json:"uid" validate:"required"`
		Message       string `json:"message" validate:"required"`
		GenerateImage bool   `json:"generate_image"`
	}

	type response struct {
		Success        bool   `json:"success"`
		Response       string `json:"response"`
		ImageURL       string `json:"image_url,omitempty"`
		ImageGenerated bool   `json:"image_generated"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		reply, err := chat.SendMessage(r.Context(), req.UID, req.Message, req.GenerateImage)

		insufficient, isInsufficient := apperrors.AsInsufficientCredits(err)
		switch {
		case err == nil:
			render.JSON(w, response{
				Success:        true,
				Response:       reply.Response,
				ImageURL:       reply.ImageURL,
				ImageGenerated: reply.ImageGenerated,
			})
		case isInsufficient:
			message := fmt.Sprintf("Insufficient credits. Have %d, need %d.", insufficient.Balance, insufficient.Requested)
			render.ServiceError(w, message, http.StatusPaymentRequired)
		default:
			l.Error("Failed to handle chat message", "error", err, "uid", req.UID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGenerateImage(chat chatService, l logger.Logger) http.Handler {
	type request struct {
		Prompt string `json:"prompt" validate:"required"`
		Style  string `json:"style"`
	}

	type response struct {
		Success  bool   `json:"success"`
		ImageURL string `json:"image_url"`
		Prompt   string `json:"prompt"`
		Model    string `json:"model"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		url, err := chat.GenerateImage(r.Context(), req.Prompt, req.Style)

		switch {
		case err == nil:
			render.JSON(w, response{
				Success:  true,
				ImageURL: url,
				Prompt:   req.Prompt,
				Model:    "SDXL",
			})
		case errors.Is(err, apperrors.ErrProviderUnavailable):
			render.ServiceError(w, "Image generation unavailable. Replicate API key not configured.", http.StatusServiceUnavailable)
		default:
			l.Error("Failed to generate image", "error", err)
			render.ServiceError(w, "Image generation failed", http.StatusInternalServerError)
		}
	})
}

func handleChatHealth(chat chatService) http.Handler {
	type response struct {
		Status                   string  `json:"status"`
		GroqConfigured           bool    `json:"groq_configured"`
		ReplicateConfigured      bool    `json:"replicate_configured"`
		ChatAvailable            bool    `json:"chat_available"`
		ImageGenerationAvailable bool    `json:"image_generation_available"`
		Model                    *string `json:"model"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		health := chat.Health()

		res := response{
			Status:                   "online",
			GroqConfigured:           health.ChatConfigured,
			ReplicateConfigured:      health.ImagesConfigured,
			ChatAvailable:            health.ChatConfigured,
			ImageGenerationAvailable: health.ImagesConfigured,
		}
		if health.Model != "" {
			res.Model = &health.Model
		}
		render.JSON(w, res)
	})
}
