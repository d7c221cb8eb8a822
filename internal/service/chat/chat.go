package chat

import (
	"context"
	"strings"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/logger"
	"github.com/Tolits3/PanelX-Backend/internal/service/ledger"
)

// ImageCost is how many credits one generated panel consumes.
const ImageCost = 1

const unconfiguredReply = "AI chat is not configured yet. Add a Groq API key to enable the comic assistant!"
const degradedReply = "Something went wrong on our side. Please try again!"

type chatProvider interface {
	Configured() bool
	Model() string
	Complete(ctx context.Context, message string) (string, error)
}

type imageProvider interface {
	Configured() bool
	Generate(ctx context.Context, prompt string, style string) (string, error)
}

type creditLedger interface {
	Debit(ctx context.Context, userID string, amount int64, description string) (ledger.DebitResult, error)
}

// Service is the comic assistant: chat goes to the completion provider,
// generate-prefixed messages go to the image provider with credits debited
// through the ledger first. Provider failures are translated into friendly
// degraded replies, the raw provider error is only logged.
type Service struct {
	chat   chatProvider
	images imageProvider
	ledger creditLedger
	logger logger.Logger
}

func NewService(chat chatProvider, images imageProvider, creditLedger creditLedger, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Service{
		chat:   chat,
		images: images,
		ledger: creditLedger,
		logger: l,
	}
}

type Reply struct {
	Response       string
	ImageURL       string
	ImageGenerated bool
}

type Health struct {
	ChatConfigured   bool
	ImagesConfigured bool
	Model            string
}

func (s *Service) Health() Health {
	h := Health{
		ChatConfigured:   s.chat.Configured(),
		ImagesConfigured: s.images.Configured(),
	}
	if h.ChatConfigured {
		h.Model = s.chat.Model()
	}

	return h
}

// GenerateImage is the direct image proxy: no assistant reply and no ledger
// debit, callers settle credits through the credits API themselves. Unlike
// chat, an unconfigured provider is an error here, not a degraded reply.
func (s *Service) GenerateImage(ctx context.Context, prompt string, style string) (string, error) {
	if !s.images.Configured() {
		return "", apperrors.ErrProviderUnavailable
	}

	return s.images.Generate(ctx, prompt, style)
}

// SendMessage answers one user message. Messages prefixed with "generate:",
// "draw:" or "create:" (or flagged explicitly) request a panel image.
func (s *Service) SendMessage(ctx context.Context, userID string, message string, generateImage bool) (Reply, error) {
	prompt, isImageRequest := extractImagePrompt(message)
	if generateImage || isImageRequest {
		return s.generatePanel(ctx, userID, prompt)
	}

	return Reply{Response: s.complete(ctx, message)}, nil
}

func (s *Service) generatePanel(ctx context.Context, userID string, prompt string) (Reply, error) {
	if !s.images.Configured() {
		response := s.complete(ctx,
			"The user wants to generate an image but image generation isn't available. "+
				"Politely let them know it is temporarily unavailable but you can still help them brainstorm and plan their comic.")
		return Reply{Response: response}, nil
	}

	// Charge before calling the provider so the balance invariant holds even
	// when the generation request is in flight. No refund on provider
	// failure.
	if _, err := s.ledger.Debit(ctx, userID, ImageCost, "AI image generated"); err != nil {
		return Reply{}, err
	}

	imageURL, err := s.images.Generate(ctx, prompt, "")
	if err != nil {
		s.logger.Warn("Image generation failed", "error", err)
		response := s.complete(ctx,
			"Image generation just failed for the user. "+
				"Politely let them know and offer to help them brainstorm instead.")
		return Reply{Response: response}, nil
	}

	comment := s.complete(ctx,
		"The user just generated a comic panel image with this prompt: '"+prompt+"'. "+
			"Give them a brief, enthusiastic response (1-2 sentences) about their image and maybe a quick tip.")

	return Reply{Response: comment, ImageURL: imageURL, ImageGenerated: true}, nil
}

// complete never surfaces provider errors: unconfigured or failing chat
// degrades to a canned reply.
func (s *Service) complete(ctx context.Context, message string) string {
	if !s.chat.Configured() {
		return unconfiguredReply
	}

	response, err := s.chat.Complete(ctx, message)
	if err != nil {
		s.logger.Warn("Chat completion failed", "error", err)
		return degradedReply
	}

	return response
}

func extractImagePrompt(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, prefix := range []string{"generate:", "draw:", "create:"} {
		if idx := strings.Index(lower, prefix); idx >= 0 {
			return strings.TrimSpace(message[idx+len(prefix):]), true
		}
	}

	return message, false
}
