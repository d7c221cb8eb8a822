package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/handlers/middleware"
	"github.com/Tolits3/PanelX-Backend/internal/handlers/render"
	"github.com/Tolits3/PanelX-Backend/internal/logger"
	"github.com/Tolits3/PanelX-Backend/internal/models"
	"github.com/Tolits3/PanelX-Backend/internal/service/catalog"
	"github.com/Tolits3/PanelX-Backend/internal/service/chat"
	"github.com/Tolits3/PanelX-Backend/internal/service/ledger"
	"github.com/Tolits3/PanelX-Backend/internal/service/profile"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	creditLedger creditLedger,
	profiles profileService,
	avatars avatarStore,
	cat catalogService,
	progress progressService,
	chatSvc chatService,
	logger logger.Logger,
) http.Handler {
	credits := http.NewServeMux()
	credits.Handle("GET /balance/{uid}", handleCreditBalance(creditLedger, logger))
	credits.Handle("POST /init", handleCreditInit(creditLedger, logger))
	credits.Handle("POST /use", handleCreditUse(creditLedger, logger))
	credits.Handle("POST /grant", handleCreditGrant(creditLedger, logger))
	credits.Handle("GET /history/{uid}", handleCreditHistory(creditLedger, logger))
	credits.Handle("GET /packages", handleCreditPackages(creditLedger))
	credits.Handle("GET /status", handleCreditStatus(creditLedger))

	users := http.NewServeMux()
	users.Handle("POST /create", handleCreateProfile(profiles, logger))
	users.Handle("GET /username/{username}", handleCheckUsername(profiles, logger))
	users.Handle("GET /{uid}", handleGetProfile(profiles, logger))
	users.Handle("PUT /{uid}", handleUpdateProfile(profiles, logger))
	users.Handle("DELETE /{uid}", handleDeleteProfile(profiles, logger))
	users.Handle("POST /{uid}/avatar", handleUploadAvatar(profiles, avatars, logger))

	series := http.NewServeMux()
	series.Handle("POST /create", handleCreateSeries(cat, logger))
	series.Handle("GET /all", handleListSeries(cat.ListPublishedSeries, logger))
	series.Handle("GET /trending", handleListSeries(cat.ListTrendingSeries, logger))
	series.Handle("GET /creator/{uid}", handleCreatorSeries(cat, logger))
	series.Handle("POST /episode/create", handleCreateEpisode(cat, logger))
	series.Handle("GET /episode/creator/{uid}", handleCreatorEpisodes(cat, logger))
	series.Handle("GET /episode/{id}", handleGetEpisode(cat, logger))
	series.Handle("POST /episode/{id}/publish", handlePublishEpisode(cat, logger))
	series.Handle("POST /episode/{id}/panels/save", handleSavePanels(cat, logger))
	series.Handle("GET /{id}", handleGetSeries(cat, logger))
	series.Handle("PUT /{id}", handleUpdateSeries(cat, logger))
	series.Handle("DELETE /{id}", handleDeleteSeries(cat, logger))
	series.Handle("POST /{id}/publish", handlePublishSeries(cat, logger))

	progressMux := http.NewServeMux()
	progressMux.Handle("POST /update", handleUpdateProgress(progress, logger))
	progressMux.Handle("GET /{uid}/{seriesID}", handleSeriesProgress(progress, logger))
	progressMux.Handle("GET /{uid}", handleUserProgress(progress, logger))
	progressMux.Handle("DELETE /{uid}/{seriesID}/{episodeID}", handleClearProgress(progress, logger))

	chatMux := http.NewServeMux()
	chatMux.Handle("POST /message", handleChatMessage(chatSvc, logger))
	chatMux.Handle("POST /generate-image", handleGenerateImage(chatSvc, logger))
	chatMux.Handle("GET /health", handleChatHealth(chatSvc))

	root := http.NewServeMux()
	root.Handle("/api/credits/", http.StripPrefix("/api/credits", credits))
	root.Handle("/api/users/", http.StripPrefix("/api/users", users))
	root.Handle("/api/series/", http.StripPrefix("/api/series", series))
	root.Handle("/api/progress/", http.StripPrefix("/api/progress", progressMux))
	root.Handle("/api/chat/", http.StripPrefix("/api/chat", chatMux))
	root.Handle("GET /avatars/", http.StripPrefix("/avatars/", avatars.FileServer()))
	root.Handle("GET /api/health", handleHealth())

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

func handleHealth() http.Handler {
	type response struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		render.JSON(w, response{Status: "ok", Service: "panelx-backend"})
	})
}

type creditLedger interface {
	// Get balance for user, creating the account with the initial grant
	// when it does not exist yet
	GetBalance(ctx context.Context, userID string) (ledger.Balance, error)

	// Create account with the initial grant, idempotent
	InitAccount(ctx context.Context, userID string) (ledger.InitResult, error)

	// Deduct credits
	// Has to return apperrors.InsufficientCreditsError when the balance is short
	Debit(ctx context.Context, userID string, amount int64, description string) (ledger.DebitResult, error)

	// Add credits (purchases, refunds)
	Credit(ctx context.Context, userID string, amount int64, txType string, description string, paymentID *string) (models.Account, error)

	// Audit trail, newest first
	GetHistory(ctx context.Context, userID string) ([]models.Transaction, error)

	FreeMode() bool
	InitialGrant() int64
}

type profileService interface {
	CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error)
	GetProfile(ctx context.Context, uid string) (models.Profile, error)
	UpdateProfile(ctx context.Context, uid string, update profile.Update) (models.Profile, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	DeleteProfile(ctx context.Context, uid string) error
}

type avatarStore interface {
	// Save stores the avatar file and returns its public URL path
	Save(uid string, ext string, file io.Reader) (string, error)
	FileServer() http.Handler
}

type catalogService interface {
	CreateSeries(ctx context.Context, series models.Series) (models.Series, error)
	GetSeries(ctx context.Context, id uuid.UUID) (models.Series, []models.Episode, error)
	UpdateSeries(ctx context.Context, id uuid.UUID, update catalog.SeriesUpdate) (models.Series, error)
	DeleteSeries(ctx context.Context, id uuid.UUID) error
	TogglePublishSeries(ctx context.Context, id uuid.UUID) (models.Series, error)
	ListPublishedSeries(ctx context.Context) ([]models.Series, error)
	ListTrendingSeries(ctx context.Context) ([]models.Series, error)
	ListCreatorSeries(ctx context.Context, creatorUID string) ([]models.Series, error)
	CreateEpisode(ctx context.Context, episode models.Episode) (models.Episode, error)
	GetEpisode(ctx context.Context, id uuid.UUID) (models.Episode, []models.Panel, error)
	ListCreatorEpisodes(ctx context.Context, creatorUID string) ([]models.Episode, error)
	TogglePublishEpisode(ctx context.Context, id uuid.UUID) (models.Episode, error)
	SavePanels(ctx context.Context, episodeID uuid.UUID, panels []models.Panel) ([]models.Panel, error)
}

type progressService interface {
	UpdateProgress(ctx context.Context, p models.Progress) (models.Progress, error)
	GetSeriesProgress(ctx context.Context, userID string, seriesID uuid.UUID) ([]models.Progress, error)
	GetUserProgress(ctx context.Context, userID string) ([]models.Progress, error)
	ClearProgress(ctx context.Context, userID string, seriesID uuid.UUID, episodeID uuid.UUID) error
}

type chatService interface {
	SendMessage(ctx context.Context, userID string, message string, generateImage bool) (chat.Reply, error)
	GenerateImage(ctx context.Context, prompt string, style string) (string, error)
	Health() chat.Health
}
