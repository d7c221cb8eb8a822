package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/models"
)

// Account repository interface
type AccountRepo interface {
	// Create account with the given starting balance
	// If account for the user exists already has to return apperrors.ErrAccountExists
	CreateAccount(ctx context.Context, userID string, balance int64) (models.Account, error)

	// Get account by user id
	// If account not found must return apperrors.ErrAccountNotFound
	GetAccount(ctx context.Context, userID string) (models.Account, error)

	// Same as GetAccount but holds an exclusive per-account lock until the
	// surrounding InTx scope ends. Debits and credits read the balance this
	// way so concurrent operations on one account serialize while different
	// accounts stay independent.
	GetAccountForUpdate(ctx context.Context, userID string) (models.Account, error)

	// Overwrite balance and counters of an existing account
	UpdateAccount(ctx context.Context, account models.Account) (models.Account, error)
}

// Transaction repository interface. The log is append-only: no update or
// delete methods exist on purpose.
type TransactionRepo interface {
	AppendTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)

	// List user transactions newest first. Empty slice when none.
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
}

// Profile repository interface
type ProfileRepo interface {
	// If profile with the uid exists must return apperrors.ErrProfileExists
	CreateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)

	// If profile not found must return apperrors.ErrProfileNotFound
	GetProfile(ctx context.Context, uid string) (models.Profile, error)

	GetProfileByUsername(ctx context.Context, username string) (models.Profile, error)

	UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)

	DeleteProfile(ctx context.Context, uid string) error
}

// Series repository interface covers series, episodes and panels
type SeriesRepo interface {
	CreateSeries(ctx context.Context, series models.Series) (models.Series, error)
	GetSeries(ctx context.Context, id uuid.UUID) (models.Series, error)
	UpdateSeries(ctx context.Context, series models.Series) (models.Series, error)
	DeleteSeries(ctx context.Context, id uuid.UUID) error

	// Published series newest first, with published episode counts
	ListPublishedSeries(ctx context.Context) ([]models.Series, error)

	// Published series by view count, at most limit items
	ListTrendingSeries(ctx context.Context, limit int) ([]models.Series, error)

	// Everything the creator owns, drafts included, newest first
	ListCreatorSeries(ctx context.Context, creatorUID string) ([]models.Series, error)

	IncrementSeriesViews(ctx context.Context, id uuid.UUID) error

	CreateEpisode(ctx context.Context, episode models.Episode) (models.Episode, error)
	GetEpisode(ctx context.Context, id uuid.UUID) (models.Episode, error)
	UpdateEpisode(ctx context.Context, episode models.Episode) (models.Episode, error)
	ListSeriesEpisodes(ctx context.Context, seriesID uuid.UUID, publishedOnly bool) ([]models.Episode, error)
	ListCreatorEpisodes(ctx context.Context, creatorUID string) ([]models.Episode, error)
	CountSeriesEpisodes(ctx context.Context, seriesID uuid.UUID) (int, error)
	IncrementEpisodeViews(ctx context.Context, id uuid.UUID) error

	// Drop the current panel set of the episode and store the new one
	ReplacePanels(ctx context.Context, episodeID uuid.UUID, panels []models.Panel) ([]models.Panel, error)
	ListPanels(ctx context.Context, episodeID uuid.UUID) ([]models.Panel, error)
}

// Progress repository interface
type ProgressRepo interface {
	UpsertProgress(ctx context.Context, progress models.Progress) (models.Progress, error)
	ListSeriesProgress(ctx context.Context, userID string, seriesID uuid.UUID) ([]models.Progress, error)
	ListUserProgress(ctx context.Context, userID string) ([]models.Progress, error)

	// Must return apperrors.ErrProgressNotFound when nothing was stored
	DeleteProgress(ctx context.Context, userID string, seriesID uuid.UUID, episodeID uuid.UUID) error
}

// Storage fans out repositories bound to the same connection or transaction
type Storage interface {
	Account() AccountRepo
	Transaction() TransactionRepo
	Profile() ProfileRepo
	Series() SeriesRepo
	Progress() ProgressRepo

	// Run fn with a Storage scoped to a single transaction. Locks taken with
	// GetAccountForUpdate are released when fn returns.
	InTx(ctx context.Context, fn func(Storage) error) error
}
