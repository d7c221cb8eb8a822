package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Tolits3/PanelX-Backend/internal/db"
	"github.com/Tolits3/PanelX-Backend/internal/handlers"
	"github.com/Tolits3/PanelX-Backend/internal/logger"
	"github.com/Tolits3/PanelX-Backend/internal/provider/groq"
	"github.com/Tolits3/PanelX-Backend/internal/provider/replicate"
	"github.com/Tolits3/PanelX-Backend/internal/repository"
	"github.com/Tolits3/PanelX-Backend/internal/repository/memory"
	"github.com/Tolits3/PanelX-Backend/internal/repository/postgres"
	"github.com/Tolits3/PanelX-Backend/internal/service/catalog"
	"github.com/Tolits3/PanelX-Backend/internal/service/chat"
	"github.com/Tolits3/PanelX-Backend/internal/service/ledger"
	"github.com/Tolits3/PanelX-Backend/internal/service/profile"
	"github.com/Tolits3/PanelX-Backend/internal/service/progress"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	storage, err := newStorage(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error while initializing storage. Err: %w", err)
	}
	log.Info("Storage initialized", "backend", c.StorageBackend)

	// Initialize services
	ledgerService := ledger.NewService(ledger.Config{
		FreeMode:     c.FreeLaunchMode,
		InitialGrant: c.InitialGrant,
	}, storage)
	profileService := profile.NewService(storage.Profile())
	avatarStore, err := profile.NewAvatarStore(filepath.Join(c.DataDir, "avatars"))
	if err != nil {
		return nil, fmt.Errorf("error while initializing avatar store: %w", err)
	}
	catalogService := catalog.NewService(storage.Series())
	progressService := progress.NewService(storage.Progress())

	chatClient := groq.NewClient(groq.Config{
		APIKey: c.GroqAPIKey,
		Model:  c.GroqModel,
	})
	imageClient := replicate.NewClient(replicate.Config{
		APIKey: c.ReplicateAPIKey,
	})
	chatService := chat.NewService(chatClient, imageClient, ledgerService, log)

	mux := handlers.NewRouter(
		ledgerService,
		profileService,
		avatarStore,
		catalogService,
		progressService,
		chatService,
		log,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// newStorage builds the backend selected in config: a migrated postgres pool,
// an in-memory store with JSON snapshots, or a plain in-memory store.
func newStorage(ctx context.Context, c *Config) (repository.Storage, error) {
	switch c.StorageBackend {
	case StoragePostgres:
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		return postgres.NewStorage(pool), nil
	case StorageFile:
		return memory.NewFileStorage(c.DataDir)
	case StorageMemory:
		return memory.NewStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", c.StorageBackend)
	}
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
