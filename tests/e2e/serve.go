package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tolits3/PanelX-Backend/internal/handlers"
	"github.com/Tolits3/PanelX-Backend/internal/logger"
	"github.com/Tolits3/PanelX-Backend/internal/provider/groq"
	"github.com/Tolits3/PanelX-Backend/internal/provider/replicate"
	"github.com/Tolits3/PanelX-Backend/internal/repository/postgres"
	"github.com/Tolits3/PanelX-Backend/internal/service/catalog"
	"github.com/Tolits3/PanelX-Backend/internal/service/chat"
	"github.com/Tolits3/PanelX-Backend/internal/service/ledger"
	"github.com/Tolits3/PanelX-Backend/internal/service/profile"
	"github.com/Tolits3/PanelX-Backend/internal/service/progress"
	"github.com/Tolits3/PanelX-Backend/internal/testutil"
)

type Services struct {
	Ledger   *ledger.Service
	Profiles *profile.Service
	Catalog  *catalog.Service
	Progress *progress.Service
}

// Create db transaction and run the full server over that connection (one
// connection cause one transaction). The created transaction is passed to the
// inner function: so, you can safely use testutil.InTx with it.
func ServeInTx(dbpool *pgxpool.Pool, ledgerCfg ledger.Config, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)
		log := logger.NewLogger(logger.LevelError)

		ledgerService := ledger.NewService(ledgerCfg, storage)
		profileService := profile.NewService(storage.Profile())
		avatarStore, err := profile.NewAvatarStore(t.TempDir())
		if err != nil {
			t.Fatalf("avatar store: %v", err)
		}
		catalogService := catalog.NewService(storage.Series())
		progressService := progress.NewService(storage.Progress())

		// Providers are left unconfigured: chat must degrade, not fail
		chatService := chat.NewService(
			groq.NewClient(groq.Config{}),
			replicate.NewClient(replicate.Config{}),
			ledgerService,
			log,
		)

		router := handlers.NewRouter(
			ledgerService,
			profileService,
			avatarStore,
			catalogService,
			progressService,
			chatService,
			log,
		)

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Ledger:   ledgerService,
			Profiles: profileService,
			Catalog:  catalogService,
			Progress: progressService,
		})
	})
}
