package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/curately/groundtruth-backend/internal/codec"
	"github.com/curately/groundtruth-backend/internal/dataset"
	"github.com/curately/groundtruth-backend/internal/domain"
	apphttp "github.com/curately/groundtruth-backend/internal/http"
	httpH "github.com/curately/groundtruth-backend/internal/http/handlers"
	httpMW "github.com/curately/groundtruth-backend/internal/http/middleware"
	"github.com/curately/groundtruth-backend/internal/platform/logger"
	"github.com/curately/groundtruth-backend/internal/services"
)

type App struct {
	Log    *logger.Logger
	Cfg    Config
	Router *gin.Engine

	Entries   *dataset.Session[domain.Entry, *domain.Entry]
	Documents *dataset.Session[domain.Document, *domain.Document]

	stores *Stores
}

func New(configPath string) (*App, error) {
	cfg, err := bootstrapConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	stores, err := resolveStores(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	entryRec := dataset.NewReconciler[*domain.Entry](log, stores.Entries, cfg.Dataset.EntrySlot, "Dataset")
	docRec := dataset.NewReconciler[*domain.Document](log, stores.Documents, cfg.Dataset.DocumentSlot, "JSONL Dataset")

	entrySession := dataset.NewSession[domain.Entry](log, entryRec, stores.NamedEntries)
	docSession := dataset.NewSession[domain.Document](log, docRec, stores.NamedDocuments)

	ctx := context.Background()
	if err := entrySession.Load(ctx); err != nil {
		log.Warn("Entry session load failed", "error", err)
	}
	if err := docSession.Load(ctx); err != nil {
		log.Warn("Document session load failed", "error", err)
	}

	gate := services.NewGateService(
		log,
		cfg.Auth.SharedSecret,
		cfg.Auth.SharedSecretBcrypt,
		cfg.Auth.JWTSecretKey,
		cfg.SessionTTL(),
	)

	confirm := dataset.NewConfirmTracker(cfg.DeleteConfirmWindow())

	routerCfg := apphttp.RouterConfig{
		GateHandler:    httpH.NewGateHandler(gate),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, gate),
		CORSOrigins:    cfg.CORS.AllowOrigins,
		EntryHandler:   httpH.NewRecordHandler(log, entrySession, confirm, domain.KindEntry, codec.EncodeCSV),
		DocumentHandler: httpH.NewRecordHandler[domain.Document, *domain.Document](
			log, docSession, confirm, domain.KindDocument, nil,
		),
		SampleHandler: httpH.NewSampleHandler(),
		HealthHandler: httpH.NewHealthHandler(),
	}
	if stores.NamedEntries != nil {
		routerCfg.EntryDatasetHandler = httpH.NewDatasetHandler(log, entrySession, confirm)
	}
	if stores.NamedDocuments != nil {
		routerCfg.DocumentDatasetHandler = httpH.NewDatasetHandler(log, docSession, confirm)
	}

	return &App{
		Log:       log,
		Cfg:       cfg,
		Router:    apphttp.NewRouter(routerCfg),
		Entries:   entrySession,
		Documents: docSession,
		stores:    stores,
	}, nil
}

// bootstrapConfig loads config with a throwaway logger, then the real one is
// built from the loaded log mode.
func bootstrapConfig(configPath string) (Config, error) {
	bootLog := logger.NewNop()
	return LoadConfig(bootLog, configPath)
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := fmt.Sprintf(":%d", a.Cfg.Server.Port)
	a.Log.Info("Listening", "addr", addr, "storage_mode", a.Cfg.Storage.Mode)
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.stores != nil {
		if err := a.stores.Close(); err != nil {
			a.Log.Warn("Failed to close storage", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
