package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PabloGalante/prima-scholar/internal/adapters/cache"
	httpadapter "github.com/PabloGalante/prima-scholar/internal/adapters/http"
	"github.com/PabloGalante/prima-scholar/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/prima-scholar/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/prima-scholar/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/prima-scholar/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/prima-scholar/internal/app/agentflow"
	"github.com/PabloGalante/prima-scholar/internal/app/documents"
	"github.com/PabloGalante/prima-scholar/internal/app/excellence"
	"github.com/PabloGalante/prima-scholar/internal/app/mentorship"
	"github.com/PabloGalante/prima-scholar/internal/app/prediction"
	"github.com/PabloGalante/prima-scholar/internal/app/profiles"
	"github.com/PabloGalante/prima-scholar/internal/app/resources"
	"github.com/PabloGalante/prima-scholar/internal/app/tools"
	"github.com/PabloGalante/prima-scholar/internal/config"
	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

// retention of tool logs and trajectory points in the sqlite backend
const (
	cleanupEvery = 24 * time.Hour
	keepFor      = 90 * 24 * time.Hour
)

func main() {
	if err := run(); err != nil {
		observability.Logger().Error("prima-api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile := ""
	if cfg.FileLogging {
		logFile = cfg.LogFile
	}
	closer, err := observability.Setup(observability.Options{
		Level:   cfg.LogLevel,
		File:    logFile,
		Service: httpadapter.ServiceName,
	})
	if err != nil {
		return err
	}
	defer closer.Close()
	log := observability.Logger()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	llmClient, embedder, err := newLLM(ctx, cfg)
	if err != nil {
		return err
	}

	var predictionCache domain.Cache
	switch {
	case !cfg.EnableCaching:
		log.Info("[CACHE] caching disabled")
	case cfg.RedisURL != "":
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			// the API still works without a cache
			log.Warn("[CACHE] redis unavailable, using in-memory cache", "error", err)
			predictionCache = cache.NewMemoryCache()
		} else {
			log.Info("[CACHE] using redis")
			defer rc.Close()
			predictionCache = rc
		}
	default:
		log.Info("[CACHE] using in-memory cache")
		predictionCache = cache.NewMemoryCache()
	}

	engine := excellence.NewEngine(store, store, store)
	predictions := prediction.NewService(engine, store, predictionCache, cfg.PredictionCacheTTL)
	docs := documents.NewService(store, embedder, llmClient)
	curator, err := resources.NewCurator(store)
	if err != nil {
		return err
	}

	handler := httpadapter.NewServer(httpadapter.Services{
		Database:    store,
		Engine:      engine,
		Profiles:    profiles.NewService(store, engine),
		Predictions: predictions,
		Documents:   docs,
		Resources:   curator,
		Mentorship: mentorship.NewService(mentorship.Deps{
			Profiles:  store,
			Sessions:  store,
			Documents: store,
			Search:    docs,
			Predictor: predictions,
			Flow:      agentflow.NewDefaultOrchestrator(llmClient),
			Milestone: tools.NewMilestoneTool(store),
		}),
	}, cfg)

	if sq, ok := store.(*sqlitestore.Store); ok {
		go cleanupLoop(ctx, sq)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Prima Scholar API listening", "port", cfg.Port, "mode", cfg.Mode, "storage", cfg.StorageBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (domain.Store, error) {
	log := observability.Logger()

	switch cfg.StorageBackend {
	case config.BackendFirestore:
		log.Info("[STORE] using firestore", "project", cfg.GCPProjectID)
		return firestorestore.NewStore(ctx, cfg.GCPProjectID)
	case config.BackendSQLite:
		log.Info("[STORE] using sqlite", "path", cfg.SQLitePath)
		return sqlitestore.Open(ctx, cfg.SQLitePath)
	default:
		log.Info("[STORE] using in-memory storage")
		return memstore.NewStore(), nil
	}
}

func newLLM(ctx context.Context, cfg *config.Config) (domain.LLMClient, domain.Embedder, error) {
	log := observability.Logger()

	if cfg.UseMockLLM {
		log.Info("[LLM] using mock LLM client")
		return llm.NewMockLLM(), llm.NewHashEmbedder(llm.DefaultEmbeddingDimensions), nil
	}

	client, err := llm.NewClient(ctx, llm.Options{
		APIKey:         cfg.GeminiAPIKey,
		Project:        cfg.GCPProjectID,
		Location:       cfg.GCPLocation,
		Model:          cfg.ModelName,
		EmbeddingModel: cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info("[LLM] using gemini", "model", cfg.ModelName)
	return llm.NewGenAIClient(client, cfg.ModelName), llm.NewGenAIEmbedder(client, cfg.EmbeddingModel), nil
}

func cleanupLoop(ctx context.Context, s *sqlitestore.Store) {
	t := time.NewTicker(cleanupEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Cleanup(ctx, keepFor)
			if err != nil {
				observability.Logger().Warn("[STORE] cleanup failed", "error", err)
				continue
			}
			observability.Logger().Info("[STORE] cleanup done", "rows", n)
		}
	}
}
