package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/kailas-cloud/finder/internal/config"
	dbRedis "github.com/kailas-cloud/finder/internal/db/redis"
	"github.com/kailas-cloud/finder/internal/domain"
	dommatch "github.com/kailas-cloud/finder/internal/domain/match"
	logpkg "github.com/kailas-cloud/finder/internal/logger"
	"github.com/kailas-cloud/finder/internal/metrics"
	alertrepo "github.com/kailas-cloud/finder/internal/repository/alert"
	"github.com/kailas-cloud/finder/internal/repository/embcache"
	fsrepo "github.com/kailas-cloud/finder/internal/repository/firestore"
	"github.com/kailas-cloud/finder/internal/repository/founditem"
	"github.com/kailas-cloud/finder/internal/repository/mailqueue"
	chiTransport "github.com/kailas-cloud/finder/internal/transport/chi"
	fsTransport "github.com/kailas-cloud/finder/internal/transport/firestore"
	"github.com/kailas-cloud/finder/internal/transport/gcs"
	"github.com/kailas-cloud/finder/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/finder/internal/transport/openai"
	"github.com/kailas-cloud/finder/internal/transport/stream"
	embeddinguc "github.com/kailas-cloud/finder/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/finder/internal/usecase/health"
	matchuc "github.com/kailas-cloud/finder/internal/usecase/match"
	notifyuc "github.com/kailas-cloud/finder/internal/usecase/notify"
	registryuc "github.com/kailas-cloud/finder/internal/usecase/registry"
	triggeruc "github.com/kailas-cloud/finder/internal/usecase/trigger"
	"github.com/kailas-cloud/finder/internal/version"
)

// backend is the document database as seen by the use cases, for one driver.
type backend struct {
	alerts interface {
		matchuc.AlertRepository
		registryuc.AlertWriter
	}
	items  registryuc.FoundWriter
	mail   notifyuc.MailQueue
	pinger healthuc.DBPinger
	cache  embcacheStore // nil when the driver has no key-value store
	// events runs the found-item event source until ctx is cancelled.
	events func(ctx context.Context, t *triggeruc.Service) error
	close  func()
}

// embcacheStore is what the embedding cache needs from the database.
type embcacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting finder",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("description_model", cfg.Models.Description.Model),
		zap.String("embedding_model", cfg.Models.Embedding.Model),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterModelMetrics()
	metrics.RegisterMatchMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := buildBackend(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer be.close()
	logger.Info("Connected to database")

	storageClient, err := gcs.NewClient(ctx, cfg.Database.CredentialsFile)
	if err != nil {
		logger.Fatal("Failed to create storage client", zap.Error(err))
	}
	defer func() { _ = storageClient.Close() }()
	objects := gcs.New(storageClient, cfg.Storage.Bucket, cfg.Storage.MaxObjectBytes)

	models, err := buildModels(ctx, &cfg, be.cache, logger)
	if err != nil {
		logger.Fatal("Failed to create model clients", zap.Error(err))
	}
	logger.Info("Models ready",
		zap.String("description_provider", cfg.Models.Description.Provider),
		zap.String("embedding_provider", cfg.Models.Embedding.Provider),
		zap.Int("dimensions", cfg.Models.Embedding.Dimensions),
	)

	// Use cases
	embeddingSvc := embeddinguc.New(models.describer, models.embedder, objects, embeddinguc.Prompts{
		Describe: cfg.Models.Prompts.Describe,
		Search:   cfg.Models.Prompts.Search,
	})

	threshold, err := dommatch.NewThreshold(*cfg.Matching.Threshold)
	if err != nil {
		logger.Fatal("Invalid match threshold", zap.Error(err))
	}
	matchSvc := matchuc.New(be.alerts, matchuc.Config{
		Threshold: threshold,
		MaxAlerts: cfg.Matching.MaxAlerts,
		Subject:   cfg.Notify.Subject,
	})
	notifySvc := notifyuc.New(be.mail, cfg.Notify.MaxConcurrency,
		time.Duration(cfg.Notify.EnqueueTimeout)*time.Second)
	triggerSvc := triggeruc.New(matchSvc, notifySvc, logger)
	registrySvc := registryuc.New(be.items, be.alerts, embeddingSvc)
	healthSvc := healthuc.New(be.pinger, models.checks)

	// HTTP
	server := chiTransport.NewServer(embeddingSvc, registrySvc, healthSvc, chiTransport.Timeouts{
		Text:  time.Duration(cfg.HTTP.TextTimeoutSec) * time.Second,
		Image: time.Duration(cfg.HTTP.ImageTimeoutSec) * time.Second,
	}, cfg.HTTP.MaxBodyBytes, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEvent(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(cfg.HTTP.CORSAllowOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{
			"X-Request-ID", "X-Model-Calls", "X-Description-Tokens", "X-Embedding-Tokens",
		},
		MaxAge: 300,
	}))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Event source
	var wg sync.WaitGroup
	if *cfg.Events.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := be.events(ctx, triggerSvc); err != nil {
				logger.Error("Event source stopped", zap.Error(err))
				stop()
			}
		}()
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	wg.Wait()

	logger.Info("Server stopped gracefully")
}

// buildBackend connects the configured document database and wires its repositories.
func buildBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		return buildRedisBackend(ctx, cfg, logger)
	case config.DriverFirestore:
		return buildFirestoreBackend(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func buildRedisBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	// Valkey speaks the same protocol (JSON module and streams included); one client serves both.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	prefix := cfg.Database.KeyPrefix
	items := founditem.New(store, prefix, cfg.Events.Stream)

	return &backend{
		alerts: alertrepo.New(store, prefix),
		items:  items,
		mail:   mailqueue.New(store, prefix),
		pinger: store,
		cache:  store,
		events: func(ctx context.Context, t *triggeruc.Service) error {
			c := stream.New(store, items, t, stream.Config{
				Stream:    cfg.Events.Stream,
				Group:     cfg.Events.Group,
				Consumer:  cfg.Events.Consumer,
				Block:     time.Duration(cfg.Events.BlockMS) * time.Millisecond,
				BatchSize: cfg.Events.BatchSize,
			}, logger)
			return c.Run(ctx)
		},
		close: store.Close,
	}, nil
}

func buildFirestoreBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	client, err := fsrepo.NewClient(ctx, fsrepo.Config{
		ProjectID:       cfg.Database.ProjectID,
		CredentialsFile: cfg.Database.CredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	pinger := fsrepo.NewPinger(client)
	readyCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
	defer cancel()
	if err := pinger.Ping(readyCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	return &backend{
		alerts: fsrepo.NewAlertRepo(client),
		items:  fsrepo.NewFoundItemRepo(client),
		mail:   fsrepo.NewMailQueue(client),
		pinger: pinger,
		events: func(ctx context.Context, t *triggeruc.Service) error {
			return fsTransport.NewWatcher(client, t, logger).Run(ctx)
		},
		close: func() { _ = client.Close() },
	}, nil
}

// modelSet is the assembled model pipeline plus the health checks of its providers.
type modelSet struct {
	describer embeddinguc.Describer
	embedder  embeddinguc.Embedder
	checks    map[string]healthuc.ModelChecker
}

// buildModels assembles the decorator chains:
// describer: provider -> Instrumented; embedder: provider -> Cached -> Instrumented.
func buildModels(
	ctx context.Context, cfg *config.Config, cache embcacheStore, logger *zap.Logger,
) (*modelSet, error) {
	descCfg, embCfg := cfg.Models.Description, cfg.Models.Embedding

	var geminiClient *genai.Client
	if descCfg.Provider == config.ProviderGemini || embCfg.Provider == config.ProviderGemini {
		p := cfg.Provider(config.ProviderGemini)
		c, err := gemini.NewClient(ctx, p.APIKey, p.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		geminiClient = c
	}

	// one limiter per provider, shared by both models on it
	limiters := map[string]*rate.Limiter{}
	limiter := func(provider string) *rate.Limiter {
		l, ok := limiters[provider]
		if !ok {
			l = embeddinguc.NewLimiter(cfg.Provider(provider).RateLimit)
			limiters[provider] = l
		}
		return l
	}

	var baseDescriber interface {
		embeddinguc.Describer
		domain.HealthChecker
	}
	switch descCfg.Provider {
	case config.ProviderGemini:
		baseDescriber = gemini.NewDescriber(geminiClient, &gemini.Config{
			Model:  descCfg.Model,
			Logger: logger,
		})
	default:
		p := cfg.Provider(config.ProviderOpenAI)
		baseDescriber = openaiTransport.NewDescriber(&openaiTransport.Config{
			APIKey:   p.APIKey,
			BaseURL:  p.BaseURL,
			Model:    descCfg.Model,
			Provider: config.ProviderOpenAI,
			Logger:   logger,
		})
	}

	var baseEmbedder interface {
		domain.Embedder
		domain.HealthChecker
	}
	switch embCfg.Provider {
	case config.ProviderGemini:
		baseEmbedder = gemini.NewEmbedder(geminiClient, &gemini.Config{
			Model:      embCfg.Model,
			Dimensions: embCfg.Dimensions,
			Logger:     logger,
		})
	default:
		p := cfg.Provider(config.ProviderOpenAI)
		baseEmbedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     p.APIKey,
			BaseURL:    p.BaseURL,
			Model:      embCfg.Model,
			Dimensions: embCfg.Dimensions,
			Provider:   config.ProviderOpenAI,
			Logger:     logger,
		})
	}

	var embedder domain.Embedder = baseEmbedder
	if cache != nil {
		embedder = embcache.New(baseEmbedder, cache, embcache.Config{
			Prefix: cfg.Database.KeyPrefix,
			Model:  embCfg.Model,
			TTL:    time.Duration(cfg.Models.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	return &modelSet{
		describer: embeddinguc.NewInstrumentedDescriber(
			baseDescriber, descCfg.Provider, descCfg.Model, limiter(descCfg.Provider), logger),
		embedder: embeddinguc.NewInstrumentedEmbedder(
			embedder, embCfg.Provider, embCfg.Model, limiter(embCfg.Provider), logger),
		checks: map[string]healthuc.ModelChecker{
			"description_model": baseDescriber,
			"embedding_model":   baseEmbedder,
		},
	}, nil
}

func corsOrigins(configured []string) []string {
	if len(configured) == 0 {
		return []string{"*"}
	}
	return configured
}
