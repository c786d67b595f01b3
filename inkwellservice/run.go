package inkwellservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-io/inkwell/server/internal/api"
	"github.com/inkwell-io/inkwell/server/internal/auth"
	"github.com/inkwell-io/inkwell/server/internal/config"
	emb "github.com/inkwell-io/inkwell/server/internal/embeddings"
	"github.com/inkwell-io/inkwell/server/internal/factory"
	"github.com/inkwell-io/inkwell/server/internal/groq"
	"github.com/inkwell-io/inkwell/server/internal/health"
	"github.com/inkwell-io/inkwell/server/internal/logger"
	"github.com/inkwell-io/inkwell/server/internal/searchindex"
	"github.com/inkwell-io/inkwell/server/internal/services"
	"github.com/inkwell-io/inkwell/server/internal/store"
)

// Run starts the journal service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("inkwell-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("vector_index", cfg.VectorIndex).
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Msg("Inkwell service starting")

	// Cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, idx, embedProvider, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	repair := services.NewReindexer(st, idx, embedProvider, log)
	repair.Start(ctx)

	deps, err := buildServices(cfg, st, idx, embedProvider, repair, log)
	if err != nil {
		return err
	}

	svcHealth := startHealthCheckers(ctx, cfg, log, st, idx, embedProvider)
	deps.Health = svcHealth
	router := api.NewRouter(deps)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		flushIndex(idx, log)
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, searchindex.Index, emb.Provider, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, nil, nil, err
	}

	embedProvider := factory.NewEmbeddingProvider(ctx, cfg, log)
	if embedProvider == nil {
		return nil, nil, nil, fmt.Errorf("embedding provider not configured")
	}

	idx, err := factory.NewSearchIndex(ctx, cfg, st, embedProvider, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Search index adapter unavailable")
		return nil, nil, nil, err
	}
	return st, idx, embedProvider, nil
}

// buildServices assembles the domain services behind the router.
func buildServices(cfg *config.Config, st store.Store, idx searchindex.Index, embedProvider emb.Provider, repair *services.Reindexer, log zerolog.Logger) (api.Deps, error) {
	jwt, err := auth.NewJWTAuthorizer(cfg.AuthSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	if err != nil {
		return api.Deps{}, err
	}

	journal := services.NewJournalService(st, idx, embedProvider, repair)

	var assistant api.Assistant
	if cfg.GroqAPIKey != "" {
		assistant = groq.NewClient(cfg.GroqURL, cfg.GroqAPIKey, log)
	} else {
		log.Info().Msg("no Groq API key configured; transcription and summary endpoints disabled")
	}

	return api.Deps{
		Users:     services.NewUserService(st, journal),
		Journal:   journal,
		Search:    services.NewSearchService(embedProvider, idx),
		JWT:       jwt,
		Assistant: assistant,
	}, nil
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, idx searchindex.Index, embedProvider emb.Provider) *health.ServiceHealthChecker {
	var checkers []health.HealthChecker
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)
	checkers = append(checkers, storeChecker)

	idxChecker := searchindex.NewIndexHealthChecker(idx, log, probeTimeout)
	go idxChecker.Start(ctx, interval)
	checkers = append(checkers, idxChecker)

	embChecker := emb.NewProviderHealthChecker(embedProvider, log, probeTimeout)
	go embChecker.Start(ctx, interval)
	checkers = append(checkers, embChecker)

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

// flushIndex persists the embedded index snapshot on shutdown. Weaviate keeps
// its own state and has nothing to flush.
func flushIndex(idx searchindex.Index, log zerolog.Logger) {
	mem, ok := idx.(*searchindex.MemIndex)
	if !ok {
		return
	}
	if err := mem.Flush(); err != nil {
		log.Error().Err(err).Msg("failed to flush index snapshot")
	} else {
		log.Info().Msg("index snapshot flushed")
	}
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
