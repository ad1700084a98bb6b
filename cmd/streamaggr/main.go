// Command streamaggr wires the core stream-aggregation components (anime
// identity database, metadata service, SeaDex provider, stream context,
// expression engine, stream pipeline, shared cache) into a runnable
// service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamaggr/streamaggr/internal/aidb"
	"github.com/streamaggr/streamaggr/internal/cache"
	"github.com/streamaggr/streamaggr/internal/config"
	"github.com/streamaggr/streamaggr/internal/expression"
	applogger "github.com/streamaggr/streamaggr/internal/logger"
	"github.com/streamaggr/streamaggr/internal/metadata"
	"github.com/streamaggr/streamaggr/internal/pipeline"
	"github.com/streamaggr/streamaggr/internal/seadex"
	"github.com/streamaggr/streamaggr/internal/stream"
	"github.com/streamaggr/streamaggr/internal/streamcontext"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := applogger.New(&applogger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().Msg("starting streamaggr")

	backend, err := buildCacheBackend(cfg.Cache, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize shared cache")
	}
	defer backend.Close()
	if err := backend.WaitUntilReady(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("shared cache backend never became ready")
	}
	sharedCache := cache.NewSingleflightCache(backend, cfg.Cache.DefaultTTL)

	animeDB, err := aidb.New(aidb.Config{
		DetailLevel:       aidb.DetailLevel(cfg.AnimeDB.LevelOfDetail),
		DataDir:           cfg.AnimeDB.DataDir,
		CrossRefInterval:  cfg.AnimeDB.CrossRefInterval,
		OfflineInterval:   cfg.AnimeDB.OfflineInterval,
		KitsuImdbInterval: cfg.AnimeDB.KitsuImdbInterval,
		AnitraktInterval:  cfg.AnimeDB.AnitraktInterval,
		AnimeListInterval: cfg.AnimeDB.AnimeListInterval,
		HTTPHeadTimeout:   cfg.AnimeDB.HTTPHeadTimeout,
		HTTPGetTimeout:    cfg.AnimeDB.HTTPGetTimeout,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize anime identity database")
	}
	animeDB.Start()
	defer animeDB.Stop()

	metadataClient := metadata.NewClient(metadata.ClientConfig{
		APIKey:  cfg.Metadata.TMDBAPIKey,
		BaseURL: cfg.Metadata.TMDBBaseURL,
		Timeout: cfg.Metadata.RequestTimeout,
	}, log.Logger)
	metadataSvc := metadata.NewService(metadataClient, sharedCache, cfg.Cache.DefaultTTL, log.Logger)

	seadexClient := seadex.NewClient(seadex.ClientConfig{
		BaseURL: cfg.SeaDex.BaseURL,
		Timeout: cfg.SeaDex.RequestTimeout,
	}, log.Logger)
	seadexSvc := seadex.NewService(seadexClient, sharedCache, cfg.Cache.DefaultTTL, log.Logger)

	engine := expression.NewEngine()
	pipe := pipeline.New(noopFetcher{}, engine, log.Logger)

	srv := newServer(serverDeps{
		animeDB:     animeDB,
		metadataSvc: metadataSvc,
		seadexSvc:   seadexSvc,
		pipeline:    pipe,
		seadexOn:    cfg.SeaDex.EnabledDefault,
		logger:      log.Logger,
	})

	limiter := newIPRateLimiter(60, time.Minute)
	cleanupStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.cleanup(time.Hour)
			case <-cleanupStop:
				return
			}
		}
	}()
	defer close(cleanupStop)

	handler := requestIDMiddleware(log.Logger, rateLimitMiddleware(limiter, srv))
	httpServer := &http.Server{Addr: *addr, Handler: handler}
	go func() {
		log.Info().Str("addr", *addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
}

func buildCacheBackend(cfg config.CacheConfig, logger zerolog.Logger) (cache.Cache, error) {
	if cfg.Backend == "badger" {
		return cache.NewBadgerCache(cache.BadgerCacheConfig{Dir: cfg.BadgerDir}, logger)
	}
	return cache.NewMemoryCache(cache.DefaultMemoryCacheConfig()), nil
}

// noopFetcher stands in for the addon fan-out transport, an out-of-scope
// external collaborator. A real deployment replaces this with a Fetcher
// that queries enabled addons.
type noopFetcher struct{}

func (noopFetcher) Fetch(ctx context.Context, c *streamcontext.Context, ud *stream.UserData) ([]*stream.ParsedStream, error) {
	return nil, nil
}

type serverDeps struct {
	animeDB     *aidb.Database
	metadataSvc *metadata.Service
	seadexSvc   *seadex.Service
	pipeline    *pipeline.Pipeline
	seadexOn    bool
	logger      zerolog.Logger
}

func newServer(deps serverDeps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/stream/", func(w http.ResponseWriter, r *http.Request) {
		handleStream(w, r, deps)
	})
	return mux
}

// handleStream runs the full request path - build a Stream Context, start
// its async fetches, run the Pipeline - for "/stream/{type}/{id}".
func handleStream(w http.ResponseWriter, r *http.Request, deps serverDeps) {
	kind, id, ok := parseStreamPath(r.URL.Path)
	if !ok {
		http.Error(w, "expected /stream/{movie|series}/{id}", http.StatusBadRequest)
		return
	}

	queryType := streamcontext.QueryMovie
	if kind == "series" {
		queryType = streamcontext.QuerySeries
	}

	enableSeadex := deps.seadexOn
	ud := &stream.UserData{EnableSeadex: &enableSeadex}

	sc := streamcontext.New(r.Context(), streamcontext.Config{
		Type:     queryType,
		ID:       id,
		UserData: ud,
		AIDB:     deps.animeDB,
		Metadata: deps.metadataSvc,
		SeaDex:   deps.seadexSvc,
		Logger:   deps.logger,
	})
	sc.StartAllFetches()

	result := deps.pipeline.Run(r.Context(), sc, ud)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		deps.logger.Error().Err(err).Msg("failed to encode stream response")
	}
}

func parseStreamPath(path string) (kind, id string, ok bool) {
	const prefix = "/stream/"
	if len(path) <= len(prefix) {
		return "", "", false
	}
	rest := path[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			kind = rest[:i]
			id = rest[i+1:]
			return kind, id, id != ""
		}
	}
	return "", "", false
}
