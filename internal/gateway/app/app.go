package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	snapshotcache "linecount/internal/cache/snapshot"
	"linecount/internal/gateway/config"
	"linecount/internal/gateway/handler"
	"linecount/internal/gateway/server"
	"linecount/internal/gateway/service/counter"
	"linecount/internal/githost"
	"linecount/internal/linecount"
)

type App struct {
	server *server.Server
	stores *snapshotStore
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg *config.Config) (*App, error) {
	countCfg := cfg.LineCount()
	if !countCfg.TokenConfigured() {
		log.Printf("GITHUB_TOKEN is not set; /api/line-count will fail until it is configured")
	}

	// Dependencies
	gh, err := githost.New(cfg.GitHub.Token, githost.Options{
		BaseURL:    cfg.GitHub.APIBaseURL,
		RawBaseURL: cfg.GitHub.RawBaseURL,
		Source:     cfg.GitHub.Source,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize github client: %w", err)
	}
	stores, err := initSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}

	agg := linecount.NewAggregator(countCfg, gh, gh)
	counterSvc := counter.New(agg, gh, stores.store, cfg.Snapshot.Freshness, nil)
	counterSvc.Warm(context.Background())

	lineCountHandler := handler.NewLineCountHandler(counterSvc, stores.label)
	if cached, ok := stores.store.(*snapshotcache.CachedStore); ok {
		lineCountHandler.WithCacheMetrics(cached.Metrics)
	}

	// Routing & Server
	mux := server.NewMux(lineCountHandler, cfg.CORSOrigin, nil)
	srv := server.New(cfg.Port, mux)

	log.Printf("repository=%s branch=%s source=%s exclude=%s", countCfg.Repo.FullName(), countCfg.Repo.Ref, gh.Source(), countCfg.ExcludeMode)
	return &App{
		server: srv,
		stores: stores,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(a.server.Shutdown(ctx), a.stores.Close())
}
