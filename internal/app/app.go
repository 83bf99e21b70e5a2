// Package app wires the catalog server: config, database, cache,
// services, handlers and the HTTP server lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/pyplots/pyplots-backend/internal/cache"
	"github.com/pyplots/pyplots-backend/internal/data/repos"
	"github.com/pyplots/pyplots-backend/internal/htmlproxy"
	apphttp "github.com/pyplots/pyplots-backend/internal/http"
	httpH "github.com/pyplots/pyplots-backend/internal/http/handlers"
	"github.com/pyplots/pyplots-backend/internal/images"
	"github.com/pyplots/pyplots-backend/internal/platform/db"
	"github.com/pyplots/pyplots-backend/internal/platform/envutil"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
	"github.com/pyplots/pyplots-backend/internal/services"
	"github.com/pyplots/pyplots-backend/internal/storage"
)

type App struct {
	Log    *logger.Logger
	Cfg    Config
	DB     *gorm.DB
	Cache  *cache.Cache
	Server *apphttp.Server

	traceShutdown func(context.Context) error
}

func New() (*App, error) {
	log, err := logger.New(envutil.Get("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig()

	var gdb *gorm.DB
	if cfg.DB.Configured() {
		gdb, err = db.Open(cfg.DB, log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.AutoMigrate(gdb); err != nil {
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	} else {
		log.Warn("no database configured; catalog endpoints will report unavailable")
	}

	c := cache.New(cfg.CacheMaxSize, cfg.CacheTTL)
	reposet := repos.NewSet(gdb, log)

	fetcher := newFetcher(cfg, log)

	catalogSvc := services.NewCatalogService(gdb, reposet, c, log)
	filterSvc := services.NewFilterService(gdb, reposet, c, log)
	ogSvc := services.NewOGService(catalogSvc, images.NewOGBuilder(fetcher, log), c, log)
	seoSvc := services.NewSEOService(catalogSvc, c, cfg.BaseURL, log)

	proxyCfg := htmlproxy.Config{
		Host:         cfg.Storage.Host,
		Bucket:       cfg.Storage.Bucket,
		ParentOrigin: cfg.BaseURL,
	}

	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:         log,
		DB:          gdb,
		CORSOrigins: cfg.CORSOrigins,
		Tracing:     cfg.OTELEnabled,

		HomeHandler:    httpH.NewHomeHandler(cfg.BaseURL),
		CatalogHandler: httpH.NewCatalogHandler(log, catalogSvc),
		FilterHandler:  httpH.NewFilterHandler(log, filterSvc),
		OGHandler:      httpH.NewOGHandler(log, catalogSvc, ogSvc, fetcher, proxyCfg),
		SEOHandler:     httpH.NewSEOHandler(log, seoSvc),
	}, fmt.Sprintf(":%d", cfg.Port))

	a := &App{
		Log:    log,
		Cfg:    cfg,
		DB:     gdb,
		Cache:  c,
		Server: server,
	}

	if cfg.OTELEnabled {
		shutdown, err := initTracing()
		if err != nil {
			log.Warn("tracing disabled", "error", err)
		} else {
			a.traceShutdown = shutdown
		}
	}
	return a, nil
}

// newFetcher reads artifacts straight from GCS when application
// credentials are present, otherwise through the public bucket
// endpoint.
func newFetcher(cfg Config, log *logger.Logger) storage.Fetcher {
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		f, err := storage.NewGCSFetcher(context.Background(), cfg.Storage, log)
		if err == nil {
			return f
		}
		log.Warn("gcs fetcher unavailable, falling back to http", "error", err)
	}
	return storage.NewHTTPFetcher(log)
}

// Run serves until the context is cancelled, then drains in-flight
// requests.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	a.Log.Info("server listening", "addr", a.Server.Engine.Addr, "environment", a.Cfg.Environment)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.Server.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Cache != nil {
		a.Cache.Close()
	}
	if a.DB != nil {
		if err := db.Close(a.DB); err != nil {
			a.Log.Warn("close database", "error", err)
		}
	}
	if a.traceShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.traceShutdown(ctx); err != nil {
			a.Log.Warn("flush traces", "error", err)
		}
	}
	a.Log.Sync()
}
