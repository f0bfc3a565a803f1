// Package devapi runs an in-memory implementation of the rainwise HTTP API
// for local development and end-to-end tests of the client.
package devapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/devapi/config"
	"github.com/dmitrijs2005/rainwise/internal/devapi/httpapi"
	"github.com/dmitrijs2005/rainwise/internal/devapi/repositories/catalog"
	"github.com/dmitrijs2005/rainwise/internal/devapi/repositories/refreshtokens"
	"github.com/dmitrijs2005/rainwise/internal/devapi/repositories/users"
	"github.com/dmitrijs2005/rainwise/internal/devapi/services"
	"github.com/dmitrijs2005/rainwise/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	handler http.Handler
}

// NewApp wires repositories, services and the router, and seeds the data.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	store := catalog.NewStore()
	userService := services.NewUserService(users.NewMemoryRepository(), refreshtokens.NewMemoryRepository(), store.Cities, cfg)
	catalogService := services.NewCatalogService(store)

	if err := seed(ctx, cfg, userService, catalogService); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := httpapi.NewHandlers(userService, catalogService, logger)
	handler := httpapi.NewRouter(h, httpapi.Options{
		Logger:   logger,
		Metrics:  httpapi.NewMetrics(reg),
		Gatherer: reg,
		Secret:   []byte(cfg.SecretKey),
	})

	return &App{config: cfg, logger: logger, handler: handler}, nil
}

// Handler exposes the router, mainly for httptest.
func (app *App) Handler() http.Handler {
	return app.handler
}

// Run serves until ctx is cancelled or the process gets SIGINT, SIGTERM or
// SIGQUIT, then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	srv := &http.Server{
		Addr:              app.config.Addr,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.Info(gctx, "devapi listening", "addr", app.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		app.logger.Info(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
