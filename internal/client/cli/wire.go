package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/rainwise/internal/client/client"
	"github.com/dmitrijs2005/rainwise/internal/client/config"
	"github.com/dmitrijs2005/rainwise/internal/client/metrics"
	"github.com/dmitrijs2005/rainwise/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/rainwise/internal/client/services"
	"github.com/dmitrijs2005/rainwise/internal/client/session"
	"github.com/dmitrijs2005/rainwise/internal/client/transport"
	"github.com/dmitrijs2005/rainwise/internal/filex"
	"github.com/dmitrijs2005/rainwise/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

const appDirName = "rainwise"

// openStore returns the credential store selected by cfg and its closer.
func openStore(ctx context.Context, cfg *config.Config) (credentials.Store, func() error, error) {
	if cfg.StoreKind == config.StoreMemory {
		return credentials.NewMemoryStore(), func() error { return nil }, nil
	}

	dsn := cfg.StoreDSN
	if dsn == "" {
		dir, err := filex.DataDir(appDirName)
		if err != nil {
			return nil, nil, err
		}
		dsn = filepath.Join(dir, "session.db")
	}
	s, err := credentials.OpenSQLite(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// Bootstrap assembles an App from cfg and restores any persisted session.
//
// Two HTTP clients share the base URL: the session manager talks to the
// auth endpoints over a plain client, everything else goes through the
// refreshing transport. The returned function stops the session clock and
// closes the store.
func Bootstrap(ctx context.Context, cfg *config.Config, log logging.Logger, reg prometheus.Registerer) (*App, func(), error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open credential store: %w", err)
	}

	nav := NewNavigator(os.Stdout)
	m := metrics.New(reg)

	authAPI, err := client.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.RequestTimeout}, log)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	mgr := session.NewManager(authAPI, store, nav, session.Options{
		ValidityBuffer:  cfg.ValidityBuffer,
		DefaultTokenTTL: cfg.DefaultTokenTTL,
		LeadTime:        cfg.RefreshLeadTime,
		Logger:          log,
		Metrics:         m,
	})

	rt := transport.New(http.DefaultTransport, mgr, nav, transport.Options{
		PublicEndpoints: cfg.PublicEndpoints,
		Logger:          log,
		Metrics:         m,
	})
	api, err := client.New(cfg.APIBaseURL, &http.Client{Transport: rt, Timeout: cfg.RequestTimeout}, log)
	if err != nil {
		mgr.Close()
		_ = closeStore()
		return nil, nil, err
	}

	if err := mgr.Restore(ctx); err != nil {
		log.Warn(ctx, "could not restore session", "error", err)
	}

	catalog := services.NewCatalogService(api)
	app := NewApp(Deps{
		Session:    mgr,
		Auth:       services.NewAuthService(mgr, authAPI, nav),
		Catalog:    catalog,
		Calculator: services.NewCalculatorService(catalog),
		Navigator:  nav,
		Logger:     log,
	})

	closeFn := func() {
		mgr.Close()
		if err := closeStore(); err != nil {
			log.Warn(context.Background(), "close credential store", "error", err)
		}
	}
	return app, closeFn, nil
}
