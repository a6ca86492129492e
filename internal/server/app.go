// Package server exposes the mission engine to browser clients over
// websockets, one engine per connected agent.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"BreachProtocol/internal/game"
	"BreachProtocol/internal/store"
)

const shutdownTimeout = 5 * time.Second

// App wires the catalog, save store, hub and HTTP routes together.
type App struct {
	cfg      Config
	log      *zap.Logger
	cat      *game.Catalog
	store    *store.Store
	hub      *Hub
	metrics  *Metrics
	registry *prometheus.Registry
	watcher  *TuningWatcher
	conns    sync.WaitGroup
}

// NewApp loads the catalog and tuning and opens the save store.
func NewApp(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	scfg := store.DefaultConfig(cfg.DataDir)
	if cfg.InMemory {
		scfg = store.InMemoryConfig()
	}
	scfg.Logger = log.Named("store")
	st, err := store.Open(scfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := NewMetrics(reg)
	tuning := ResolveTuning(cfg, log)

	a := &App{
		cfg:      cfg,
		log:      log,
		cat:      cat,
		store:    st,
		hub:      NewHub(tuning, m),
		metrics:  m,
		registry: reg,
	}
	if cfg.WatchConfig && cfg.ConfigPath != "" {
		a.watcher = NewTuningWatcher(cfg.ConfigPath, cfg.Overrides, a.hub.SetTuning, log.Named("watch"))
		if err := a.watcher.Start(); err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	log.Info("server ready",
		zap.Int("nodes", len(cat.Nodes)),
		zap.Duration("tick", tuning.TickInterval),
		zap.Bool("autosave", tuning.AutoSave))
	return a, nil
}

func loadCatalog(path string) (*game.Catalog, error) {
	if path == "" {
		return game.DefaultCatalog()
	}
	return game.LoadCatalog(path)
}

// Hub returns the session hub.
func (a *App) Hub() *Hub { return a.hub }

// Run serves until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", zap.String("addr", a.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Close drops live connections, waits for their handlers, stops the config
// watcher and closes the save store.
func (a *App) Close() error {
	a.hub.CloseAll()
	a.conns.Wait()
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
