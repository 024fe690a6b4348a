// Package daemon wires configuration, storage and services into a running
// ledger, for both one-shot CLI commands and the long-running HTTP server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/akywe-ledger/akywe/internal/api"
	"github.com/akywe-ledger/akywe/internal/app/ledger"
	"github.com/akywe-ledger/akywe/internal/app/mutation"
	"github.com/akywe-ledger/akywe/internal/app/notify"
	"github.com/akywe-ledger/akywe/internal/app/store"
	"github.com/akywe-ledger/akywe/internal/domain"
	"github.com/akywe-ledger/akywe/internal/infra/memkv"
	"github.com/akywe-ledger/akywe/internal/infra/rediskv"
	"github.com/akywe-ledger/akywe/internal/infra/sqlite"
)

const shutdownTimeout = 10 * time.Second

// App is a wired ledger.
type App struct {
	Config  Config
	Log     *slog.Logger
	Store   *store.Store
	Notices *notify.Queue
	Service *mutation.Service
}

// New opens the configured backend, loads the store and builds the
// mutation service.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*App, error) {
	kv, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, kv, store.WithLogger(log))
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	ttl, err := cfg.NoticeTTL()
	if err != nil {
		st.Close()
		return nil, err
	}
	q := notify.New(ttl)

	svc := mutation.New(st, q,
		mutation.WithPolicy(mutation.Policy{
			StrictUpdates: cfg.Ledger.StrictUpdates,
			CascadeDelete: cfg.Ledger.CascadeDelete,
		}),
		mutation.WithLogger(log),
		mutation.WithCurrency(cfg.Ledger.Currency),
	)

	log.Debug("ledger ready", "backend", cfg.Storage.Backend, "home", cfg.Home)
	return &App{Config: cfg, Log: log, Store: st, Notices: q, Service: svc}, nil
}

// OpenBackend opens the persistent medium named by cfg.Storage.Backend.
func OpenBackend(ctx context.Context, cfg Config) (domain.KVStore, error) {
	switch cfg.Storage.Backend {
	case BackendSQLite:
		db, err := sqlite.Open(cfg.DataDir())
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	case BackendRedis:
		r := cfg.Storage.Redis
		kv, err := rediskv.Open(ctx, rediskv.Config{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		return kv, nil
	case BackendMemory:
		return memkv.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Ledger returns an engine over the current snapshot.
func (a *App) Ledger() *ledger.Engine {
	return ledger.New(a.Store.Snapshot())
}

// Server builds the HTTP API server for this app.
func (a *App) Server() *api.Server {
	srv := api.NewServer(a.Store, a.Service, a.Notices)
	srv.SetLogger(a.Log)
	srv.SetCORSOrigins(a.Config.API.CORSOrigins)
	srv.SetStatementLabels(a.Config.Ledger.Shop, a.Config.Ledger.Currency)
	srv.SetStatementFont(a.Config.Ledger.StatementFont)
	if a.Config.API.Metrics {
		srv.EnableMetrics()
	}
	return srv
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           a.Server().Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("api listening", "addr", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Log.Info("api shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops notice timers and closes the backend.
func (a *App) Close() error {
	a.Notices.Close()
	return a.Store.Close()
}
