package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eps-citas/internal/adapters/auth/backend"
	"eps-citas/internal/adapters/storage/file"
	mem "eps-citas/internal/adapters/storage/memory"
	pg "eps-citas/internal/adapters/storage/postgres"
	"eps-citas/internal/config"
	"eps-citas/internal/domain/catalog"
	"eps-citas/internal/domain/citas"
	"eps-citas/internal/domain/profile"
	"eps-citas/internal/domain/stats"
	"eps-citas/internal/navigation"
	"eps-citas/internal/platform/breaker"
	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/platform/logger"
	"eps-citas/internal/platform/metrics"
	"eps-citas/internal/ports/storage"
	"eps-citas/internal/session"
)

var (
	errNoSession = errors.New("no active session")
	errRol       = errors.New("option not allowed for role")
)

// Texto al usuario para los errores centinela; se aplica al imprimir.
const (
	msgNoSession = "No hay una sesión activa. Inicia sesión con 'eps-citas login'."
	msgRol       = "Esta opción no está disponible para tu tipo de usuario"
)

func userMessage(err error) string {
	switch {
	case errors.Is(err, errNoSession):
		return msgNoSession
	case errors.Is(err, errRol):
		return msgRol
	}
	return err.Error()
}

// app es el cliente completo armado desde la config.
type app struct {
	cfg *config.Config
	log logger.Logger

	store   *session.Store
	citas   *citas.Service
	catalog *catalog.Catalog
	profile *profile.Service
	stats   *stats.Service

	db *sql.DB
}

func (a *app) init(ctx context.Context, cfg *config.Config, verbose bool) error {
	a.cfg = cfg
	a.log = logger.NewNop()
	if verbose {
		a.log = logger.New(logger.Options{
			Level:  logger.ParseLevel(cfg.LogLevel),
			Format: logger.ParseFormat(cfg.LogFormat),
			App:    cfg.AppName,
		})
	}

	kv, err := a.openKV(ctx)
	if err != nil {
		return err
	}

	m := metrics.NewClient(nil)
	var br *breaker.Breaker
	if cfg.BreakerEnabled {
		bc := breaker.DefaultConfig("eps-api")
		bc.FailureThreshold = cfg.BreakerFailures
		bc.Timeout = cfg.BreakerOpenTimeout
		br = breaker.New(bc, logger.Zap(a.log), func(name string, to breaker.State) {
			m.SetBreakerState(name, breaker.Gauge(to))
		})
	}

	hc, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		Tokens: httpclient.TokenFunc(func(ctx context.Context) (string, error) {
			return a.store.Token(ctx)
		}),
		OnUnauthorized: func(ctx context.Context) { a.store.Expire(ctx) },
		Logger:         a.log,
		Metrics:        m,
		Breaker:        br,
	})
	if err != nil {
		return err
	}

	a.store = session.NewStore(kv, backend.NewClient(hc), session.WithLogger(a.log), session.WithMetrics(m))
	a.citas = citas.NewService(hc, a.log)
	a.catalog = catalog.New(hc, a.log)
	a.profile = profile.NewService(hc, a.store)
	a.stats = stats.NewService(hc, a.catalog, a.citas)

	if err := a.store.Restore(ctx); err != nil {
		a.log.Warn("session restore failed", map[string]any{"error": err})
	}
	return nil
}

func (a *app) openKV(ctx context.Context) (storage.KV, error) {
	switch a.cfg.SessionStore {
	case config.SessionStoreMemory:
		return mem.NewKV(), nil
	case config.SessionStorePostgres:
		db, err := pg.Open(a.cfg.SessionDSN)
		if err != nil {
			return nil, fmt.Errorf("open session db: %w", err)
		}
		if err := pg.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure session schema: %w", err)
		}
		a.db = db
		return pg.NewSessionKV(db, a.cfg.AppName), nil
	default:
		return file.NewKV(a.cfg.SessionDir)
	}
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// requireSession confirma que el token sigue guardado antes de llamar al backend.
func (a *app) requireSession(ctx context.Context, roles ...navigation.Role) (session.Snapshot, error) {
	if a.store == nil || !a.store.Validate(ctx) {
		return session.Snapshot{}, errNoSession
	}
	snap := a.store.Snapshot()
	if len(roles) == 0 {
		return snap, nil
	}
	for _, r := range roles {
		if snap.Role == r {
			return snap, nil
		}
	}
	return snap, errRol
}
