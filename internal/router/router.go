package router

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	mem "eps-citas/internal/adapters/storage/memory"
	pg "eps-citas/internal/adapters/storage/postgres"
	"eps-citas/internal/middleware"
	"eps-citas/internal/mockapi"
	_ "eps-citas/internal/mockapi/docs"
	"eps-citas/internal/platform/logger"
	"eps-citas/internal/platform/metrics"
	"eps-citas/internal/ports/auth"
	"eps-citas/internal/ports/records"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"
)

// APIPrefix es donde se monta el contrato del backend (EPS_API_BASE_URL termina en /api).
const APIPrefix = "/api"

// Tokens verifica y emite los JWT del backend demo.
type Tokens interface {
	auth.Verifier
	mockapi.TokenIssuer
}

type Options struct {
	Tokens Tokens

	// Opcional: si viene, usa Postgres. Si no, DSN; si tampoco, in-memory.
	DB  *sql.DB
	DSN string

	Logger logger.Logger

	// Registry para /metrics; nil = prometheus.DefaultRegisterer.
	Registry *prometheus.Registry

	// Seed carga datos demo al arrancar.
	Seed bool

	Clock      func() time.Time
	BcryptCost int
}

// NewRouter arma el backend demo completo.
func NewRouter(opts Options) (http.Handler, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if opts.Registry != nil {
		reg, gatherer = opts.Registry, opts.Registry
	}
	m := metrics.NewServer(reg)

	repo, err := openRepo(opts, log)
	if err != nil {
		return nil, err
	}

	srvOpts := []mockapi.Option{mockapi.WithLogger(log), mockapi.WithMetrics(m), mockapi.WithClock(opts.Clock)}
	if opts.BcryptCost > 0 {
		srvOpts = append(srvOpts, mockapi.WithBcryptCost(opts.BcryptCost))
	}
	api := mockapi.NewServer(repo, opts.Tokens, srvOpts...)
	if opts.Seed {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := api.Seed(ctx); err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.AccessLog(log, m))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler(gatherer))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route(APIPrefix, func(ar chi.Router) {
		ar.Use(middleware.AuthContext(opts.Tokens))
		api.RegisterRoutes(ar)
	})

	return r, nil
}

func openRepo(opts Options, log logger.Logger) (records.Repository, error) {
	db := opts.DB
	if db == nil && opts.DSN != "" {
		opened, err := pg.Open(opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = opened
	}
	if db == nil {
		log.Info("using in-memory records", nil)
		return mem.NewRecordsRepo(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pg.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	log.Info("using postgres records", nil)
	return pg.NewRecordsRepo(db), nil
}
