package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/emp-registry/apiserver/config"
	"github.com/emp-registry/apiserver/internal/db"
	"github.com/emp-registry/apiserver/internal/handlers"
	"github.com/emp-registry/apiserver/internal/logging"
	"github.com/emp-registry/apiserver/internal/metrics"
	"github.com/emp-registry/apiserver/internal/services"
	"github.com/emp-registry/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultPort = 8080

// Repository is the employee store the server runs against.
type Repository interface {
	services.EmployeeRepository
	handlers.Pinger
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	logger     *slog.Logger
}

type options struct {
	logger     *slog.Logger
	registry   *prometheus.Registry
	repository Repository
}

// Option configures a Server.
type Option func(*options)

// WithLogger replaces the logger built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with and served from.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithRepository bypasses STORE_DRIVER and runs the server against repo.
func WithRepository(repo Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Server, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Setup(cfg.Log.Format, cfg.Log.Level, nil)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var dbConn *sql.DB
	repo := o.repository
	if repo == nil {
		switch cfg.StoreDriver {
		case config.StoreDriverMemory:
			o.logger.Warn("using in-memory employee store; records are lost on restart")
			repo = store.NewMemoryEmployeeRepository()
		default:
			conn, err := db.Open(ctx, cfg.Database)
			if err != nil {
				return nil, err
			}
			dbConn = conn
			repo = store.NewEmployeeRepository(conn)
		}
	}

	m := metrics.New(o.registry)
	hasher := services.NewPasswordHasher(cfg.Auth.BcryptCost)

	authService := services.NewAuthService(repo, hasher, cfg.Auth.JWTSecret,
		services.WithTokenTTL(cfg.Auth.TokenTTL),
		services.WithAuthLogger(o.logger),
		services.WithAuthMetrics(m),
	)
	employeeService := services.NewEmployeeService(repo, hasher,
		services.WithDefaultPassword(cfg.Auth.DefaultPassword),
		services.WithEmployeeLogger(o.logger),
		services.WithEmployeeMetrics(m),
	)

	authMiddleware := handlers.RequireAuth(authService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger(o.logger),
		middleware.Recoverer,
		m.Middleware,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	router.Get("/healthz", handlers.Healthz(repo))
	router.Handle("/metrics", promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{}))

	employeeRoutes := func(r chi.Router) {
		handlers.AuthRouter(r, authService, o.logger)
		handlers.EmployeeRouter(r, employeeService, authMiddleware, cfg.PublicCreateEnabled, o.logger)
	}
	router.Route("/api/employees", employeeRoutes)
	router.Route("/employees", employeeRoutes)

	port := cfg.ServerPort
	if port == 0 {
		port = defaultPort
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		logger:     o.logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
