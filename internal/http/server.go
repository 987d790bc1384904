package httpserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/pricewatch/internal/catalog"
	"github.com/Clark-Hu/pricewatch/internal/config"
	"github.com/Clark-Hu/pricewatch/internal/reconcile"
	"github.com/Clark-Hu/pricewatch/internal/repository"
	"github.com/Clark-Hu/pricewatch/internal/store"
)

// Refresher runs one reconciliation pass.
type Refresher interface {
	Run(ctx context.Context) (reconcile.Report, error)
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	store    *store.Store
	repo     *repository.Repository
	catalog  *catalog.Service
	refresh  Refresher
	validate *validator.Validate
	logger   logrus.FieldLogger
	router   chi.Router
	httpSrv  *http.Server

	// refreshMu keeps refresh runs from overlapping.
	refreshMu sync.Mutex
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, svc *catalog.Service, refresh Refresher, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:      cfg,
		store:    st,
		repo:     repo,
		catalog:  svc,
		refresh:  refresh,
		validate: validator.New(),
		logger:   logger,
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/vendors", s.handleListVendors)
	s.router.Post("/refresh", s.requireBearer(s.handleRefresh))
	s.router.Route("/movies", func(r chi.Router) {
		r.Get("/", s.handleListMovies)
		r.Post("/", s.requireBearer(s.handleCreateMovie))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetMovie)
			r.Get("/prices", s.handleListPrices)
			r.Post("/purchase", s.requireBearer(s.handleRecordPurchase))
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"elapsed":    time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("http: request")
		})
	}
}
