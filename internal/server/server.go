// Package server exposes the layout store over HTTP.
//
// Pages live in a storage.Repository. The first request for a page loads it
// into a store.Store, which then serves every further read and command; each
// committed command writes the page back to the repository. Datasource
// snapshots are published into the same cache the render endpoint reads
// them from.
//
// Routes:
//
//	GET    /health
//	GET    /metrics
//	GET    /pages
//	GET    /pages/{page}
//	PUT    /pages/{page}
//	GET    /pages/{page}/render?bp=
//	GET    /pages/{page}/collisions?parent=&bp=
//	POST   /pages/{page}/position
//	POST   /pages/{page}/bricks
//	DELETE /pages/{page}/bricks/{brick}
//	POST   /pages/{page}/bricks/{brick}/move
//	POST   /pages/{page}/bricks/{brick}/resize
//	POST   /pages/{page}/bricks/{brick}/reparent
//	PUT    /datasources/{ref}
//	DELETE /datasources/{ref}
//
// Failures are answered with {"code": ..., "message": ...}.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/brickgrid/pkg/cache"
	"github.com/matzehuels/brickgrid/pkg/datasource"
	"github.com/matzehuels/brickgrid/pkg/manifest"
	"github.com/matzehuels/brickgrid/pkg/materialize"
	"github.com/matzehuels/brickgrid/pkg/page"
	"github.com/matzehuels/brickgrid/pkg/storage"
	"github.com/matzehuels/brickgrid/pkg/store"
)

// Server serves the HTTP API.
type Server struct {
	repo      storage.Repository
	manifests manifest.Provider
	cache     cache.Cache
	sources   *datasource.CacheResolver
	memo      *materialize.Memo
	metrics   *Metrics
	logger    *log.Logger

	mu     sync.Mutex
	stores map[string]*store.Store

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and persistence logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithManifests sets the manifest provider of loaded pages. The default is
// manifest.Builtin().
func WithManifests(p manifest.Provider) Option {
	return func(s *Server) { s.manifests = p }
}

// WithCache sets the cache holding datasource snapshots and materialized
// instances. The default is an in-memory cache.
func WithCache(c cache.Cache) Option {
	return func(s *Server) { s.cache = c }
}

// WithMetrics sets the collectors served on /metrics. The default is a
// fresh NewMetrics; hooks are not installed by the server.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a server over repo.
func New(repo storage.Repository, opts ...Option) *Server {
	s := &Server{
		repo:   repo,
		logger: log.Default(),
		stores: make(map[string]*store.Store),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.manifests == nil {
		s.manifests = manifest.Builtin()
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryCache()
	}
	s.sources = datasource.NewCacheResolver(s.cache, datasource.WithLogger(s.logger))
	s.memo = materialize.NewMemo(s.cache, materialize.WithLogger(s.logger))
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	r.Get("/health", s.handleHealth)

	r.Route("/pages", func(r chi.Router) {
		r.Get("/", s.handleListPages)
		r.Route("/{page}", func(r chi.Router) {
			r.Get("/", s.handleGetPage)
			r.Put("/", s.handlePutPage)
			r.Get("/render", s.handleRender)
			r.Get("/collisions", s.handleCollisions)
			r.Post("/position", s.handlePosition)
			r.Post("/bricks", s.handleInsert)
			r.Route("/bricks/{brick}", func(r chi.Router) {
				r.Delete("/", s.handleRemove)
				r.Post("/move", s.handleMove)
				r.Post("/resize", s.handleResize)
				r.Post("/reparent", s.handleReparent)
			})
		})
	})

	r.Put("/datasources/{ref}", s.handlePublish)
	r.Delete("/datasources/{ref}", s.handleUnpublish)
	return r
}

// instrument logs each request and records it in the HTTP metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(t0)
		route := chi.RouteContext(r.Context()).RoutePattern()
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.metrics.httpDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())
		s.logger.Debug("http", "method", r.Method, "path", r.URL.Path, "route", route,
			"status", status, "duration", duration)
	})
}

// open returns the live store of a page, loading it on first use.
func (s *Server) open(ctx context.Context, id string) (*store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[id]; ok {
		return st, nil
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.attach(rec.Page)
}

// attach creates the store of p and persists it after every commit.
// Callers hold s.mu.
func (s *Server) attach(p *page.Page) (*store.Store, error) {
	st, err := store.New(p, store.WithManifests(s.manifests), store.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	st.Subscribe(func(ev store.Event) {
		s.persist(st, ev)
	})
	s.stores[p.ID] = st
	return st, nil
}

func (s *Server) persist(st *store.Store, ev store.Event) {
	p := st.Page()
	rec, err := s.repo.Put(context.Background(), p)
	if err != nil {
		s.logger.Error("persist page", "page", p.ID, "op", ev.Op, "err", err)
		return
	}
	s.logger.Debug("page saved", "page", p.ID, "op", ev.Op, "version", rec.Version)
}

// replace stores p and swaps in a fresh store for it.
func (s *Server) replace(ctx context.Context, p *page.Page) (*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.repo.Put(ctx, p)
	if err != nil {
		return nil, err
	}
	delete(s.stores, p.ID)
	if _, err := s.attach(rec.Page); err != nil {
		return nil, err
	}
	return rec, nil
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within timeout.
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
