// Package api provides the HTTP REST API server for form13f.
//
// It exposes the normalized 13F views (snapshots, change lists, style
// profiles and the cross-institution heatmap) as JSON, plus health and
// Prometheus metrics endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/form13f/internal/config"
	"github.com/seenimoa/form13f/internal/corpus"
)

// Version is reported by /health; the CLI overrides it at startup.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	corpus *corpus.Corpus
	cache  *cache.Cache
	log    *logrus.Logger
}

// NewServer creates a configured API server over a frozen corpus.
func NewServer(cfg *config.Config, c *corpus.Corpus, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ttl := cfg.API.CacheDuration()
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	srv := &Server{
		cfg:    cfg,
		corpus: c,
		cache:  cache.New(ttl, 10*time.Minute),
		log:    log,
	}
	CorpusManagersGauge.Set(float64(len(c.Managers())))
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/info", s.handleInfo)
		r.Get("/resolve", s.handleResolve)

		// Managers
		r.Get("/managers", s.handleManagers)
		r.Route("/managers/{id}", func(r chi.Router) {
			r.Get("/", s.handleManager)
			r.Get("/snapshots/latest", s.handleLatest)
			r.Get("/snapshots/{quarter}", s.handleSnapshot)
			r.Get("/changes/{quarter}", s.handleChanges)
			r.Get("/style/{quarter}", s.handleStyle)
		})

		// Cross-institution views
		r.Get("/heatmap", s.handleHeatmap)
		r.Get("/style/benchmark", s.handleBenchmark)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// --- Response types ---

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Unavailable is the payload for a known manager without data for the
// requested quarter.
type Unavailable struct {
	Available bool   `json:"available"`
	ManagerID string `json:"managerId"`
	Quarter   string `json:"quarter,omitempty"`
}

// ResolveResponse reports the outcome of one ad-hoc resolution.
type ResolveResponse struct {
	Code   string `json:"code,omitempty"`
	Ticker string `json:"ticker"`
	Issuer string `json:"issuer,omitempty"`
	Rule   string `json:"rule"`
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":   "ok",
			"version":  Version,
			"managers": len(s.corpus.Managers()),
			"time_utc": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.corpus.Info()})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, ticker, issuer := q.Get("code"), q.Get("ticker"), q.Get("issuer")
	if code == "" && ticker == "" && issuer == "" {
		writeError(w, http.StatusBadRequest, "one of code, ticker or issuer is required")
		return
	}
	res := s.corpus.Resolver().Resolve(code, ticker, issuer)
	rule := string(res.Rule)
	if !res.Resolved() {
		rule = "unresolved"
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    ResolveResponse{Code: code, Ticker: res.Ticker, Issuer: issuer, Rule: rule},
	})
}

func (s *Server) handleManagers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.corpus.Managers()})
}

func (s *Server) handleManager(w http.ResponseWriter, r *http.Request) {
	m, err := s.corpus.Manager(chi.URLParam(r, "id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: m})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.serveView(w, "latest", id, "", func() (any, bool, error) {
		return s.corpus.Latest(id)
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, quarter := chi.URLParam(r, "id"), chi.URLParam(r, "quarter")
	s.serveView(w, "snapshot", id, quarter, func() (any, bool, error) {
		return s.corpus.Snapshot(id, quarter)
	})
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	id, quarter := chi.URLParam(r, "id"), chi.URLParam(r, "quarter")
	s.serveView(w, "changes", id, quarter, func() (any, bool, error) {
		return s.corpus.Changes(id, quarter)
	})
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	id, quarter := chi.URLParam(r, "id"), chi.URLParam(r, "quarter")
	s.serveView(w, "style", id, quarter, func() (any, bool, error) {
		return s.corpus.Style(id, quarter)
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	v, _, _ := s.cached("heatmap", "heatmap", func() (any, bool, error) {
		return s.corpus.Heatmap(), true, nil
	})
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: v})
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"benchmark": s.corpus.Benchmark(),
			"radar":     s.corpus.Radar(),
			"scaled":    s.corpus.Radar().Scale(s.corpus.Benchmark()),
		},
	})
}

// serveView answers a per-manager view: 404 for an unknown manager, and
// 200 with Unavailable when the manager has no data for the quarter.
func (s *Server) serveView(w http.ResponseWriter, view, id, quarter string, compute func() (any, bool, error)) {
	v, ok, err := s.cached(view, view+":"+id+":"+quarter, compute)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data:    Unavailable{Available: false, ManagerID: id, Quarter: quarter},
		})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: v})
}

type cachedView struct {
	value any
	ok    bool
}

// cached memoizes a view. Views are pure functions of the frozen corpus,
// so any successful result can be reused; errors are not cached.
func (s *Server) cached(view, key string, compute func() (any, bool, error)) (any, bool, error) {
	if hit, found := s.cache.Get(key); found {
		ViewCacheTotal.WithLabelValues(view, "hit").Inc()
		cv := hit.(cachedView)
		return cv.value, cv.ok, nil
	}
	ViewCacheTotal.WithLabelValues(view, "miss").Inc()
	v, ok, err := compute()
	if err != nil {
		return nil, false, err
	}
	s.cache.SetDefault(key, cachedView{value: v, ok: ok})
	return v, ok, nil
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, corpus.ErrManagerNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.WithError(err).Error("view failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   message,
	})
}
