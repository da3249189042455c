package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/voyagen/gonet/internal/config"
	"github.com/voyagen/gonet/internal/metrics"
	"github.com/voyagen/gonet/internal/models"
	"github.com/voyagen/gonet/internal/service"
	"github.com/voyagen/gonet/internal/store"
)

// Server holds dependencies for the HTTP API.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	ingester *service.Ingester
	auth     *service.Auth
	admin    *service.Admin
	catalog  *service.Catalog
	metrics  *metrics.Metrics // nil when metrics are disabled
	recorder metrics.Recorder
	log      zerolog.Logger
	mux      *http.ServeMux

	keepAlive time.Duration
}

// New creates a Server and registers routes. m may be nil.
func New(cfg *config.Config, s *store.Store, ing *service.Ingester, m *metrics.Metrics, log zerolog.Logger) *Server {
	srv := &Server{
		cfg:       cfg,
		store:     s,
		ingester:  ing,
		auth:      service.NewAuth(s, cfg.AdminCode, log),
		admin:     service.NewAdmin(s, log),
		catalog:   service.NewCatalog(s),
		metrics:   m,
		recorder:  metrics.Nop{},
		log:       log.With().Str("component", "http").Logger(),
		mux:       http.NewServeMux(),
		keepAlive: 25 * time.Second,
	}
	if m != nil {
		srv.recorder = m
	}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Session
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/session", s.handleSession)

	// Catalog
	s.mux.HandleFunc("GET /api/catalog", s.handleListCatalog)
	s.mux.HandleFunc("GET /api/catalog/groups", s.handleCatalogGroups)
	s.mux.HandleFunc("GET /api/catalog/export.m3u", s.handleExportM3U)
	s.mux.HandleFunc("GET /api/catalog/{id}", s.handleGetItem)
	s.mux.HandleFunc("GET /api/ticker", s.handleTicker)
	s.mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)

	// Admin
	s.mux.Handle("GET /api/admin/stats", s.requireAdmin(s.handleStats))
	s.mux.Handle("GET /api/admin/playlists", s.requireAdmin(s.handleListPlaylists))
	s.mux.Handle("POST /api/admin/playlists/upload", s.requireAdmin(s.handleUploadPlaylist))
	s.mux.Handle("POST /api/admin/playlists/sync", s.requireAdmin(s.handleSyncPlaylist))
	s.mux.Handle("GET /api/admin/users", s.requireAdmin(s.handleListUsers))
	s.mux.Handle("POST /api/admin/users", s.requireAdmin(s.handleCreateUser))
	s.mux.Handle("PUT /api/admin/ticker", s.requireAdmin(s.handleUpdateTicker))
	s.mux.Handle("POST /api/admin/notifications", s.requireAdmin(s.handleSendNotification))
	s.mux.Handle("POST /api/admin/reset", s.requireAdmin(s.handleReset))
	s.mux.Handle("GET /api/admin/backup", s.requireAdmin(s.handleBackup))
	s.mux.Handle("POST /api/admin/restore", s.requireAdmin(s.handleRestore))

	// Docs
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in its middleware chain.
func (s *Server) Handler() http.Handler {
	return withCORS(s.withLogging(s.withMetrics(s)))
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Addr()
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("server shutdown")
		}
	}()

	s.log.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.auth.Login(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			writeErr(w, http.StatusUnauthorized, err)
			return
		}
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context()); err != nil {
		s.serverError(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := s.auth.CurrentSession(r.Context())
	if sess == nil {
		writeErr(w, http.StatusUnauthorized, errors.New("not logged in"))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// requireAdmin rejects requests unless the persisted session is the administrator's.
func (s *Server) requireAdmin(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !service.IsAdmin(s.auth.CurrentSession(r.Context())) {
			writeErr(w, http.StatusForbidden, errors.New("administrator session required"))
			return
		}
		h(w, r)
	})
}

// --- helpers ---

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// parseInt reads an optional integer query parameter.
func parseInt(r *http.Request, param string) (int, error) {
	v := r.URL.Query().Get(param)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", param, v)
	}
	return n, nil
}

// parseType reads an optional media type query parameter.
func parseType(r *http.Request) (models.MediaType, error) {
	v := r.URL.Query().Get("type")
	if v == "" {
		return "", nil
	}
	t, ok := models.ParseMediaType(v)
	if !ok {
		return "", fmt.Errorf("invalid type: %s", v)
	}
	return t, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("request failed")
	writeErr(w, http.StatusInternalServerError, err)
}
