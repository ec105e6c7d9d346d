// Package server exposes persona discovery over HTTP and WebSocket: a
// small JSON API for one-shot searches, biographies, and health, plus a
// streaming endpoint that mirrors the agent's reasoning steps to connected
// clients while a search runs.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/curiolabs/curio/internal/agent"
	"github.com/curiolabs/curio/internal/data"
	"github.com/curiolabs/curio/internal/knowledge"
	"github.com/curiolabs/curio/internal/llm"
	"github.com/curiolabs/curio/internal/logging"
)

// Config holds the API server configuration.
type Config struct {
	// Addr is the listen address (default ":8080").
	Addr string

	// Version is reported by the health endpoint.
	Version string

	// ShutdownTimeout bounds graceful shutdown (default 5s).
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		Version:         "dev",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Deps are the collaborators the server needs. Store is optional: without
// it, search analytics and database health reporting are skipped. Bios
// serves both the discovery agent and the biography endpoint.
type Deps struct {
	Provider  llm.Provider
	Catalog   *knowledge.Catalog
	Bios      agent.BioFetcher
	Validator agent.ExpertiseValidator
	Store     *data.Store
}

// Server is the Curio HTTP + WebSocket API server.
type Server struct {
	cfg      *Config
	deps     Deps
	hub      *hub
	httpSrv  *http.Server
	upgrader websocket.Upgrader
	started  time.Time
	log      *logging.Logger
}

// New creates a server. The client hub starts immediately so the handler
// tree works with any listener; Shutdown stops it again.
func New(deps Deps, cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	log := logging.Global().WithComponent("server")
	s := &Server{
		cfg:  cfg,
		deps: deps,
		hub:  newHub(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from arbitrary dev origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		started: time.Now(),
		log:     log,
	}
	s.httpSrv = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.Handler(),
	}
	go s.hub.run()
	return s
}

// Handler returns the full route tree wrapped in CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/bio/{persona}", s.handleBio)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /ws/search", s.handleWS)
	return withCORS(mux)
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.log.Info("listening on %s", s.cfg.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown disconnects WebSocket clients and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.close()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

// withCORS allows any origin. The API serves local dev UIs and monitors;
// restrict this before exposing the server beyond localhost.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// APIError is the structured error body every non-2xx response carries.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string { return e.Message }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, &APIError{Code: status, Message: message, Details: details})
}
