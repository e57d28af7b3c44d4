// Package livereload runs the listener that tells browsers to reload when
// theme outputs change.
//
// Browsers connect either with the LiveReload websocket protocol at
// /livereload or with server-sent events at /events. Changes are pushed
// in-process through Server.Changed, or from outside through /changed.
package livereload

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/themebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/themebuilder/internal/logfields"
	"git.home.luguber.info/inful/themebuilder/internal/metrics"
	"git.home.luguber.info/inful/themebuilder/internal/version"
)

var errUnsupportedProtocol = errors.New("client does not speak " + ProtocolV7)

// Server owns the live-reload HTTP listener.
type Server struct {
	cfg     config.LiveReloadConfig
	hub     *Hub
	handler http.Handler
	errs    *ferrors.HTTPErrorAdapter

	mu      sync.Mutex
	srv     *http.Server
	ln      net.Listener
	stopped chan struct{}
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	metricsPath    string
	metricsHandler http.Handler
}

// WithMetricsHandler mounts h at path, typically a Prometheus handler.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(o *serverOptions) {
		o.metricsPath = path
		o.metricsHandler = h
	}
}

// NewServer constructs a listener for cfg. Nothing is bound until Start.
func NewServer(cfg config.LiveReloadConfig, rec metrics.Recorder, opts ...Option) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}
	s := &Server{cfg: cfg, hub: NewHub(rec), errs: ferrors.NewHTTPErrorAdapter(slog.Default())}
	s.handler = s.routes(o)
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes(o serverOptions) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livereload", s.hub.serveWebSocket)
	mux.HandleFunc("GET /events", s.hub.serveSSE)
	mux.HandleFunc("GET /changed", s.handleChanged)
	mux.HandleFunc("POST /changed", s.handleChanged)
	mux.HandleFunc("GET /livereload.js", handleScript)
	mux.HandleFunc("GET /{$}", s.handleWelcome)
	switch {
	case o.metricsHandler == nil || o.metricsPath == "":
	case config.IsReservedPath(o.metricsPath):
		slog.Warn("Metrics path shadows a live-reload route, not mounted", logfields.Path(o.metricsPath))
	default:
		mux.Handle("GET "+o.metricsPath, o.metricsHandler)
	}
	return cors(mux)
}

// cors lets theme pages served from another origin reach the listener.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start binds the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return ferrors.ValidationError("live-reload listener already started").Build()
	}

	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryListener, "failed to bind live-reload listener").
			Fatal().
			WithContext("addr", addr).
			Build()
	}

	// Streams are long lived, so no read or write timeouts.
	s.srv = &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 300 * time.Second}
	s.ln = ln
	s.stopped = make(chan struct{})

	go func(srv *http.Server, stopped chan struct{}) {
		defer close(stopped)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Live-reload listener stopped", logfields.Error(err))
		}
	}(s.srv, s.stopped)

	slog.Info("Live-reload listener started", logfields.Addr(ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.cfg.Addr()
}

// Changed broadcasts a reload of path to every connected client.
func (s *Server) Changed(path string) {
	s.hub.Broadcast(path)
}

// Clients returns the number of connected browsers.
func (s *Server) Clients() int { return s.hub.Clients() }

// Close disconnects clients and stops the listener. It is safe to call
// on a server that was never started.
func (s *Server) Close(ctx context.Context) error {
	s.hub.Shutdown()

	s.mu.Lock()
	srv, stopped := s.srv, s.stopped
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	if err := srv.Shutdown(ctx); err != nil {
		_ = srv.Close()
		return ferrors.WrapError(err, ferrors.CategoryListener, "live-reload listener shutdown").Build()
	}
	select {
	case <-stopped:
	case <-ctx.Done():
	}
	slog.Info("Live-reload listener stopped")
	return nil
}

type changedRequest struct {
	Files []string `json:"files"`
}

// handleChanged accepts tiny-lr style triggers: ?files=a,b or a JSON body.
func (s *Server) handleChanged(w http.ResponseWriter, r *http.Request) {
	var files []string
	for _, v := range r.URL.Query()["files"] {
		files = append(files, splitFiles(v)...)
	}
	if r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req changedRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			s.errs.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid JSON body").Build())
			return
		}
		files = append(files, req.Files...)
	}

	for _, f := range files {
		s.Changed(f)
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": s.Clients(), "files": nonNil(files)})
}

func (s *Server) handleWelcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tinylr":  "Welcome",
		"server":  "themebuilder",
		"version": version.Version,
		"clients": s.Clients(),
	})
}

func splitFiles(v string) []string {
	var out []string
	for _, f := range strings.Split(v, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Live-reload response write failed", logfields.Error(err))
	}
}
