// Package httpapi serves a dispatcher as JSON over HTTP for local
// automation that does not speak MCP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mwiater/toolhost/internal/dispatch"
	"github.com/mwiater/toolhost/internal/logging"
	"github.com/mwiater/toolhost/internal/telemetry"
)

// DefaultRequestTimeout bounds one HTTP request when Config.Timeout is zero.
const DefaultRequestTimeout = 60 * time.Second

const shutdownGrace = 5 * time.Second

// Config configures the HTTP shell.
type Config struct {
	Addr string
	// Token, when set, is required as a bearer token on /mcp routes.
	Token   string
	Timeout time.Duration
}

// StatsFunc reports per-tool invocation statistics.
type StatsFunc func(ctx context.Context) ([]telemetry.ToolStats, error)

// Server holds the router and its collaborators.
type Server struct {
	cfg        Config
	router     *chi.Mux
	dispatcher *dispatch.Dispatcher
	stats      StatsFunc
}

// CallRequest is the body of POST /mcp/call.
type CallRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// CallResponse is the envelope returned for every call.
type CallResponse struct {
	Content []dispatch.Content `json:"content"`
	IsError bool               `json:"isError"`
	Error   *dispatch.Error    `json:"error,omitempty"`
}

// New builds the router. stats may be nil, in which case /mcp/stats is not mounted.
func New(cfg Config, d *dispatch.Dispatcher, stats StatsFunc) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	s := &Server{
		cfg:        cfg,
		router:     chi.NewRouter(),
		dispatcher: d,
		stats:      stats,
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Default(), NoColor: true}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(cfg.Timeout))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/mcp", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/tools", s.handleListTools)
		r.Post("/call", s.handleCall)
		if s.stats != nil {
			r.Get("/stats", s.handleStats)
		}
	})
	return s
}

// Router exposes the root handler.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe listens on cfg.Addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("http: listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logging.LogEvent("http: stopped")
		return nil
	}
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.cfg.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tools": len(s.dispatcher.Tools())})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.dispatcher.Tools()})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		res := dispatch.Failure(dispatch.KindInvalidArguments, "invalid json: "+err.Error())
		writeJSON(w, http.StatusBadRequest, envelope(res))
		return
	}

	res := s.dispatcher.Handle(r.Context(), dispatch.Request{
		ID:        middleware.GetReqID(r.Context()),
		Tool:      req.Name,
		Arguments: req.Arguments,
	})
	writeJSON(w, statusFor(res), envelope(res))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": stats})
}

// statusFor maps dispatcher-level rejections to HTTP errors. Tool-level
// failures are still a successful HTTP exchange carrying isError.
func statusFor(res dispatch.Result) int {
	if res.Err == nil {
		return http.StatusOK
	}
	switch res.Err.Kind {
	case dispatch.KindToolNotFound:
		return http.StatusNotFound
	case dispatch.KindInvalidArguments:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}

func envelope(res dispatch.Result) CallResponse {
	return CallResponse{Content: res.Blocks(), IsError: res.IsError(), Error: res.Err}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
