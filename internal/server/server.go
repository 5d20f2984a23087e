package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jpalmerr/tileboard/internal/feeds"
	"github.com/jpalmerr/tileboard/internal/health"
	"github.com/jpalmerr/tileboard/internal/scheduler"
	"github.com/jpalmerr/tileboard/internal/store"
	"github.com/jpalmerr/tileboard/internal/weather"
	"github.com/jpalmerr/tileboard/internal/widget"
)

const (
	// sseWriteTimeout bounds a single SSE write so that slow or vanished
	// clients cannot pin a handler goroutine. Must not exceed shutdownTimeout.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// maxRequestBody caps JSON request bodies.
	maxRequestBody = 1 << 20

	defaultTitle = "TileBoard"

	// titlePlaceholder is replaced with the escaped dashboard title.
	titlePlaceholder = "{{.Title}}"
)

// Deps are the components the API exposes.
type Deps struct {
	Store     store.Store
	Scheduler *scheduler.Scheduler
	Widgets   *widget.Manager
	Checker   *health.Checker
	History   *health.History
	Feeds     *feeds.Client
	Weather   *weather.Client
}

// Server handles HTTP requests for the dashboard and API.
type Server struct {
	deps       Deps
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server]. assets may be nil, in which case
// the dashboard page is not served. An empty title means "TileBoard".
//
// The server is not started until [Server.Start] is called.
func NewServer(deps Deps, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		deps:   deps,
		port:   port,
		assets: assets,
		title:  title,
		logger: logger,
	}
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)

	if s.assets != nil {
		r.Get("/", s.handleDashboard)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/sse", s.handleSSE)
		r.Get("/stats", s.handleStats)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Get("/{id}", s.handleGetTask)
			r.Delete("/{id}", s.handleStopTask)
			r.Post("/{id}/pause", s.handlePauseTask)
			r.Post("/{id}/resume", s.handleResumeTask)
			r.Post("/{id}/run", s.handleRunTask)
			r.Post("/{id}/restart", s.handleRestartTask)
		})

		r.Get("/widgets", s.handleListWidgets)
		r.Post("/widgets", s.handleCreateWidget)
		r.Post("/checks", s.handleCheck)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleHistoryTargets)
			r.Get("/{target}", s.handleGetHistory)
			r.Delete("/{target}", s.handleClearHistory)
			r.Get("/{target}/stats", s.handleHistoryStats)
		})

		r.Get("/rss", s.handleRSS)
		r.Get("/weather", s.handleWeather)
		r.Get("/geocode", s.handleGeocode)
	})

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start returns once the listener is bound. The server runs until ctx is
// cancelled, then shuts down gracefully.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// bind first so that port errors surface synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so that SSE handlers return on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// requestLogger logs each request at debug level with its chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}

// decodeJSON decodes a size-limited request body into v, rejecting unknown
// fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
