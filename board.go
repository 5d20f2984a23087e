package tileboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/tileboard/dashboard"
	"github.com/jpalmerr/tileboard/internal/cache"
	"github.com/jpalmerr/tileboard/internal/feeds"
	"github.com/jpalmerr/tileboard/internal/health"
	"github.com/jpalmerr/tileboard/internal/scheduler"
	"github.com/jpalmerr/tileboard/internal/server"
	"github.com/jpalmerr/tileboard/internal/store"
	"github.com/jpalmerr/tileboard/internal/weather"
	"github.com/jpalmerr/tileboard/internal/widget"
)

const (
	defaultPort     = 8080
	shutdownTimeout = 10 * time.Second
)

// Board is the main orchestrator: it polls widgets in the background,
// caches their content and serves the dashboard and its API.
//
// The typical lifecycle is:
//
//	b, err := tileboard.New(tileboard.WithWidgets(widgets...))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	b.Start(ctx) // blocks until context cancelled
type Board struct {
	title           string
	widgets         []Widget
	port            int
	logger          *slog.Logger
	sweepSchedule   string
	cacheSize       int
	resultCallbacks []func(Update)
}

// New creates a [Board] with the given options.
//
// A board may start empty: widgets can be added at runtime through
// POST /api/widgets. Widget task ids must be unique.
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		port:          defaultPort,
		sweepSchedule: cache.DefaultSweepSchedule,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(cfg.widgets))
	for _, w := range cfg.widgets {
		if w.spec.ID == "" {
			return nil, errors.New("widget must be created with a constructor such as NewHealthWidget")
		}
		if seen[w.TaskID()] {
			return nil, fmt.Errorf("duplicate widget: %q", w.TaskID())
		}
		seen[w.TaskID()] = true
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		title:           cfg.title,
		widgets:         cfg.widgets,
		port:            cfg.port,
		logger:          logger,
		sweepSchedule:   cfg.sweepSchedule,
		cacheSize:       cfg.cacheSize,
		resultCallbacks: cfg.resultCallbacks,
	}, nil
}

// Start begins polling widgets and serving the dashboard.
//
// Start is a blocking call that runs until ctx is cancelled. Every
// configured widget is polled immediately, then on its interval. Cache
// sweeps run on the configured schedule.
//
// Returns nil on graceful shutdown. Returns an error if a widget cannot be
// scheduled or the HTTP server fails to start.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("tileboard starting", "widget_count", len(b.widgets))
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	if ctx.Err() != nil {
		return nil
	}

	var results store.Store = store.NewMemoryStore()
	if len(b.resultCallbacks) > 0 {
		results = &callbackStore{Store: results, callbacks: b.resultCallbacks, logger: b.logger}
	}

	sched := scheduler.New(b.logger)
	checker := health.NewChecker(b.logger)
	history := health.NewHistory(health.MaxHistoryEntries)
	feedClient := feeds.NewClient(feeds.NewCache(b.cacheSize), b.logger)
	weatherConfig := weather.Config{
		ForecastCache: weather.NewForecastCache(b.cacheSize),
		GeocodeCache:  weather.NewGeocodeCache(b.cacheSize),
	}
	weatherClient := weather.NewClient(weatherConfig, b.logger)

	manager := widget.NewManager(widget.Deps{
		Scheduler: sched,
		Checker:   checker,
		History:   history,
		Feeds:     feedClient,
		Weather:   weatherClient,
		Store:     results,
	}, b.logger)

	caches := append([]cache.Sweepable{feedClient.Cache()}, weatherClient.Caches()...)
	sweeper, err := cache.NewSweeper(b.sweepSchedule, b.logger, caches...)
	if err != nil {
		return err
	}
	sweeper.Start()

	cleanup := func() {
		sweeper.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sched.Shutdown(shutdownCtx); err != nil {
			b.logger.Warn("polling tasks did not finish before shutdown", "error", err)
		}
		checker.Close()
	}

	for _, w := range b.widgets {
		spec := w.spec
		spec.RunImmediately = true
		if _, err := manager.Start(spec); err != nil {
			cleanup()
			return fmt.Errorf("failed to start widget %s: %w", w.TaskID(), err)
		}
	}

	httpServer := server.NewServer(server.Deps{
		Store:     results,
		Scheduler: sched,
		Widgets:   manager,
		Checker:   checker,
		History:   history,
		Feeds:     feedClient,
		Weather:   weatherClient,
	}, b.port, dashboard.Assets, b.title, b.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	b.logger.Info("tileboard stopped")
	return nil
}

// Widgets returns a copy of the configured widgets. Widgets added at
// runtime through the API are not included.
func (b *Board) Widgets() []Widget {
	cp := make([]Widget, len(b.widgets))
	copy(cp, b.widgets)
	return cp
}

// Port returns the configured HTTP port.
func (b *Board) Port() int {
	return b.port
}

// callbackStore invokes result callbacks after each update is stored.
type callbackStore struct {
	store.Store
	callbacks []func(Update)
	logger    *slog.Logger
}

func (s *callbackStore) Update(u store.WidgetUpdate) {
	s.Store.Update(u)

	update := updateFromStore(u)
	for _, cb := range s.callbacks {
		invokeCallbackSafe(cb, update, s.logger)
	}
}

// invokeCallbackSafe calls a result callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Update), update Update, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("result callback panicked",
				"panic", r,
				"task_id", update.TaskID,
			)
		}
	}()
	cb(update)
}
