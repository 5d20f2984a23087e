package tileboard

import (
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title           string
	widgets         []Widget
	port            int
	logger          *slog.Logger
	sweepSchedule   string
	cacheSize       int
	resultCallbacks []func(Update)
}

// Option configures a [Board] during construction.
//
// Option implements the functional options pattern; options return an
// error if validation fails.
type Option func(*boardConfig) error

// WithWidget adds a single [Widget] to the board. Can be called multiple
// times.
func WithWidget(w Widget) Option {
	return func(cfg *boardConfig) error {
		cfg.widgets = append(cfg.widgets, w)
		return nil
	}
}

// WithWidgets adds several widgets at once.
//
// Example:
//
//	grid, _ := tileboard.NewHealthGrid("api", "API", opts...)
//	b, err := tileboard.New(tileboard.WithWidgets(grid...))
func WithWidgets(widgets ...Widget) Option {
	return func(cfg *boardConfig) error {
		cfg.widgets = append(cfg.widgets, widgets...)
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard and API. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and
// header. Defaults to "TileBoard".
//
// Returns an error if the title exceeds 200 characters.
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		if len(title) > 200 {
			return errors.New("title must not exceed 200 characters")
		}
		cfg.title = title
		return nil
	}
}

// WithSweepSchedule sets the cron schedule on which expired feed and
// weather cache entries are removed. Accepts five-field cron syntax or
// descriptors such as "@every 5m", the default.
//
// Returns an error if the schedule cannot be parsed.
func WithSweepSchedule(schedule string) Option {
	return func(cfg *boardConfig) error {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return errors.New("invalid sweep schedule: " + err.Error())
		}
		cfg.sweepSchedule = schedule
		return nil
	}
}

// WithCacheSize sets the maximum number of entries in each content cache
// (feeds, forecasts, geocoding). Least recently used entries are evicted
// beyond it. Defaults to 256 for feeds and 512 for weather.
//
// Returns an error if n is zero or negative.
func WithCacheSize(n int) Option {
	return func(cfg *boardConfig) error {
		if n <= 0 {
			return errors.New("cache size must be positive")
		}
		cfg.cacheSize = n
		return nil
	}
}

// WithResultCallback registers a function called after every widget poll,
// once the result is visible through the API.
//
// Callbacks run on the polling goroutine of the widget that produced the
// update and must not block. Multiple callbacks run in registration order.
// Panics are recovered and logged.
//
// Example:
//
//	b, err := tileboard.New(
//	    tileboard.WithWidget(api),
//	    tileboard.WithResultCallback(func(u tileboard.Update) {
//	        if !u.Success {
//	            log.Printf("ALERT: %s failed: %v", u.Name, u.Err)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithResultCallback(cb func(Update)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.resultCallbacks = append(cfg.resultCallbacks, cb)
		return nil
	}
}
