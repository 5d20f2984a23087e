package tileboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jpalmerr/tileboard/internal/feeds"
	"github.com/jpalmerr/tileboard/internal/weather"
	"github.com/jpalmerr/tileboard/internal/widget"
)

// MaxFeedItems is the largest value accepted by [WithLimit].
const MaxFeedItems = feeds.MaxLimit

// widgetConfig holds mutable state during widget construction.
type widgetConfig struct {
	typ                 widget.Type
	name                string
	interval            time.Duration
	method              string
	headers             map[string]string
	body                string
	timeout             time.Duration
	acceptedStatusCodes []int
	limit               int
	units               Units
	days                int
}

// WidgetOption configures a [Widget] during construction.
//
// Options that do not apply to the widget's type return an error, so
// WithLimit on a health widget fails rather than being ignored.
type WidgetOption func(*widgetConfig) error

// appliesTo returns an error unless cfg builds one of types.
func (cfg *widgetConfig) appliesTo(option string, types ...widget.Type) error {
	for _, t := range types {
		if cfg.typ == t {
			return nil
		}
	}
	return fmt.Errorf("%s does not apply to %s widgets", option, cfg.typ)
}

// WithName sets the display name. Defaults to the widget id.
func WithName(name string) WidgetOption {
	return func(cfg *widgetConfig) error {
		if strings.TrimSpace(name) == "" {
			return errors.New("name cannot be empty")
		}
		cfg.name = name
		return nil
	}
}

// WithInterval sets how often the widget is polled.
//
// The interval is measured from when a poll finishes, so slow upstreams
// never overlap. Failed polls back off linearly and a widget stops after
// three consecutive failures; see the tasks API for restarting it.
//
// Returns an error if the interval is under 1 second.
func WithInterval(d time.Duration) WidgetOption {
	return func(cfg *widgetConfig) error {
		if d < time.Second {
			return errors.New("interval must be at least 1 second")
		}
		cfg.interval = d
		return nil
	}
}

// WithMethod sets the HTTP method of a health probe. Defaults to GET.
func WithMethod(method string) WidgetOption {
	return func(cfg *widgetConfig) error {
		if err := cfg.appliesTo("WithMethod", widget.TypeHealth); err != nil {
			return err
		}
		cfg.method = strings.ToUpper(method)
		return nil
	}
}

// WithHeaders adds request headers to a health probe.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	w, err := tileboard.NewHealthWidget("api", url,
//	    tileboard.WithHeaders("Authorization", "Bearer token123"),
//	)
func WithHeaders(keyValues ...string) WidgetOption {
	return func(cfg *widgetConfig) error {
		if err := cfg.appliesTo("WithHeaders", widget.TypeHealth); err != nil {
			return err
		}
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		if cfg.headers == nil {
			cfg.headers = make(map[string]string, len(keyValues)/2)
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithBody sets the request body of a health probe. GET and HEAD probes
// with a body are rejected when the widget is built.
func WithBody(body string) WidgetOption {
	return func(cfg *widgetConfig) error {
		if err := cfg.appliesTo("WithBody", widget.TypeHealth); err != nil {
			return err
		}
		cfg.body = body
		return nil
	}
}

// WithTimeout sets the probe timeout of a health or tcp widget, between
// 1 and 20 seconds. Defaults to 5 seconds.
func WithTimeout(d time.Duration) WidgetOption {
	return func(cfg *widgetConfig) error {
		if err := cfg.appliesTo("WithTimeout", widget.TypeHealth, widget.TypeTCP); err != nil {
			return err
		}
		cfg.timeout = d
		return nil
	}
}

// WithAcceptedStatusCodes sets the response codes a health probe treats as
// reachable. Defaults to 200, 201, 202, 204, 301, 302 and 304.
func WithAcceptedStatusCodes(codes ...int) WidgetOption {
	return func(cfg *widgetConfig) error {
		if err := cfg.appliesTo("WithAcceptedStatusCodes", widget.TypeHealth); err != nil {
			return err
		}
		if len(codes) == 0 {
			return errors.New("at least one status code required")
		}
		cfg.acceptedStatusCodes = append([]int(nil), codes...)
		return nil
	}
}

// WithLimit caps the number of items an rss widget keeps, from 1 to
// [MaxFeedItems]. Defaults to 10.
func WithLimit(n int) WidgetOption {
	return func(cfg *widgetConfig) error {
		if err := cfg.appliesTo("WithLimit", widget.TypeRSS); err != nil {
			return err
		}
		if n < 1 || n > MaxFeedItems {
			return fmt.Errorf("limit must be between 1 and %d", MaxFeedItems)
		}
		cfg.limit = n
		return nil
	}
}

// WithUnits selects [Metric] or [Imperial] readings for a weather widget.
func WithUnits(u Units) WidgetOption {
	return func(cfg *widgetConfig) error {
		if err := cfg.appliesTo("WithUnits", widget.TypeWeather); err != nil {
			return err
		}
		if !u.Valid() {
			return fmt.Errorf("units must be %q or %q", Metric, Imperial)
		}
		cfg.units = u
		return nil
	}
}

// WithDays sets how many forecast days a weather widget shows, from 1 to 16.
// Defaults to 3.
func WithDays(n int) WidgetOption {
	return func(cfg *widgetConfig) error {
		if err := cfg.appliesTo("WithDays", widget.TypeWeather); err != nil {
			return err
		}
		if n < 1 || n > weather.MaxDays {
			return fmt.Errorf("days must be between 1 and %d", weather.MaxDays)
		}
		cfg.days = n
		return nil
	}
}
