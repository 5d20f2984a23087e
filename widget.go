package tileboard

import (
	"errors"
	"time"

	"github.com/jpalmerr/tileboard/internal/health"
	"github.com/jpalmerr/tileboard/internal/weather"
	"github.com/jpalmerr/tileboard/internal/widget"
)

// WidgetType identifies what a widget polls.
type WidgetType string

const (
	// WidgetHealth probes an HTTP endpoint.
	WidgetHealth WidgetType = WidgetType(widget.TypeHealth)

	// WidgetTCP probes a TCP port.
	WidgetTCP WidgetType = WidgetType(widget.TypeTCP)

	// WidgetRSS fetches an RSS or Atom feed.
	WidgetRSS WidgetType = WidgetType(widget.TypeRSS)

	// WidgetWeather fetches a forecast from Open-Meteo.
	WidgetWeather WidgetType = WidgetType(widget.TypeWeather)
)

// Units selects metric or imperial weather readings.
type Units = weather.Units

const (
	Metric   = weather.UnitsMetric
	Imperial = weather.UnitsImperial
)

// Widget is one dashboard tile backed by a background polling task.
//
// Widget is immutable after creation. Use [NewHealthWidget], [NewTCPWidget],
// [NewRSSWidget], [NewWeatherWidget] or [NewWeatherWidgetAt] to build one,
// and [WidgetOption] functions such as [WithName] and [WithInterval] to
// configure it.
type Widget struct {
	spec widget.Spec
}

// ID returns the widget's id, unique within its type.
func (w Widget) ID() string {
	return w.spec.ID
}

// Name returns the display name. Defaults to the id.
func (w Widget) Name() string {
	if w.spec.Name == "" {
		return w.spec.ID
	}
	return w.spec.Name
}

// Type returns the widget's kind.
func (w Widget) Type() WidgetType {
	return WidgetType(w.spec.Type)
}

// TaskID returns the id of the widget's polling task, "{type}-{id}".
// Results and API routes are keyed by it.
func (w Widget) TaskID() string {
	return w.spec.TaskID()
}

// Interval returns the configured polling interval. Zero means the type's
// default: 30s for health and tcp, 15m for rss, 10m for weather.
func (w Widget) Interval() time.Duration {
	return w.spec.Interval
}

// NewHealthWidget creates a widget that probes rawURL over HTTP.
//
// Example:
//
//	w, err := tileboard.NewHealthWidget("api", "https://api.example.com/health",
//	    tileboard.WithName("Public API"),
//	    tileboard.WithAcceptedStatusCodes(200, 204),
//	)
func NewHealthWidget(id, rawURL string, opts ...WidgetOption) (Widget, error) {
	return newWidget(widget.TypeHealth, id, opts, func(cfg *widgetConfig, s *widget.Spec) {
		s.HTTP = &health.HTTPCheck{
			URL:                 rawURL,
			Method:              cfg.method,
			Headers:             cfg.headers,
			Body:                cfg.body,
			Timeout:             cfg.timeout,
			AcceptedStatusCodes: cfg.acceptedStatusCodes,
		}
	})
}

// NewTCPWidget creates a widget that opens a connection to host:port.
func NewTCPWidget(id, host string, port int, opts ...WidgetOption) (Widget, error) {
	return newWidget(widget.TypeTCP, id, opts, func(cfg *widgetConfig, s *widget.Spec) {
		s.TCP = &health.TCPCheck{Host: host, Port: port, Timeout: cfg.timeout}
	})
}

// NewRSSWidget creates a widget that shows the newest items of an RSS or
// Atom feed. [WithLimit] caps the item count (default 10, max 50).
func NewRSSWidget(id, feedURL string, opts ...WidgetOption) (Widget, error) {
	return newWidget(widget.TypeRSS, id, opts, func(cfg *widgetConfig, s *widget.Spec) {
		s.Feed = &widget.Feed{URL: feedURL, Limit: cfg.limit}
	})
}

// NewWeatherWidget creates a forecast widget for a named place, resolved
// through geocoding on every poll (results are cached for an hour).
func NewWeatherWidget(id, location string, opts ...WidgetOption) (Widget, error) {
	if location == "" {
		return Widget{}, errors.New("location cannot be empty")
	}
	return newWidget(widget.TypeWeather, id, opts, func(cfg *widgetConfig, s *widget.Spec) {
		s.Weather = &widget.Weather{Location: location, Units: cfg.units, Days: cfg.days}
	})
}

// NewWeatherWidgetAt creates a forecast widget for fixed coordinates.
func NewWeatherWidgetAt(id string, latitude, longitude float64, opts ...WidgetOption) (Widget, error) {
	return newWidget(widget.TypeWeather, id, opts, func(cfg *widgetConfig, s *widget.Spec) {
		s.Weather = &widget.Weather{
			Latitude:  latitude,
			Longitude: longitude,
			Units:     cfg.units,
			Days:      cfg.days,
		}
	})
}

func newWidget(typ widget.Type, id string, opts []WidgetOption, build func(*widgetConfig, *widget.Spec)) (Widget, error) {
	cfg := &widgetConfig{typ: typ}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Widget{}, err
		}
	}

	spec := widget.Spec{
		ID:       id,
		Name:     cfg.name,
		Type:     typ,
		Interval: cfg.interval,
	}
	build(cfg, &spec)

	if err := spec.Validate(); err != nil {
		return Widget{}, err
	}
	return Widget{spec: spec}, nil
}
