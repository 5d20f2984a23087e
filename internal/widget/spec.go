package widget

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/tileboard/internal/feeds"
	"github.com/jpalmerr/tileboard/internal/health"
	"github.com/jpalmerr/tileboard/internal/scheduler"
	"github.com/jpalmerr/tileboard/internal/weather"
)

// Type is a widget kind.
type Type string

const (
	TypeHealth  Type = "health"
	TypeTCP     Type = "tcp"
	TypeRSS     Type = "rss"
	TypeWeather Type = "weather"
)

// default polling intervals per widget type
const (
	DefaultHealthInterval  = 30 * time.Second
	DefaultRSSInterval     = feeds.DefaultTTL
	DefaultWeatherInterval = weather.ForecastTTL
)

// ErrInvalidSpec is returned for widget specs that fail validation.
var ErrInvalidSpec = errors.New("invalid widget")

// Feed configures an RSS widget.
type Feed struct {
	URL   string `json:"url"`
	Limit int    `json:"limit,omitempty"`
}

// Weather configures a weather widget. Either Location or the coordinates
// must be given; Location wins when both are.
type Weather struct {
	Location  string        `json:"location,omitempty"`
	Latitude  float64       `json:"latitude,omitempty"`
	Longitude float64       `json:"longitude,omitempty"`
	Units     weather.Units `json:"units,omitempty"`
	Days      int           `json:"days,omitempty"`
}

// Spec describes one widget. Exactly one of HTTP, TCP, Feed and Weather
// must be set, matching Type.
type Spec struct {
	ID       string
	Name     string
	Type     Type
	Interval time.Duration

	HTTP    *health.HTTPCheck
	TCP     *health.TCPCheck
	Feed    *Feed
	Weather *Weather

	// RunImmediately runs the first poll at registration instead of after
	// one interval.
	RunImmediately bool
}

// TaskID returns the scheduler task id for a widget.
func TaskID(typ Type, widgetID string) string {
	return string(typ) + "-" + widgetID
}

// TaskID returns the widget's scheduler task id.
func (s Spec) TaskID() string {
	return TaskID(s.Type, s.ID)
}

// Validate checks the spec's identity and its type-specific configuration.
func (s Spec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSpec)
	}
	if strings.ContainsAny(s.ID, "/ ") {
		return fmt.Errorf("%w: id %q must not contain spaces or slashes", ErrInvalidSpec, s.ID)
	}
	if s.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidSpec)
	}

	switch s.Type {
	case TypeHealth:
		if s.HTTP == nil {
			return fmt.Errorf("%w: health widget requires an http check", ErrInvalidSpec)
		}
		return s.HTTP.Validate()
	case TypeTCP:
		if s.TCP == nil {
			return fmt.Errorf("%w: tcp widget requires a tcp check", ErrInvalidSpec)
		}
		return s.TCP.Validate()
	case TypeRSS:
		if s.Feed == nil || s.Feed.URL == "" {
			return fmt.Errorf("%w: rss widget requires a feed url", ErrInvalidSpec)
		}
		u, err := url.Parse(s.Feed.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: feed url %q must be an absolute http(s) url", ErrInvalidSpec, s.Feed.URL)
		}
		if s.Feed.Limit < 0 || s.Feed.Limit > feeds.MaxLimit {
			return fmt.Errorf("%w: feed limit must be between 0 and %d", ErrInvalidSpec, feeds.MaxLimit)
		}
		return nil
	case TypeWeather:
		if s.Weather == nil {
			return fmt.Errorf("%w: weather widget requires a location or coordinates", ErrInvalidSpec)
		}
		if _, err := weather.NormalizeOptions(s.Weather.options()); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
		if s.Weather.Location != "" {
			if len([]rune(strings.TrimSpace(s.Weather.Location))) < weather.MinQueryLength {
				return fmt.Errorf("%w: %v", ErrInvalidSpec, weather.ErrQueryTooShort)
			}
			return nil
		}
		if err := weather.ValidateCoordinates(s.Weather.Latitude, s.Weather.Longitude); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
		return nil
	case "":
		return fmt.Errorf("%w: type is required", ErrInvalidSpec)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidSpec, s.Type)
	}
}

// DedupeKey canonicalises the widget's target so widgets polling the same
// resource share a key.
func (s Spec) DedupeKey() string {
	switch s.Type {
	case TypeHealth:
		if s.HTTP != nil {
			return s.HTTP.DedupeKey()
		}
	case TypeTCP:
		if s.TCP != nil {
			return s.TCP.DedupeKey()
		}
	case TypeRSS:
		if s.Feed != nil {
			return "rss:" + strings.TrimSpace(s.Feed.URL)
		}
	case TypeWeather:
		if s.Weather != nil {
			// options are validated before this is used
			opts, _ := weather.NormalizeOptions(s.Weather.options())
			if s.Weather.Location != "" {
				return fmt.Sprintf("weather:%s|%s|%d",
					strings.ToLower(strings.TrimSpace(s.Weather.Location)), opts.Units, opts.Days)
			}
			return "weather:" + weather.ForecastKey(s.Weather.Latitude, s.Weather.Longitude, opts)
		}
	}
	return ""
}

func (s Spec) interval() time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	switch s.Type {
	case TypeRSS:
		return DefaultRSSInterval
	case TypeWeather:
		return DefaultWeatherInterval
	default:
		return DefaultHealthInterval
	}
}

func (s Spec) taskType() scheduler.Type {
	switch s.Type {
	case TypeHealth, TypeTCP:
		return scheduler.TypeHealthCheck
	case TypeRSS:
		return scheduler.TypeRSS
	case TypeWeather:
		return scheduler.TypeWeather
	default:
		return scheduler.TypeCustom
	}
}

func (s Spec) displayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

func (w Weather) options() weather.Options {
	return weather.Options{Units: w.Units, Days: w.Days}
}
