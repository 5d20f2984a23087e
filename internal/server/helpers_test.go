package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jpalmerr/tileboard/internal/feeds"
	"github.com/jpalmerr/tileboard/internal/health"
	"github.com/jpalmerr/tileboard/internal/scheduler"
	"github.com/jpalmerr/tileboard/internal/store"
	"github.com/jpalmerr/tileboard/internal/weather"
	"github.com/jpalmerr/tileboard/internal/widget"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const upstreamFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Upstream News</title>
<item><title>Story</title><link>https://example.com/story</link></item>
</channel></rss>`

const upstreamForecast = `{"latitude": 51.5, "longitude": -0.12, "timezone": "Europe/London",
"current": {"time": "2024-01-01T10:00", "temperature_2m": 8.4, "weather_code": 3},
"daily": {"time": ["2024-01-01"], "weather_code": [3], "temperature_2m_max": [9], "temperature_2m_min": [4]}}`

const upstreamGeocode = `{"results": [{"name": "London", "latitude": 51.50853, "longitude": -0.12574, "country": "United Kingdom"}]}`

// newUpstream serves health, feed and Open-Meteo endpoints for API tests.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(upstreamFeed))
	})
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(upstreamForecast))
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "Atlantis" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(upstreamGeocode))
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)
	return upstream
}

// newTestServer wires a Server against real components and a fake upstream.
func newTestServer(t *testing.T) (*Server, Deps, *httptest.Server) {
	t.Helper()
	upstream := newUpstream(t)

	sched := scheduler.New(testLogger())
	t.Cleanup(func() { _ = sched.Shutdown(context.Background()) })

	checker := health.NewChecker(testLogger())
	t.Cleanup(checker.Close)

	weatherClient := weather.NewClient(weather.Config{
		ForecastURL: upstream.URL + "/v1/forecast",
		GeocodeURL:  upstream.URL + "/v1/search",
	}, testLogger())

	deps := Deps{
		Store:     store.NewMemoryStore(),
		Scheduler: sched,
		Checker:   checker,
		History:   health.NewHistory(0),
		Feeds:     feeds.NewClient(nil, testLogger()),
		Weather:   weatherClient,
	}
	deps.Widgets = widget.NewManager(widget.Deps{
		Scheduler: deps.Scheduler,
		Checker:   deps.Checker,
		History:   deps.History,
		Feeds:     deps.Feeds,
		Weather:   deps.Weather,
		Store:     deps.Store,
	}, testLogger())

	return NewServer(deps, 0, nil, "", testLogger()), deps, upstream
}
