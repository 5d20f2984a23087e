// Package tileboard provides a self-hosted widget dashboard: health probes,
// TCP checks, RSS feeds and weather forecasts polled in the background and
// pushed to the browser as they change.
//
// # Quick Start
//
//	api, _ := tileboard.NewHealthWidget("api", "https://api.example.com/health")
//	news, _ := tileboard.NewRSSWidget("news", "https://go.dev/blog/feed.atom", tileboard.WithLimit(5))
//	home, _ := tileboard.NewWeatherWidget("home", "Berlin")
//
//	b, _ := tileboard.New(tileboard.WithWidgets(api, news, home))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Start(ctx) // blocks until context is cancelled
//
// # Widgets
//
// Every widget is backed by one polling task with id "{type}-{id}". Tasks
// run on their own interval, never overlap with themselves, and back off
// linearly after failures; after three consecutive failures a task stops
// and must be restarted through the API. Widgets that poll the same
// resource share a cadence.
//
// Health and tcp widgets classify each probe as healthy, degraded or
// unhealthy by latency and keep the last 100 results. RSS and weather
// widgets read through TTL caches (15 minutes for feeds, 10 minutes for
// forecasts, an hour for geocoding), so polling more often than the TTL
// does not add upstream traffic.
//
// Health widgets can also be generated in bulk with [NewHealthGrid].
//
// # HTTP API
//
// The dashboard is served at "/" and the API under "/api": task control
// (/api/tasks), widget registration (/api/widgets), ad-hoc checks
// (/api/checks), probe history (/api/history), direct content lookups
// (/api/rss, /api/weather, /api/geocode) and a Server-Sent Events stream
// of widget updates (/api/sse).
//
// # Architecture
//
// The internal packages are not part of the public API:
//
//   - internal/scheduler: interval task scheduler with dedupe groups
//   - internal/cache: TTL caches with LRU bounds and a cron sweeper
//   - internal/health: HTTP and TCP probes, history and monitors
//   - internal/feeds, internal/weather: cached upstream clients
//   - internal/widget: maps widgets onto scheduler tasks
//   - internal/store: latest results with pub/sub for SSE
//   - internal/server: chi router, REST API and SSE
package tileboard
