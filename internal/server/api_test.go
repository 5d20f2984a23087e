package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestAPI_WidgetLifecycle(t *testing.T) {
	srv, deps, upstream := newTestServer(t)
	h := srv.Handler()

	body := `{"id": "api", "name": "API", "type": "health", "interval": "1h",
		"http": {"url": "` + upstream.URL + `/health", "timeout": "2s"}}`
	rec := do(t, h, http.MethodPost, "/api/widgets", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/widgets status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]any](t, rec)
	if created["task_id"] != "health-api" {
		t.Fatalf("task_id = %v, want health-api", created["task_id"])
	}

	rec = do(t, h, http.MethodGet, "/api/tasks", "")
	if tasks := decode[[]map[string]any](t, rec); len(tasks) != 1 || tasks[0]["interval_ms"] != float64(3600000) {
		t.Errorf("GET /api/tasks = %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/tasks/health-api/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d: %s", rec.Code, rec.Body.String())
	}
	state := decode[map[string]any](t, rec)
	if state["status"] != "pending" || state["last_result"] == nil {
		t.Errorf("state after run = %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/widgets", "")
	if updates := decode[[]map[string]any](t, rec); len(updates) != 1 || updates[0]["name"] != "API" {
		t.Errorf("GET /api/widgets = %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/history/health-api", "")
	if entries := decode[[]map[string]any](t, rec); len(entries) != 1 {
		t.Errorf("history = %s, want one entry", rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/tasks/health-api/pause", "")
	if decode[map[string]any](t, rec)["status"] != "paused" {
		t.Errorf("pause = %s", rec.Body.String())
	}
	rec = do(t, h, http.MethodPost, "/api/tasks/health-api/resume", "")
	if decode[map[string]any](t, rec)["status"] != "pending" {
		t.Errorf("resume = %s", rec.Body.String())
	}
	rec = do(t, h, http.MethodPost, "/api/tasks/health-api/restart", "")
	if rec.Code != http.StatusOK {
		t.Errorf("restart status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/api/tasks/health-api", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	if rec = do(t, h, http.MethodGet, "/api/tasks/health-api", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", rec.Code)
	}
	if len(deps.Store.GetAll()) != 0 {
		t.Error("stopping a widget should drop its latest update")
	}
}

func TestAPI_CreateWidgetRejectsBadInput(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"id":`},
		{"unknown field", `{"id": "x", "type": "rss", "colour": "red"}`},
		{"bad interval", `{"id": "x", "type": "rss", "interval": "soon", "rss": {"url": "https://example.com/feed"}}`},
		{"missing check", `{"id": "x", "type": "health"}`},
		{"get with body", `{"id": "x", "type": "health", "http": {"url": "https://example.com", "body": "x"}}`},
		{"tcp port out of range", `{"id": "x", "type": "tcp", "tcp": {"host": "db", "port": 70000}}`},
		{"unknown type", `{"id": "x", "type": "calendar"}`},
		{"short location", `{"id": "x", "type": "weather", "weather": {"location": "L"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/widgets", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if decode[errorResponse](t, rec).Error == "" {
				t.Error("error response should carry a message")
			}
		})
	}
}

func TestAPI_UnknownTask(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	requests := []struct{ method, path string }{
		{http.MethodGet, "/api/tasks/nope"},
		{http.MethodDelete, "/api/tasks/nope"},
		{http.MethodPost, "/api/tasks/nope/pause"},
		{http.MethodPost, "/api/tasks/nope/resume"},
		{http.MethodPost, "/api/tasks/nope/run"},
		{http.MethodPost, "/api/tasks/nope/restart"},
	}
	for _, r := range requests {
		if rec := do(t, h, r.method, r.path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", r.method, r.path, rec.Code)
		}
	}
}

func TestAPI_ListTasksFilters(t *testing.T) {
	srv, _, upstream := newTestServer(t)
	h := srv.Handler()

	for _, body := range []string{
		`{"id": "api", "type": "health", "http": {"url": "` + upstream.URL + `/health"}}`,
		`{"id": "news", "type": "rss", "rss": {"url": "` + upstream.URL + `/feed.xml"}}`,
	} {
		if rec := do(t, h, http.MethodPost, "/api/widgets", body); rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
		}
	}
	do(t, h, http.MethodPost, "/api/tasks/rss-news/pause", "")

	rec := do(t, h, http.MethodGet, "/api/tasks?type=rss", "")
	if tasks := decode[[]map[string]any](t, rec); len(tasks) != 1 || tasks[0]["id"] != "rss-news" {
		t.Errorf("?type=rss = %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/tasks?type=health-check", "")
	if tasks := decode[[]map[string]any](t, rec); len(tasks) != 1 || tasks[0]["id"] != "health-api" {
		t.Errorf("?type=health-check = %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/tasks?type=weather", "")
	if rec.Body.String() != "[]\n" {
		t.Errorf("?type=weather = %q, want empty list", rec.Body.String())
	}

	// paused tasks are still active; only stopped tasks are excluded
	rec = do(t, h, http.MethodGet, "/api/tasks?active=true", "")
	if tasks := decode[[]map[string]any](t, rec); len(tasks) != 2 {
		t.Errorf("?active=true = %s, want both tasks", rec.Body.String())
	}

	if rec = do(t, h, http.MethodGet, "/api/tasks?type=bogus", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("?type=bogus status = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/stats", "")
	stats := decode[statsResponse](t, rec)
	if stats.Scheduler.Total != 2 || stats.Scheduler.ByStatus["paused"] != 1 {
		t.Errorf("stats = %+v", stats.Scheduler)
	}
	if len(stats.Caches) != 3 {
		t.Errorf("caches = %+v, want rss, weather and geocode", stats.Caches)
	}
}

func TestAPI_AdHocCheck(t *testing.T) {
	srv, deps, upstream := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/checks", `{"http": {"url": "`+upstream.URL+`/health"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	result := decode[map[string]any](t, rec)
	if result["status"] != "healthy" && result["status"] != "degraded" {
		t.Errorf("result = %s", rec.Body.String())
	}
	if result["status_code"] != float64(200) {
		t.Errorf("status_code = %v, want 200", result["status_code"])
	}

	rec = do(t, h, http.MethodPost, "/api/checks", `{"type": "http", "target": "adhoc", "http": {"url": "`+upstream.URL+`/health"}}`)
	if decode[map[string]any](t, rec)["id"] == nil {
		t.Errorf("recorded check should return a history entry: %s", rec.Body.String())
	}
	if len(deps.History.Get("adhoc")) != 1 {
		t.Error("check with target should be recorded in history")
	}

	for _, body := range []string{
		`{"type": "tcp", "http": {"url": "https://example.com"}}`,
		`{"type": "icmp"}`,
		`{}`,
		`{"http": {"url": "https://example.com", "method": "HEAD", "body": "x"}}`,
		`{"tcp": {"host": "db", "port": 0}}`,
		`{"http": {"url": "https://example.com", "timeout": "60s"}}`,
	} {
		if rec := do(t, h, http.MethodPost, "/api/checks", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestAPI_History(t *testing.T) {
	srv, _, upstream := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/history/unknown", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Errorf("unknown target = %d %q, want empty list", rec.Code, rec.Body.String())
	}

	for i := 0; i < 2; i++ {
		do(t, h, http.MethodPost, "/api/checks", `{"target": "api", "http": {"url": "`+upstream.URL+`/health"}}`)
	}

	rec = do(t, h, http.MethodGet, "/api/history/api/stats", "")
	stats := decode[map[string]any](t, rec)
	if stats["total"] != float64(2) || stats["unhealthy"] != float64(0) {
		t.Errorf("stats = %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/history", "")
	if targets := decode[[]string](t, rec); len(targets) != 1 || targets[0] != "api" {
		t.Errorf("targets = %s", rec.Body.String())
	}

	if rec = do(t, h, http.MethodDelete, "/api/history/api", ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/history/api/stats", "")
	if decode[map[string]any](t, rec)["total"] != float64(0) {
		t.Errorf("stats after clear = %s", rec.Body.String())
	}
}

func TestAPI_RSS(t *testing.T) {
	srv, _, upstream := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/rss?url="+url.QueryEscape(upstream.URL+"/feed.xml")+"&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if decode[map[string]any](t, rec)["title"] != "Upstream News" {
		t.Errorf("feed = %s", rec.Body.String())
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", http.StatusBadRequest},
		{"?url=ftp://example.com/feed", http.StatusBadRequest},
		{"?url=https://example.com/feed&limit=many", http.StatusBadRequest},
		{"?url=" + url.QueryEscape(upstream.URL+"/missing.xml"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if rec := do(t, h, http.MethodGet, "/api/rss"+tt.query, ""); rec.Code != tt.want {
			t.Errorf("/api/rss%s status = %d, want %d", tt.query, rec.Code, tt.want)
		}
	}
}

func TestAPI_WeatherAndGeocode(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/weather?lat=51.5&lon=-0.12&units=imperial&days=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if decode[map[string]any](t, rec)["units"] != "imperial" {
		t.Errorf("forecast = %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/weather?location=London", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("by location status = %d: %s", rec.Code, rec.Body.String())
	}
	if loc, ok := decode[map[string]any](t, rec)["location"].(map[string]any); !ok || loc["name"] != "London" {
		t.Errorf("forecast location = %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/geocode?q=London&count=3", "")
	if locs := decode[[]map[string]any](t, rec); len(locs) != 1 {
		t.Errorf("geocode = %s", rec.Body.String())
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/weather", http.StatusBadRequest},
		{"/api/weather?lat=abc&lon=1", http.StatusBadRequest},
		{"/api/weather?lat=100&lon=1", http.StatusBadRequest},
		{"/api/weather?lat=1&lon=1&units=kelvin", http.StatusBadRequest},
		{"/api/weather?location=Atlantis", http.StatusNotFound},
		{"/api/weather?location=L", http.StatusBadRequest},
		{"/api/geocode?q=L", http.StatusBadRequest},
		{"/api/geocode?q=London&count=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := do(t, h, http.MethodGet, tt.path, ""); rec.Code != tt.want {
			t.Errorf("%s status = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestAPI_RunTaskIgnoresClientDisconnect(t *testing.T) {
	srv, _, upstream := newTestServer(t)
	h := srv.Handler()

	body := `{"id": "news", "type": "rss", "interval": "1h", "rss": {"url": "` + upstream.URL + `/feed.xml"}}`
	if rec := do(t, h, http.MethodPost, "/api/widgets", body); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/rss-news/run", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d: %s", rec.Code, rec.Body.String())
	}
	state := decode[map[string]any](t, rec)
	if state["error_count"] != float64(0) || state["status"] != "pending" {
		t.Errorf("state after disconnected run = %s", rec.Body.String())
	}
	last, _ := state["last_result"].(map[string]any)
	if last == nil || last["success"] != true {
		t.Errorf("last_result = %v, want success", state["last_result"])
	}
}

func TestAPI_RunPausedTask(t *testing.T) {
	srv, _, upstream := newTestServer(t)
	h := srv.Handler()

	body := `{"id": "api", "type": "health", "interval": "1h", "http": {"url": "` + upstream.URL + `/health"}}`
	if rec := do(t, h, http.MethodPost, "/api/widgets", body); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	do(t, h, http.MethodPost, "/api/tasks/health-api/pause", "")

	rec := do(t, h, http.MethodPost, "/api/tasks/health-api/run", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("run paused status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "paused") {
		t.Errorf("body = %s, want paused error", rec.Body.String())
	}
}
