package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// mockState tracks the simulated condition and next change time for one service.
type mockState struct {
	modeIdx      int
	nextChangeAt time.Time
}

// modes cycle fast (healthy) → slow (degraded) → down (503).
var modes = []string{"fast", "slow", "down"}

// newMockRouter serves /health?svc=&env= and an RSS feed at /feed.xml.
// Each service changes condition every 20-60 seconds.
func newMockRouter() http.Handler {
	var (
		states = make(map[string]*mockState)
		mu     sync.Mutex
	)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("svc") + "-" + r.URL.Query().Get("env")

		mu.Lock()
		state, exists := states[key]
		if !exists {
			state = &mockState{nextChangeAt: nextChange()}
			states[key] = state
		}
		if time.Now().After(state.nextChangeAt) {
			old := modes[state.modeIdx]
			state.modeIdx = (state.modeIdx + 1) % len(modes)
			state.nextChangeAt = nextChange()
			slog.Info("condition change", "service", key, "from", old, "to", modes[state.modeIdx])
		}
		mode := modes[state.modeIdx]
		mu.Unlock()

		switch mode {
		case "fast":
			time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		case "slow":
			time.Sleep(time.Duration(700+rand.Intn(800)) * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	r.Get("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel>`)
		fmt.Fprint(w, `<title>Release notes</title><link>http://localhost:9999/</link>`)
		now := time.Now()
		for i := 0; i < 8; i++ {
			published := now.Add(-time.Duration(i) * 6 * time.Hour)
			fmt.Fprintf(w, `<item><title>Release v1.%d.0</title><link>http://localhost:9999/releases/%d</link><pubDate>%s</pubDate></item>`,
				20-i, 20-i, published.Format(time.RFC1123Z))
		}
		fmt.Fprint(w, `</channel></rss>`)
	})

	return r
}

func nextChange() time.Time {
	return time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
}

// StartMockServer runs the mock services on addr.
// Call this in a goroutine before creating TileBoard widgets.
func StartMockServer(addr string) {
	if err := http.ListenAndServe(addr, newMockRouter()); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
