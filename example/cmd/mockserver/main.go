// Standalone mock server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/tileboard serve -c example/config.yaml
package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	fmt.Println("Mock server starting on :9999")
	fmt.Println("  /health?svc=&env=  alternates between 200 and 503 every minute")
	fmt.Println("  /feed.xml          serves a small RSS feed")
	fmt.Println("  tcp :9998          accepts connections")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	go listenTCP(":9998")

	started := time.Now()
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		// even minutes are up, odd minutes are down
		if int(time.Since(started).Minutes())%2 == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Mock</title>`+
			`<item><title>Mock server started</title><link>http://localhost:9999/</link><pubDate>%s</pubDate></item>`+
			`</channel></rss>`, started.Format(time.RFC1123Z))
	})

	if err := http.ListenAndServe(":9999", r); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// listenTCP accepts and immediately closes connections so tcp widgets
// have something to probe.
func listenTCP(addr string) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("tcp listener error", "error", err)
		return
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_ = conn.Close()
	}
}
