package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/tileboard"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockServer(":9999")
	time.Sleep(100 * time.Millisecond)

	// grid API: 2 services × 2 envs = 4 health widgets from one declaration
	widgets, err := tileboard.NewHealthGrid("api", "API",
		tileboard.WithURLTemplate("http://localhost:9999/health?svc={{.svc}}&env={{.env}}"),
		tileboard.WithDimensions(map[string][]string{
			"svc": {"users", "orders"},
			"env": {"prod", "staging"},
		}),
		tileboard.WithGridInterval(5*time.Second),
	)
	if err != nil {
		slog.Error("failed to create health grid", "error", err)
		os.Exit(1)
	}

	releases, _ := tileboard.NewRSSWidget("releases", "http://localhost:9999/feed.xml",
		tileboard.WithName("Releases"),
		tileboard.WithLimit(5),
	)
	github, _ := tileboard.NewHealthWidget("github", "https://api.github.com",
		tileboard.WithName("GitHub"),
		tileboard.WithInterval(30*time.Second),
	)
	berlin, _ := tileboard.NewWeatherWidget("berlin", "Berlin", tileboard.WithDays(3))
	widgets = append(widgets, releases, github, berlin)

	b, err := tileboard.New(
		tileboard.WithWidgets(widgets...),
		tileboard.WithTitle("TileBoard Demo"),
		tileboard.WithPort(8080),
		tileboard.WithResultCallback(func(u tileboard.Update) {
			if !u.Success {
				slog.Warn("widget update failed", "widget", u.Name, "error", u.Err)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create tileboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   TileBoard Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Widgets:                                            ║")
	fmt.Println("  ║   • 4 mock health (2 services × 2 envs via grid)      ║")
	fmt.Println("  ║   • 1 mock RSS feed                                   ║")
	fmt.Println("  ║   • GitHub (30s interval) and Berlin weather          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil {
		slog.Error("tileboard error", "error", err)
		os.Exit(1)
	}
}
