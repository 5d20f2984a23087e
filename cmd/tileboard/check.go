package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jpalmerr/tileboard/internal/health"
	"github.com/jpalmerr/tileboard/internal/scheduler"
	"github.com/spf13/cobra"
)

// checkCmd runs an ad-hoc health probe without a config file.
var checkCmd = &cobra.Command{
	Use:   "check <url | host:port>",
	Short: "Probe an HTTP endpoint or TCP port",
	Long: `Probe a single target and print the result.

A target containing "://" is checked over HTTP; anything else is treated as
host:port and checked by opening a TCP connection.

With --watch the target is probed on an interval until interrupted or until
--count results have been printed, followed by a summary.

Exit codes:
  0 - Target is healthy or degraded (or watch finished)
  1 - Target is unhealthy

Example:
  tileboard check https://api.github.com
  tileboard check -X POST https://example.com/ping
  tileboard check db.internal:5432 --watch 5s --count 10`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("method", "X", "", "HTTP method (default GET)")
	checkCmd.Flags().Duration("timeout", health.DefaultTimeout, "probe timeout (1s to 20s)")
	checkCmd.Flags().Duration("watch", 0, "probe repeatedly on this interval")
	checkCmd.Flags().Int("count", 0, "stop watching after this many results (0 = until interrupted)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	method, _ := cmd.Flags().GetString("method")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	watch, _ := cmd.Flags().GetDuration("watch")
	count, _ := cmd.Flags().GetInt("count")

	check, err := parseCheckTarget(args[0], method, timeout)
	if err != nil {
		return err
	}
	if err := check.Validate(); err != nil {
		return err
	}

	logger := newLogger(slog.LevelWarn)
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watch > 0 {
		return watchCheck(ctx, out, check, watch, count, logger)
	}

	checker := health.NewChecker(logger)
	defer checker.Close()

	result := checker.Perform(ctx, check)
	printResult(out, check.Target(), result)
	if result.Status == health.StatusUnhealthy {
		return errors.New("check failed: target is unhealthy")
	}
	return nil
}

// parseCheckTarget builds an HTTP check for URLs and a TCP check for host:port.
func parseCheckTarget(target, method string, timeout time.Duration) (health.Check, error) {
	if strings.Contains(target, "://") {
		return health.HTTPCheck{
			URL:     target,
			Method:  strings.ToUpper(method),
			Timeout: timeout,
		}, nil
	}

	if method != "" {
		return nil, errors.New("--method only applies to HTTP targets")
	}
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return nil, fmt.Errorf("target must be a URL or host:port: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}
	return health.TCPCheck{Host: host, Port: port, Timeout: timeout}, nil
}

// watchCheck polls check through a health monitor and prints every result.
func watchCheck(ctx context.Context, out io.Writer, check health.Check, interval time.Duration, count int, logger *slog.Logger) error {
	sched := scheduler.New(logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sched.Shutdown(shutdownCtx)
	}()

	checker := health.NewChecker(logger)
	defer checker.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	history := health.NewHistory(0)
	monitor := health.NewMonitor(sched, checker, history, logger)

	target := check.Target()
	entries := make(chan health.HistoryEntry, 1)
	err := monitor.StartPolling(target, check, interval, func(e health.HistoryEntry) {
		select {
		case entries <- e:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}

loop:
	for n := 0; count <= 0 || n < count; n++ {
		select {
		case e := <-entries:
			printResult(out, target, e.Result)
		case <-ctx.Done():
			break loop
		}
	}
	monitor.StopPolling(target)

	stats := history.Stats(target)
	fmt.Fprintf(out, "\n%d checks: %d healthy, %d degraded, %d unhealthy, uptime %d%%, avg latency %dms\n",
		stats.Total, stats.Healthy, stats.Degraded, stats.Unhealthy, stats.UptimePercent, stats.AvgLatencyMs)
	return nil
}

func printResult(out io.Writer, target string, r health.Result) {
	latency := "-"
	if r.Latency > 0 {
		latency = r.Latency.Round(time.Millisecond).String()
	}
	line := fmt.Sprintf("%-9s %-8s %s", r.Status, latency, target)
	if r.StatusCode != 0 {
		line += fmt.Sprintf(" (HTTP %d)", r.StatusCode)
	}
	if r.Error != "" {
		line += ": " + r.Error
	}
	fmt.Fprintln(out, line)
}
