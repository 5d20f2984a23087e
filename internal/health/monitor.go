package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/tileboard/internal/scheduler"
)

// Monitor polls checks on a fixed interval and records every result into a
// [History]. It runs on the shared [scheduler.Scheduler]: the first probe
// happens immediately and, because a completed probe is always a successful
// execution, polling never backs off.
type Monitor struct {
	scheduler *scheduler.Scheduler
	checker   *Checker
	history   *History
	logger    *slog.Logger
}

// NewMonitor creates a [Monitor].
func NewMonitor(s *scheduler.Scheduler, checker *Checker, history *History, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		scheduler: s,
		checker:   checker,
		history:   history,
		logger:    logger,
	}
}

// StartPolling probes check every interval, recording results under target.
// Polling an already polled target replaces its check. onResult, if not nil,
// is called with every stored entry.
func (m *Monitor) StartPolling(target string, check Check, interval time.Duration, onResult func(HistoryEntry)) error {
	if err := check.Validate(); err != nil {
		return err
	}

	_, err := m.scheduler.ScheduleTask(scheduler.Definition{
		ID:             pollTaskID(target),
		Type:           scheduler.TypeHealthCheck,
		Interval:       interval,
		RunImmediately: true,
		Execute: func(ctx context.Context) (scheduler.Result, error) {
			return scheduler.Result{Success: true, Data: m.checker.Perform(ctx, check)}, nil
		},
		OnResult: func(r scheduler.Result) {
			result, ok := r.Data.(Result)
			if !ok {
				return
			}
			entry := m.history.Add(target, result)
			if onResult != nil {
				onResult(entry)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling %s: %w", target, err)
	}

	m.logger.Info("polling started", "target", target, "interval", interval.String())
	return nil
}

// StopPolling stops polling target. Its history is kept. Returns false if
// target was not being polled.
func (m *Monitor) StopPolling(target string) bool {
	return m.scheduler.StopTask(pollTaskID(target))
}

// IsPolling reports whether target is being polled.
func (m *Monitor) IsPolling(target string) bool {
	_, ok := m.scheduler.TaskState(pollTaskID(target))
	return ok
}

func pollTaskID(target string) string {
	return "poll-" + target
}
