package widget

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jpalmerr/tileboard/internal/feeds"
	"github.com/jpalmerr/tileboard/internal/health"
	"github.com/jpalmerr/tileboard/internal/scheduler"
	"github.com/jpalmerr/tileboard/internal/store"
	"github.com/jpalmerr/tileboard/internal/weather"
)

// Deps are the collaborators a [Manager] drives.
type Deps struct {
	Scheduler *scheduler.Scheduler
	Checker   *health.Checker
	History   *health.History
	Feeds     *feeds.Client
	Weather   *weather.Client
	Store     store.Store
}

// Manager registers widgets with the scheduler and publishes their results.
type Manager struct {
	deps   Deps
	logger *slog.Logger

	mu      sync.RWMutex
	widgets map[string]Spec
}

// NewManager creates a [Manager].
func NewManager(deps Deps, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		deps:    deps,
		logger:  logger,
		widgets: make(map[string]Spec),
	}
}

// Start validates spec and schedules its task, replacing any widget with the
// same task id. Returns the task id.
func (m *Manager) Start(spec Spec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	def, err := m.definition(spec)
	if err != nil {
		return "", err
	}
	id, err := m.deps.Scheduler.ScheduleTask(def)
	if err != nil {
		return "", fmt.Errorf("failed to schedule widget %s: %w", spec.ID, err)
	}

	m.mu.Lock()
	m.widgets[id] = spec
	m.mu.Unlock()

	m.logger.Info("widget started",
		"task_id", id,
		"type", spec.Type,
		"interval", spec.interval().String(),
	)
	return id, nil
}

// Stop stops the widget's task and forgets its latest result. Health
// history is kept. Returns false for unknown task ids.
func (m *Manager) Stop(taskID string) bool {
	stopped := m.deps.Scheduler.StopTask(taskID)

	m.mu.Lock()
	_, known := m.widgets[taskID]
	delete(m.widgets, taskID)
	m.mu.Unlock()

	if stopped || known {
		m.deps.Store.Delete(taskID)
	}
	return stopped
}

// Pause pauses the widget's task.
func (m *Manager) Pause(taskID string) bool {
	return m.deps.Scheduler.PauseTask(taskID)
}

// Resume resumes a paused task. An errored task stays errored; restart it
// with [Manager.Restart].
func (m *Manager) Resume(taskID string) bool {
	return m.deps.Scheduler.ResumeTask(taskID)
}

// RunNow runs the task synchronously in the caller.
func (m *Manager) RunNow(ctx context.Context, taskID string) bool {
	return m.deps.Scheduler.RunTaskNow(ctx, taskID)
}

// Restart re-registers a known widget, clearing its error state. Returns
// false for unknown task ids.
func (m *Manager) Restart(taskID string) (bool, error) {
	spec, ok := m.Widget(taskID)
	if !ok {
		return false, nil
	}
	if _, err := m.Start(spec); err != nil {
		return true, err
	}
	return true, nil
}

// Widget returns the spec registered under taskID.
func (m *Manager) Widget(taskID string) (Spec, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.widgets[taskID]
	return s, ok
}

// Widgets returns all registered specs ordered by task id.
func (m *Manager) Widgets() []Spec {
	m.mu.RLock()
	specs := make([]Spec, 0, len(m.widgets))
	for _, s := range m.widgets {
		specs = append(specs, s)
	}
	m.mu.RUnlock()

	sort.Slice(specs, func(i, j int) bool { return specs[i].TaskID() < specs[j].TaskID() })
	return specs
}

func (m *Manager) definition(spec Spec) (scheduler.Definition, error) {
	execute, err := m.executor(spec)
	if err != nil {
		return scheduler.Definition{}, err
	}
	taskID := spec.TaskID()
	return scheduler.Definition{
		ID:             taskID,
		Type:           spec.taskType(),
		Interval:       spec.interval(),
		Execute:        execute,
		OnResult:       func(r scheduler.Result) { m.publish(spec, r) },
		DedupeKey:      spec.DedupeKey(),
		RunImmediately: spec.RunImmediately,
	}, nil
}

func (m *Manager) executor(spec Spec) (scheduler.ExecuteFunc, error) {
	switch spec.Type {
	case TypeHealth, TypeTCP:
		var check health.Check
		if spec.Type == TypeHealth {
			check = *spec.HTTP
		} else {
			check = *spec.TCP
		}
		return func(ctx context.Context) (scheduler.Result, error) {
			// an unhealthy verdict is still a completed execution
			return scheduler.Result{Success: true, Data: m.deps.Checker.Perform(ctx, check)}, nil
		}, nil

	case TypeRSS:
		feed := *spec.Feed
		return func(ctx context.Context) (scheduler.Result, error) {
			f, err := m.deps.Feeds.Fetch(ctx, feed.URL, feeds.Options{Limit: feed.Limit})
			if err != nil {
				return scheduler.Result{}, err
			}
			return scheduler.Result{Success: true, Data: f}, nil
		}, nil

	case TypeWeather:
		w := *spec.Weather
		return func(ctx context.Context) (scheduler.Result, error) {
			var (
				f   *weather.Forecast
				err error
			)
			if w.Location != "" {
				f, err = m.deps.Weather.ByLocation(ctx, w.Location, w.options())
			} else {
				f, err = m.deps.Weather.ByCoordinates(ctx, w.Latitude, w.Longitude, w.options())
			}
			if err != nil {
				return scheduler.Result{}, err
			}
			return scheduler.Result{Success: true, Data: f}, nil
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidSpec, spec.Type)
}

// publish records a result in the store and, for probes, in the history.
func (m *Manager) publish(spec Spec, r scheduler.Result) {
	taskID := spec.TaskID()
	update := store.WidgetUpdate{
		TaskID:     taskID,
		WidgetID:   spec.ID,
		Type:       string(spec.Type),
		Name:       spec.displayName(),
		Success:    r.Success,
		Data:       r.Data,
		DurationMs: r.Duration.Milliseconds(),
		UpdatedAt:  r.Timestamp,
	}
	if r.Error != "" {
		msg := r.Error
		update.Error = &msg
	}

	if res, ok := r.Data.(health.Result); ok && m.deps.History != nil {
		update.Data = m.deps.History.Add(taskID, res)
	}
	m.deps.Store.Update(update)
}
