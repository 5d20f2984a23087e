package scheduler

import (
	"context"
	"encoding/json"
	"time"
)

// Type identifies the kind of work a task performs.
type Type string

const (
	TypeHealthCheck Type = "health-check"
	TypeRSS         Type = "rss"
	TypeWeather     Type = "weather"
	TypeCustom      Type = "custom"
)

// Valid reports whether t is a known task type.
func (t Type) Valid() bool {
	switch t {
	case TypeHealthCheck, TypeRSS, TypeWeather, TypeCustom:
		return true
	}
	return false
}

// Priority is advisory metadata surfaced in task state; it does not affect
// timer ordering.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Status is the lifecycle state of a scheduled task.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusError   Status = "error"
	StatusStopped Status = "stopped"
)

const (
	// MinInterval is the shortest allowed polling interval. Shorter intervals
	// are clamped up to it.
	MinInterval = time.Second

	DefaultMaxRetries = 3
	DefaultRetryDelay = 5 * time.Second
)

// Result is the outcome of a single task execution.
//
// Success reports whether the execution itself worked. A health check that
// completes and classifies its target as unhealthy is still Success=true.
type Result struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// ExecuteFunc performs one run of a task. A returned error (or a panic) is
// treated the same as a Result with Success=false.
type ExecuteFunc func(ctx context.Context) (Result, error)

// Definition is the caller-supplied blueprint for a recurring task.
type Definition struct {
	// ID uniquely identifies the task. By convention "{type}-{widgetID}".
	ID string

	Type Type

	// Interval between successful runs. Clamped to at least [MinInterval].
	Interval time.Duration

	// Priority defaults from Type when empty.
	Priority Priority

	Execute  ExecuteFunc
	OnResult func(Result)
	OnError  func(error)

	// DedupeKey groups tasks polling the same resource. Members joining an
	// existing group adopt the primary's interval.
	DedupeKey string

	// MaxRetries is the number of consecutive failures after which the task
	// moves to [StatusError]. Zero means [DefaultMaxRetries].
	MaxRetries int

	// RetryDelay is multiplied by the consecutive failure count to get the
	// backoff delay. Zero means [DefaultRetryDelay].
	RetryDelay time.Duration

	// RunImmediately runs the first execution right away instead of after a
	// full interval.
	RunImmediately bool
}

// TaskState is a read-only snapshot of a scheduled task.
type TaskState struct {
	ID         string        `json:"id"`
	Type       Type          `json:"type"`
	Priority   Priority      `json:"priority"`
	Status     Status        `json:"status"`
	Interval   time.Duration `json:"interval_ms"`
	DedupeKey  string        `json:"dedupe_key,omitempty"`
	IsDeduped  bool          `json:"is_deduped"`
	ErrorCount int           `json:"error_count"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay_ms"`
	LastRunAt  *time.Time    `json:"last_run_at"`
	NextRunAt  *time.Time    `json:"next_run_at"`
	LastResult *Result       `json:"last_result"`
}

// Stats summarises the registry.
type Stats struct {
	Total        int            `json:"total"`
	ByStatus     map[Status]int `json:"by_status"`
	ByType       map[Type]int   `json:"by_type"`
	DedupeGroups int            `json:"dedupe_groups"`
}

// defaultPriority maps a task type to its priority when none is given.
func defaultPriority(t Type) Priority {
	switch t {
	case TypeHealthCheck:
		return PriorityHigh
	case TypeRSS:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// MarshalJSON renders Duration in milliseconds.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		Duration int64 `json:"duration_ms"`
	}{alias(r), r.Duration.Milliseconds()})
}

// MarshalJSON renders durations in milliseconds.
func (ts TaskState) MarshalJSON() ([]byte, error) {
	type alias TaskState
	return json.Marshal(struct {
		alias
		Interval   int64 `json:"interval_ms"`
		RetryDelay int64 `json:"retry_delay_ms"`
	}{alias(ts), ts.Interval.Milliseconds(), ts.RetryDelay.Milliseconds()})
}
