package store

import "time"

// WidgetUpdate is the latest execution result of a widget's task.
//
// It is decoupled from the scheduler's types so that the API and the
// SSE stream can evolve independently of them.
type WidgetUpdate struct {
	// TaskID is the scheduler task id, "{type}-{widgetID}".
	TaskID string `json:"task_id"`

	WidgetID string `json:"widget_id"`

	// Type is the widget type (health, tcp, rss, weather).
	Type string `json:"type"`

	// Name is the widget's display name.
	Name string `json:"name"`

	// Success mirrors the scheduler result. A health widget reporting an
	// unhealthy target is still a success.
	Success bool `json:"success"`

	// Data is the type-specific payload (health result, feed, forecast).
	Data any `json:"data,omitempty"`

	// DurationMs is how long the execution took.
	DurationMs int64 `json:"duration_ms"`

	UpdatedAt time.Time `json:"updated_at"`

	// Error is nil when the execution succeeded.
	Error *string `json:"error"`
}

// Store holds widget updates and publishes them to subscribers.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Update stores an update keyed by TaskID and notifies all subscribers.
	Update(update WidgetUpdate)

	// Get returns the latest update for a task.
	Get(taskID string) (WidgetUpdate, bool)

	// GetAll returns a snapshot of all updates ordered by TaskID.
	GetAll() []WidgetUpdate

	// Delete forgets a task's update. Unknown ids are ignored.
	Delete(taskID string)

	// Subscribe returns a buffered channel of updates. Caller must call
	// Unsubscribe when done.
	Subscribe() <-chan WidgetUpdate

	// Unsubscribe removes a subscription and closes the channel. Safe to
	// call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan WidgetUpdate)
}
