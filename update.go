package tileboard

import (
	"errors"
	"time"

	"github.com/jpalmerr/tileboard/internal/store"
)

// Update is the outcome of one widget poll, delivered to callbacks
// registered with [WithResultCallback].
//
// Data holds the widget's payload and depends on its type: a health
// history entry for health and tcp widgets, a feed for rss widgets and a
// forecast for weather widgets. Callers that need the concrete value should
// marshal it to JSON rather than type-assert on internal types.
type Update struct {
	// TaskID is the polling task id, "{type}-{id}".
	TaskID string

	// WidgetID is the id the widget was created with.
	WidgetID string

	Type WidgetType
	Name string

	// Success is false when the poll itself failed. A health probe that
	// reports an unhealthy endpoint is still a successful poll.
	Success bool

	Data any

	// Duration is how long the poll took.
	Duration time.Duration

	UpdatedAt time.Time

	// Err is set when Success is false.
	Err error
}

func updateFromStore(u store.WidgetUpdate) Update {
	out := Update{
		TaskID:    u.TaskID,
		WidgetID:  u.WidgetID,
		Type:      WidgetType(u.Type),
		Name:      u.Name,
		Success:   u.Success,
		Data:      u.Data,
		Duration:  time.Duration(u.DurationMs) * time.Millisecond,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Error != nil {
		out.Err = errors.New(*u.Error)
	}
	return out
}
