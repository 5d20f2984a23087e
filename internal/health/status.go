package health

import (
	"encoding/json"
	"time"
)

// Status is the verdict of a health check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// latency thresholds; a response at or above the degraded bound is unhealthy
const (
	httpHealthyBelow  = 500 * time.Millisecond
	httpDegradedBelow = 2000 * time.Millisecond
	tcpHealthyBelow   = 100 * time.Millisecond
	tcpDegradedBelow  = 500 * time.Millisecond
)

// Result is the outcome of one probe.
//
// Latency is zero when the probe failed before a response or connection was
// obtained; such results are excluded from latency averages.
type Result struct {
	Status     Status
	Latency    time.Duration
	StatusCode int
	Error      string
	CheckedAt  time.Time
}

type resultJSON struct {
	ID         string `json:"id,omitempty"`
	Status     Status `json:"status"`
	LatencyMs  *int64 `json:"latency_ms"`
	StatusCode *int   `json:"status_code"`
	Error      string `json:"error,omitempty"`
	CheckedAt  string `json:"checked_at"`
}

func (r Result) toJSON(id string) resultJSON {
	out := resultJSON{
		ID:        id,
		Status:    r.Status,
		Error:     r.Error,
		CheckedAt: r.CheckedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.Latency > 0 {
		ms := r.Latency.Milliseconds()
		out.LatencyMs = &ms
	}
	if r.StatusCode != 0 {
		code := r.StatusCode
		out.StatusCode = &code
	}
	return out
}

// MarshalJSON renders latency in milliseconds, or null when unknown.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toJSON(""))
}

// classifyHTTP maps an HTTP probe outcome to a status. An execution error or
// an unaccepted status code is unhealthy regardless of latency.
func classifyHTTP(check HTTPCheck, resp Response) Status {
	if resp.Error != nil {
		return StatusUnhealthy
	}
	if !check.accepts(resp.StatusCode) {
		return StatusUnhealthy
	}
	return byLatency(resp.Latency, httpHealthyBelow, httpDegradedBelow)
}

// classifyTCP maps a successful connect latency to a status.
func classifyTCP(latency time.Duration) Status {
	return byLatency(latency, tcpHealthyBelow, tcpDegradedBelow)
}

func byLatency(latency, healthyBelow, degradedBelow time.Duration) Status {
	switch {
	case latency < healthyBelow:
		return StatusHealthy
	case latency < degradedBelow:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}
