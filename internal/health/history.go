package health

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/emirpasic/gods/queues/circularbuffer"
	"github.com/google/uuid"
)

// MaxHistoryEntries is the per-target history capacity.
const MaxHistoryEntries = 100

// HistoryEntry is a stored [Result] with a unique id.
type HistoryEntry struct {
	ID string
	Result
}

// MarshalJSON flattens the entry's result next to its id.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Result.toJSON(e.ID))
}

// Stats summarises a target's history.
type Stats struct {
	Total         int   `json:"total"`
	Healthy       int   `json:"healthy"`
	Degraded      int   `json:"degraded"`
	Unhealthy     int   `json:"unhealthy"`
	Unknown       int   `json:"unknown"`
	AvgLatencyMs  int64 `json:"avg_latency_ms"`
	UptimePercent int   `json:"uptime_percent"`
}

// History keeps a bounded, newest-first record of results per target.
// Once a target holds the maximum number of entries, each new entry
// evicts the oldest.
type History struct {
	mu      sync.RWMutex
	size    int
	buffers map[string]*circularbuffer.Queue
}

// NewHistory creates a [History] holding up to size entries per target.
// A non-positive size means [MaxHistoryEntries].
func NewHistory(size int) *History {
	if size <= 0 {
		size = MaxHistoryEntries
	}
	return &History{
		size:    size,
		buffers: make(map[string]*circularbuffer.Queue),
	}
}

// Add records result for target and returns the stored entry.
func (h *History) Add(target string, result Result) HistoryEntry {
	entry := HistoryEntry{
		ID:     fmt.Sprintf("%d-%s", result.CheckedAt.UnixMilli(), uuid.NewString()[:8]),
		Result: result,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	buf, ok := h.buffers[target]
	if !ok {
		buf = circularbuffer.New(h.size)
		h.buffers[target] = buf
	}
	buf.Enqueue(entry)
	return entry
}

// Get returns target's entries, newest first. Unknown targets yield nil.
func (h *History) Get(target string) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.buffers[target]
	if !ok {
		return nil
	}
	values := buf.Values()
	entries := make([]HistoryEntry, len(values))
	for i, v := range values {
		entries[len(values)-1-i] = v.(HistoryEntry)
	}
	return entries
}

// Stats computes per-status counts, mean latency over entries with a known
// latency, and uptime. Degraded results count as up.
func (h *History) Stats(target string) Stats {
	entries := h.Get(target)

	var stats Stats
	var latencySum int64
	var latencyCount int64
	for _, e := range entries {
		stats.Total++
		switch e.Status {
		case StatusHealthy:
			stats.Healthy++
		case StatusDegraded:
			stats.Degraded++
		case StatusUnhealthy:
			stats.Unhealthy++
		default:
			stats.Unknown++
		}
		if e.Latency > 0 {
			latencySum += e.Latency.Milliseconds()
			latencyCount++
		}
	}

	if latencyCount > 0 {
		stats.AvgLatencyMs = int64(math.Round(float64(latencySum) / float64(latencyCount)))
	}
	if stats.Total > 0 {
		up := float64(stats.Healthy+stats.Degraded) / float64(stats.Total) * 100
		stats.UptimePercent = int(math.Round(up))
	}
	return stats
}

// Clear drops target's history. Unknown targets are ignored.
func (h *History) Clear(target string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.buffers, target)
}

// Targets returns the ids that currently have history, sorted.
func (h *History) Targets() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make([]string, 0, len(h.buffers))
	for t := range h.buffers {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}
