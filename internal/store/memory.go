package store

import (
	"sort"
	"sync"
)

// subscriberBuffer is the channel capacity of each subscription.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Updates are keyed by task id, new results replacing previous values.
// Subscribers receive updates via buffered channels; if a subscriber's
// buffer is full the update is dropped for that subscriber only.
type MemoryStore struct {
	mu          sync.RWMutex
	updates     map[string]WidgetUpdate
	subscribers map[chan WidgetUpdate]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		updates:     make(map[string]WidgetUpdate),
		subscribers: make(map[chan WidgetUpdate]struct{}),
	}
}

// Update stores update and notifies all subscribers.
func (m *MemoryStore) Update(update WidgetUpdate) {
	m.mu.Lock()
	m.updates[update.TaskID] = update
	m.mu.Unlock()

	m.notifySubscribers(update)
}

// Get returns the latest update for taskID.
func (m *MemoryStore) Get(taskID string) (WidgetUpdate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.updates[taskID]
	return u, ok
}

// GetAll returns a copy of all stored updates, ordered by task id.
func (m *MemoryStore) GetAll() []WidgetUpdate {
	m.mu.RLock()
	results := make([]WidgetUpdate, 0, len(m.updates))
	for _, u := range m.updates {
		results = append(results, u)
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].TaskID < results[j].TaskID
	})
	return results
}

// Delete removes the update stored for taskID.
func (m *MemoryStore) Delete(taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.updates, taskID)
}

// Subscribe creates a new subscription. The caller must call
// [MemoryStore.Unsubscribe] when done to prevent leaks.
func (m *MemoryStore) Subscribe() <-chan WidgetUpdate {
	ch := make(chan WidgetUpdate, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan WidgetUpdate) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	// the map is keyed by the bidirectional channel
	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (m *MemoryStore) notifySubscribers(update WidgetUpdate) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- update:
		default:
			// slow subscriber, drop
		}
	}
}
