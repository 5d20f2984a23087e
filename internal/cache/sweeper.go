package cache

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule is the cron spec used when none is configured.
const DefaultSweepSchedule = "@every 5m"

// Sweepable is implemented by every [Cache] instantiation.
type Sweepable interface {
	Name() string
	Len() int
	Sweep() int
}

// Sweeper periodically removes expired entries from a set of caches.
type Sweeper struct {
	cron   *cron.Cron
	caches []Sweepable
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewSweeper creates a [Sweeper] running on the given cron schedule
// (standard five-field syntax or descriptors such as "@every 5m").
// Returns an error if the schedule cannot be parsed.
func NewSweeper(schedule string, logger *slog.Logger, caches ...Sweepable) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sweeper{
		cron:   cron.New(),
		caches: caches,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running sweeps in the background. Idempotent.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if started {
		<-s.cron.Stop().Done()
	}
}

// sweep adapts SweepAll to the cron job signature.
func (s *Sweeper) sweep() {
	s.SweepAll()
}

// SweepAll sweeps every cache once and returns the total removed.
func (s *Sweeper) SweepAll() int {
	total := 0
	for _, c := range s.caches {
		n := c.Sweep()
		if n > 0 {
			s.logger.Debug("cache swept", "cache", c.Name(), "removed", n)
		}
		total += n
	}
	return total
}
