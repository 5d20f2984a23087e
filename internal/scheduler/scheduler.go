package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// timer is the subset of *time.Timer the scheduler relies on.
type timer interface {
	Stop() bool
}

// task is the runtime record behind a [Definition]. All fields are guarded
// by Scheduler.mu.
type task struct {
	def        Definition
	status     Status
	errorCount int
	isDeduped  bool
	lastRunAt  time.Time
	nextRunAt  time.Time
	lastResult *Result

	timer  timer
	armSeq uint64

	// generation is bumped whenever the task is paused, stopped or replaced.
	// Results from an execution that started under an older generation are
	// dropped.
	generation uint64
	inFlight   bool
}

// Scheduler owns the registry of recurring tasks.
//
// All exported methods are safe for concurrent use.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]*task
	groups map[string][]string
	closed bool

	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now   func() time.Time
	after func(d time.Duration, f func()) timer
}

// New creates an empty [Scheduler]. Executions triggered by timers receive a
// context that is cancelled by [Scheduler.Shutdown].
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[string]*task),
		groups: make(map[string][]string),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
		after: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
}

// ScheduleTask registers a task and arms its first run.
//
// Registering an id that already exists stops the old task first. If the
// definition carries a DedupeKey whose group already has members, the new
// task adopts the group primary's interval and is marked deduped.
//
// The first run happens after one full interval unless RunImmediately is set.
func (s *Scheduler) ScheduleTask(def Definition) (string, error) {
	if def.ID == "" {
		return "", fmt.Errorf("%w: id is required", ErrInvalidDefinition)
	}
	if def.Execute == nil {
		return "", fmt.Errorf("%w: task %q has no execute function", ErrInvalidDefinition, def.ID)
	}
	normalize(&def)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}

	if _, exists := s.tasks[def.ID]; exists {
		s.stopLocked(def.ID)
	}

	t := &task{def: def, status: StatusPending}
	if def.DedupeKey != "" {
		t.isDeduped = s.joinGroupLocked(t)
	}
	s.tasks[def.ID] = t

	if def.RunImmediately {
		s.armLocked(t, 0)
	} else {
		s.armLocked(t, t.def.Interval)
	}
	interval := t.def.Interval
	deduped := t.isDeduped
	s.mu.Unlock()

	s.logger.Debug("task scheduled",
		"task_id", def.ID,
		"type", def.Type,
		"interval", interval.String(),
		"deduped", deduped,
	)
	return def.ID, nil
}

// StopTask cancels the task's pending timer, removes it from its dedupe
// group and deletes it from the registry. A stopped task cannot be resumed.
// Returns false if the id is unknown.
func (s *Scheduler) StopTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}
	s.stopLocked(id)
	return true
}

// PauseTask cancels the pending timer and parks the task in [StatusPaused].
// A run already in flight completes but its result is discarded.
// Returns false if the id is unknown.
func (s *Scheduler) PauseTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	s.clearTimerLocked(t)
	t.status = StatusPaused
	t.generation++
	t.nextRunAt = time.Time{}
	return true
}

// ResumeTask re-arms a paused task. For a task in any other state it does
// nothing but still returns true; a task in [StatusError] must be registered
// again with [Scheduler.ScheduleTask]. Returns false if the id is unknown.
func (s *Scheduler) ResumeTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	if t.status == StatusPaused {
		t.status = StatusPending
		s.scheduleNextRunLocked(t)
	}
	return true
}

// RunTaskNow cancels the pending timer and executes the task synchronously
// on the calling goroutine. Error count and backoff state are left as they
// are. Returns false if the id is unknown, the task is paused, or a run is
// already in flight.
func (s *Scheduler) RunTaskNow(ctx context.Context, id string) bool {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok || t.inFlight || t.status == StatusPaused {
		s.mu.Unlock()
		return false
	}
	s.clearTimerLocked(t)
	s.mu.Unlock()

	s.executeTask(ctx, t)
	return true
}

// Shutdown stops every task and waits for in-flight executions to return,
// or for ctx to expire. The scheduler cannot be reused afterwards.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for id := range s.tasks {
		s.stopLocked(id)
	}
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TaskState returns a snapshot of one task.
func (s *Scheduler) TaskState(id string) (TaskState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return TaskState{}, false
	}
	return t.snapshot(), true
}

// AllTaskStates returns snapshots of every registered task, ordered by id.
func (s *Scheduler) AllTaskStates() []TaskState {
	return s.collect(func(*task) bool { return true })
}

// TasksByType returns snapshots of tasks of the given type, ordered by id.
func (s *Scheduler) TasksByType(typ Type) []TaskState {
	return s.collect(func(t *task) bool { return t.def.Type == typ })
}

// ActiveTasks returns snapshots of tasks that have not been stopped.
func (s *Scheduler) ActiveTasks() []TaskState {
	return s.collect(func(t *task) bool { return t.status != StatusStopped })
}

// Stats returns registry totals by status and by type.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Total:        len(s.tasks),
		ByStatus:     make(map[Status]int),
		ByType:       make(map[Type]int),
		DedupeGroups: len(s.groups),
	}
	for _, t := range s.tasks {
		stats.ByStatus[t.status]++
		stats.ByType[t.def.Type]++
	}
	return stats
}

func (s *Scheduler) collect(keep func(*task) bool) []TaskState {
	s.mu.Lock()
	states := make([]TaskState, 0, len(s.tasks))
	for _, t := range s.tasks {
		if keep(t) {
			states = append(states, t.snapshot())
		}
	}
	s.mu.Unlock()

	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states
}

// executeTask runs one execution of t and records its outcome.
func (s *Scheduler) executeTask(ctx context.Context, t *task) {
	s.mu.Lock()
	if t.status == StatusStopped || t.status == StatusPaused || t.inFlight || s.tasks[t.def.ID] != t {
		s.mu.Unlock()
		return
	}
	t.inFlight = true
	t.status = StatusRunning
	gen := t.generation
	def := t.def
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	start := s.now()
	result, err := s.invoke(ctx, def)
	end := s.now()

	result.Duration = end.Sub(start)
	result.Timestamp = end
	if err != nil {
		result.Success = false
		if result.Error == "" {
			result.Error = err.Error()
		}
	} else if !result.Success {
		if result.Error != "" {
			err = errors.New(result.Error)
		} else {
			err = ErrTaskFailed
		}
	}
	failed := err != nil

	s.mu.Lock()
	t.inFlight = false
	registered := s.tasks[def.ID] == t
	if !registered || t.generation != gen {
		// resumed while this run was in flight: the resume left arming to us
		if registered && t.status == StatusPending && t.timer == nil {
			s.scheduleNextRunLocked(t)
		}
		s.mu.Unlock()
		s.logger.Debug("discarding superseded task result", "task_id", def.ID)
		return
	}

	t.lastRunAt = end
	t.lastResult = &result
	if failed {
		t.errorCount++
	} else {
		t.errorCount = 0
	}
	errorCount := t.errorCount
	terminal := errorCount >= def.MaxRetries
	if terminal {
		t.status = StatusError
		t.nextRunAt = time.Time{}
	} else {
		t.status = StatusPending
		s.scheduleNextRunLocked(t)
	}
	s.mu.Unlock()

	if failed {
		s.logger.Warn("task run failed",
			"task_id", def.ID,
			"error", result.Error,
			"error_count", errorCount,
		)
		if def.OnError != nil {
			s.safeCall(def.ID, "on_error", func() { def.OnError(err) })
		}
	}
	if def.OnResult != nil {
		s.safeCall(def.ID, "on_result", func() { def.OnResult(result) })
	}
	if terminal {
		s.logger.Error("task exceeded max retries",
			"task_id", def.ID,
			"max_retries", def.MaxRetries,
		)
	}
}

// invoke calls Execute with panic recovery. A panic becomes an error that
// carries a correlation id; the stack is logged server-side.
func (s *Scheduler) invoke(ctx context.Context, def Definition) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("task panic",
				"task_id", def.ID,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			result = Result{}
			err = fmt.Errorf("task panic (correlation_id: %s)", correlationID)
		}
	}()
	return def.Execute(ctx)
}

// safeCall runs a user callback, logging instead of propagating panics.
func (s *Scheduler) safeCall(taskID, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task callback panicked",
				"task_id", taskID,
				"callback", name,
				"panic", r,
			)
		}
	}()
	fn()
}

// scheduleNextRunLocked arms the next run using linear backoff while the
// task has consecutive failures.
func (s *Scheduler) scheduleNextRunLocked(t *task) {
	delay := t.def.Interval
	if t.errorCount > 0 {
		delay = t.def.RetryDelay * time.Duration(t.errorCount)
	}
	s.armLocked(t, delay)
}

// armLocked replaces any pending timer with one firing after delay.
// Paused and stopped tasks are left unarmed, as are tasks with a run in
// flight; the completing run arms those.
func (s *Scheduler) armLocked(t *task, delay time.Duration) {
	s.clearTimerLocked(t)
	if t.status == StatusStopped || t.status == StatusPaused {
		return
	}
	t.status = StatusPending
	if t.inFlight {
		return
	}
	t.nextRunAt = s.now().Add(delay)

	id, seq := t.def.ID, t.armSeq
	t.timer = s.after(delay, func() { s.fire(id, seq) })
}

func (s *Scheduler) clearTimerLocked(t *task) {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.armSeq++
}

// fire is the timer callback. A stale timer (one that was cleared after it
// had already fired) is ignored.
func (s *Scheduler) fire(id string, seq uint64) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok || t.armSeq != seq {
		s.mu.Unlock()
		return
	}
	t.timer = nil
	s.mu.Unlock()

	s.executeTask(s.ctx, t)
}

func (s *Scheduler) stopLocked(id string) {
	t := s.tasks[id]
	s.clearTimerLocked(t)
	s.leaveGroupLocked(t)
	t.status = StatusStopped
	t.generation++
	t.nextRunAt = time.Time{}
	delete(s.tasks, id)
}

func (t *task) snapshot() TaskState {
	state := TaskState{
		ID:         t.def.ID,
		Type:       t.def.Type,
		Priority:   t.def.Priority,
		Status:     t.status,
		Interval:   t.def.Interval,
		DedupeKey:  t.def.DedupeKey,
		IsDeduped:  t.isDeduped,
		ErrorCount: t.errorCount,
		MaxRetries: t.def.MaxRetries,
		RetryDelay: t.def.RetryDelay,
	}
	if !t.lastRunAt.IsZero() {
		ts := t.lastRunAt
		state.LastRunAt = &ts
	}
	if !t.nextRunAt.IsZero() {
		ts := t.nextRunAt
		state.NextRunAt = &ts
	}
	if t.lastResult != nil {
		r := *t.lastResult
		state.LastResult = &r
	}
	return state
}

// normalize applies defaults and clamps the interval.
func normalize(def *Definition) {
	if def.Type == "" {
		def.Type = TypeCustom
	}
	if def.Priority == "" {
		def.Priority = defaultPriority(def.Type)
	}
	if def.Interval < MinInterval {
		def.Interval = MinInterval
	}
	if def.MaxRetries <= 0 {
		def.MaxRetries = DefaultMaxRetries
	}
	if def.RetryDelay <= 0 {
		def.RetryDelay = DefaultRetryDelay
	}
}
