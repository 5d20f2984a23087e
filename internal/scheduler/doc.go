// Package scheduler runs recurring background tasks for dashboard widgets.
//
// Each task is driven by a one-shot timer that is re-armed only after the
// previous execution settles, so a task never has two executions in flight.
// Failed runs back off linearly (RetryDelay multiplied by the number of
// consecutive failures) and a task that reaches MaxRetries consecutive
// failures parks in [StatusError] until it is registered again.
//
// Tasks sharing a DedupeKey form a group whose later members adopt the
// first member's interval at registration time. Members still execute
// independently; only their cadence is aligned.
//
// The registry is guarded by a single mutex. Pausing or stopping a task bumps
// its generation so that a result from an execution that was already in
// flight is discarded instead of being recorded.
package scheduler
