// Package health performs HTTP and TCP health probes for dashboard widgets.
//
// The main components are:
//
//   - [Check]: a probe definition, either [HTTPCheck] or [TCPCheck]
//   - [Checker]: runs a single probe and classifies it into a [Status]
//   - [History]: bounded, newest-first result history per target with [Stats]
//   - [Monitor]: repeating probes built on the shared scheduler
//
// HTTP probes are unhealthy on any transport error or on a status code
// outside the accepted set; otherwise they are healthy below 500ms, degraded
// below 2s and unhealthy beyond. TCP probes use 100ms and 500ms thresholds.
//
// A probe that completes with an unhealthy verdict is still a successful
// execution from the scheduler's point of view.
package health
