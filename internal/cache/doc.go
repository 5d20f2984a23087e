// Package cache provides a size-bounded key/value cache with per-entry
// expiry.
//
// Expiry is checked lazily: a Get after an entry's deadline reports a miss
// but leaves the entry resident until it is overwritten, evicted by the LRU
// bound, or removed by [Cache.Sweep]. A [Sweeper] runs Sweep on a cron
// schedule so that stale entries do not accumulate for the process lifetime.
package cache
