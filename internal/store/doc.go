// Package store keeps the latest result of every widget and fans updates
// out to subscribers.
//
// The main components are:
//
//   - [Store]: interface defining storage and subscription operations
//   - [MemoryStore]: in-memory implementation of Store with pub/sub
//   - [WidgetUpdate]: storage representation of a widget's latest result
//
// Subscribers receive updates via buffered channels with non-blocking sends;
// slow subscribers miss updates rather than stall the scheduler callbacks
// that publish them.
package store
