// Package server provides the HTTP server for the TileBoard dashboard and API.
//
// It serves the embedded dashboard at "/", a JSON API under "/api" for task
// lifecycle, widget registration, ad-hoc checks, health history and the
// cache-backed feed and weather lookups, and a Server-Sent Events stream of
// widget updates at "/api/sse".
//
// The server shuts down gracefully when its context is cancelled, with a
// 5-second timeout for in-flight requests.
package server
