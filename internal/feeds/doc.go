// Package feeds fetches RSS and Atom feeds for dashboard widgets.
//
// Parsed feeds are cached for [DefaultTTL] keyed by the normalised feed URL
// and item limit, so widgets showing the same feed share one upstream fetch
// per TTL window. Outbound requests are rate limited per client.
package feeds
