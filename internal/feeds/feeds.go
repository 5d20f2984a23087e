package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/jpalmerr/tileboard/internal/cache"
)

const (
	// DefaultTTL is how long a fetched feed is served from cache.
	DefaultTTL = 15 * time.Minute

	DefaultLimit = 10
	MaxLimit     = 50

	defaultTimeout     = 10 * time.Second
	defaultMaxEntries  = 256
	maxFeedSize        = 5 << 20 // 5MB
	defaultRatePerSec  = 5
	defaultUserAgent   = "tileboard/1.0 (+https://github.com/jpalmerr/tileboard)"
	acceptFeedMimeType = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"
)

// ErrInvalidURL is returned for feed URLs that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("invalid feed url")

// Item is a single feed entry.
type Item struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Description string     `json:"description,omitempty"`
	Author      string     `json:"author,omitempty"`
	GUID        string     `json:"guid,omitempty"`
	Published   *time.Time `json:"published,omitempty"`
}

// Feed is a parsed feed trimmed to the requested number of items.
type Feed struct {
	Title       string    `json:"title"`
	Link        string    `json:"link,omitempty"`
	Description string    `json:"description,omitempty"`
	Items       []Item    `json:"items"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Options tune a single fetch.
type Options struct {
	// Limit caps the number of returned items. Zero means DefaultLimit.
	Limit int
}

// Client fetches feeds through a shared cache.
type Client struct {
	httpClient *http.Client
	cache      *cache.Cache[string, *Feed]
	limiter    *rate.Limiter
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a feed [Client] caching into c. A nil c gets a private
// cache with [DefaultTTL].
func NewClient(c *cache.Cache[string, *Feed], logger *slog.Logger) *Client {
	if c == nil {
		c = NewCache(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		cache:      c,
		limiter:    rate.NewLimiter(rate.Limit(defaultRatePerSec), defaultRatePerSec),
		userAgent:  defaultUserAgent,
		logger:     logger,
	}
}

// NewCache creates the feed cache with [DefaultTTL].
func NewCache(maxEntries int) *cache.Cache[string, *Feed] {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return cache.New[string, *Feed]("rss", DefaultTTL, maxEntries)
}

// Cache exposes the client's cache for sweeping.
func (c *Client) Cache() *cache.Cache[string, *Feed] {
	return c.cache
}

// Fetch returns the feed at feedURL, from cache when fresh.
func (c *Client) Fetch(ctx context.Context, feedURL string, opts Options) (*Feed, error) {
	normalized, err := normalizeURL(feedURL)
	if err != nil {
		return nil, err
	}
	limit := clampLimit(opts.Limit)

	key := cacheKey(normalized, limit)
	if feed, ok := c.cache.Get(key); ok {
		return feed, nil
	}

	feed, err := c.fetch(ctx, normalized, limit)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, feed)
	return feed, nil
}

func (c *Client) fetch(ctx context.Context, feedURL string, limit int) (*Feed, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptFeedMimeType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch feed: unexpected status %d", resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	feed := convert(parsed, limit)
	c.logger.Debug("feed fetched",
		"url", feedURL,
		"items", len(feed.Items),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return feed, nil
}

func convert(parsed *gofeed.Feed, limit int) *Feed {
	feed := &Feed{
		Title:       strings.TrimSpace(parsed.Title),
		Link:        parsed.Link,
		Description: strings.TrimSpace(parsed.Description),
		Items:       make([]Item, 0, min(limit, len(parsed.Items))),
		FetchedAt:   time.Now(),
	}
	for _, it := range parsed.Items {
		if len(feed.Items) == limit {
			break
		}
		item := Item{
			Title:       strings.TrimSpace(it.Title),
			Link:        it.Link,
			Description: strings.TrimSpace(it.Description),
			GUID:        it.GUID,
		}
		if it.Author != nil {
			item.Author = it.Author.Name
		}
		switch {
		case it.PublishedParsed != nil:
			ts := *it.PublishedParsed
			item.Published = &ts
		case it.UpdatedParsed != nil:
			ts := *it.UpdatedParsed
			item.Published = &ts
		}
		feed.Items = append(feed.Items, item)
	}
	return feed
}

// normalizeURL validates the URL and lowercases the host so that
// equivalent URLs share a cache entry.
func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func cacheKey(feedURL string, limit int) string {
	return fmt.Sprintf("%s|%d", feedURL, limit)
}
