package feeds

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title> Example News </title>
    <link>https://news.example.com</link>
    <description>Latest stories</description>
    <item>
      <title>First</title>
      <link>https://news.example.com/1</link>
      <guid>1</guid>
      <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second</title>
      <link>https://news.example.com/2</link>
      <guid>2</guid>
    </item>
    <item>
      <title>Third</title>
      <link>https://news.example.com/3</link>
      <guid>3</guid>
    </item>
  </channel>
</rss>`

func newFeedServer(t *testing.T, body string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestClient_FetchParsesFeed(t *testing.T) {
	server, _ := newFeedServer(t, sampleRSS, http.StatusOK)
	client := NewClient(nil, testLogger())

	feed, err := client.Fetch(context.Background(), server.URL+"/feed.xml", Options{Limit: 2})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if feed.Title != "Example News" {
		t.Errorf("Title = %q, want Example News", feed.Title)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(feed.Items))
	}
	if feed.Items[0].Title != "First" || feed.Items[0].Published == nil {
		t.Errorf("Items[0] = %+v, want First with published date", feed.Items[0])
	}
	if feed.Items[1].Published != nil {
		t.Errorf("Items[1].Published = %v, want nil", feed.Items[1].Published)
	}
}

func TestClient_FetchUsesCache(t *testing.T) {
	server, hits := newFeedServer(t, sampleRSS, http.StatusOK)
	client := NewClient(nil, testLogger())
	ctx := context.Background()

	if _, err := client.Fetch(ctx, server.URL+"/feed.xml", Options{}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	// same feed with scheme casing and a fragment: same cache entry
	upper := "HTTP" + strings.TrimPrefix(server.URL, "http") + "/feed.xml#top"
	if _, err := client.Fetch(ctx, upper, Options{}); err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1", hits.Load())
	}

	// a different limit is a different cache key
	if _, err := client.Fetch(ctx, server.URL+"/feed.xml", Options{Limit: 1}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("upstream hits = %d, want 2", hits.Load())
	}

	client.Cache().Purge()
	if _, err := client.Fetch(ctx, server.URL+"/feed.xml", Options{}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("upstream hits after purge = %d, want 3", hits.Load())
	}
}

func TestClient_FetchErrors(t *testing.T) {
	client := NewClient(nil, testLogger())
	ctx := context.Background()

	if _, err := client.Fetch(ctx, "ftp://example.com/feed", Options{}); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("bad scheme: error = %v, want ErrInvalidURL", err)
	}
	if _, err := client.Fetch(ctx, "https://", Options{}); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("missing host: error = %v, want ErrInvalidURL", err)
	}

	notFound, _ := newFeedServer(t, "gone", http.StatusNotFound)
	if _, err := client.Fetch(ctx, notFound.URL, Options{}); err == nil || !strings.Contains(err.Error(), "unexpected status 404") {
		t.Errorf("404: error = %v", err)
	}

	garbage, hits := newFeedServer(t, "this is not a feed", http.StatusOK)
	if _, err := client.Fetch(ctx, garbage.URL, Options{}); err == nil {
		t.Error("garbage body: expected parse error")
	}
	// failures are not cached
	_, _ = client.Fetch(ctx, garbage.URL, Options{})
	if hits.Load() != 2 {
		t.Errorf("upstream hits = %d, want 2 (errors must not be cached)", hits.Load())
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{5, 5},
		{500, MaxLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
