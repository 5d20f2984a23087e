package tileboard

import (
	"strings"
	"testing"
	"time"
)

func TestCartesianProduct_TwoDimensions(t *testing.T) {
	dims := map[string][]string{
		"x": {"a", "b"},
		"y": {"1", "2"},
	}

	result := cartesianProduct(dims)

	if len(result) != 4 {
		t.Fatalf("cartesianProduct() returned %d combinations, want 4", len(result))
	}

	// sorted key order (x, y), preserved value order
	expected := []map[string]string{
		{"x": "a", "y": "1"},
		{"x": "a", "y": "2"},
		{"x": "b", "y": "1"},
		{"x": "b", "y": "2"},
	}
	for i, want := range expected {
		if result[i]["x"] != want["x"] || result[i]["y"] != want["y"] {
			t.Errorf("combination[%d] = %v, want %v", i, result[i], want)
		}
	}
}

func TestCartesianProduct_ThreeDimensions(t *testing.T) {
	dims := map[string][]string{
		"a": {"1", "2"},
		"b": {"x", "y", "z"},
		"c": {"p", "q"},
	}

	if got := len(cartesianProduct(dims)); got != 12 {
		t.Errorf("cartesianProduct() returned %d combinations, want 12", got)
	}
}

func TestCartesianProduct_Empty(t *testing.T) {
	if result := cartesianProduct(nil); result != nil {
		t.Errorf("cartesianProduct(nil) = %v, want nil", result)
	}
	if result := cartesianProduct(map[string][]string{"x": {"a"}, "y": {}}); result != nil {
		t.Errorf("cartesianProduct() with empty dimension = %v, want nil", result)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "us-east", want: "us-east"},
		{in: "EU West", want: "eu-west"},
		{in: "prod/us_east", want: "prod-us-east"},
		{in: "--a  b--", want: "a-b"},
		{in: "zürich", want: "zürich"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := slug(tt.in); got != tt.want {
				t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewHealthGrid_Basic(t *testing.T) {
	widgets, err := NewHealthGrid("api", "API Health",
		WithURLTemplate("https://{{.env}}.example.com/health?region={{.region}}"),
		WithDimensions(map[string][]string{
			"env":    {"prod", "staging"},
			"region": {"us-east", "eu-west"},
		}),
	)
	if err != nil {
		t.Fatalf("NewHealthGrid() error = %v", err)
	}
	if len(widgets) != 4 {
		t.Fatalf("len(widgets) = %d, want 4", len(widgets))
	}

	first := widgets[0]
	if first.ID() != "api-prod-us-east" {
		t.Errorf("ID() = %q, want %q", first.ID(), "api-prod-us-east")
	}
	if first.Name() != "API Health (prod/us-east)" {
		t.Errorf("Name() = %q, want %q", first.Name(), "API Health (prod/us-east)")
	}
	if first.Type() != WidgetHealth {
		t.Errorf("Type() = %q, want %q", first.Type(), WidgetHealth)
	}
	if got := first.spec.HTTP.URL; got != "https://prod.example.com/health?region=us-east" {
		t.Errorf("URL = %q", got)
	}
}

func TestNewHealthGrid_URLEncoding(t *testing.T) {
	widgets, err := NewHealthGrid("search", "Search",
		WithURLTemplate("https://example.com/search?q={{.q}}"),
		WithDimensions(map[string][]string{"q": {"a b&c"}}),
	)
	if err != nil {
		t.Fatalf("NewHealthGrid() error = %v", err)
	}

	if got := widgets[0].spec.HTTP.URL; got != "https://example.com/search?q=a+b%26c" {
		t.Errorf("URL = %q, want encoded query", got)
	}
	if widgets[0].ID() != "search-a-b-c" {
		t.Errorf("ID() = %q, want %q", widgets[0].ID(), "search-a-b-c")
	}
	// names keep the raw value
	if widgets[0].Name() != "Search (a b&c)" {
		t.Errorf("Name() = %q", widgets[0].Name())
	}
}

func TestNewHealthGrid_SharedOptions(t *testing.T) {
	widgets, err := NewHealthGrid("api", "API",
		WithURLTemplate("https://example.com/{{.svc}}"),
		WithDimensions(map[string][]string{"svc": {"users", "orders"}}),
		WithGridHeaders("Authorization", "Bearer x"),
		WithGridTimeout(2*time.Second),
		WithGridMethod("HEAD"),
		WithGridInterval(45*time.Second),
		WithGridAcceptedStatusCodes(200),
	)
	if err != nil {
		t.Fatalf("NewHealthGrid() error = %v", err)
	}

	for _, w := range widgets {
		check := w.spec.HTTP
		if check.Headers["Authorization"] != "Bearer x" {
			t.Errorf("%s: headers = %v", w.ID(), check.Headers)
		}
		if check.Timeout != 2*time.Second {
			t.Errorf("%s: timeout = %v, want 2s", w.ID(), check.Timeout)
		}
		if check.Method != "HEAD" {
			t.Errorf("%s: method = %q, want HEAD", w.ID(), check.Method)
		}
		if w.Interval() != 45*time.Second {
			t.Errorf("%s: interval = %v, want 45s", w.ID(), w.Interval())
		}
		if len(check.AcceptedStatusCodes) != 1 || check.AcceptedStatusCodes[0] != 200 {
			t.Errorf("%s: accepted = %v, want [200]", w.ID(), check.AcceptedStatusCodes)
		}
	}
}

func TestNewHealthGrid_Errors(t *testing.T) {
	dims := WithDimensions(map[string][]string{"env": {"prod"}})

	tests := []struct {
		name   string
		baseID string
		opts   []GridOption
		want   string
	}{
		{name: "empty base id", baseID: " ", opts: []GridOption{WithURLTemplate("https://x"), dims}, want: "base id"},
		{name: "missing template", baseID: "api", opts: []GridOption{dims}, want: "URL template required"},
		{name: "missing dimensions", baseID: "api", opts: []GridOption{WithURLTemplate("https://x")}, want: "dimension"},
		{name: "bad template syntax", baseID: "api", opts: []GridOption{WithURLTemplate("https://x/{{.env"), dims}, want: "invalid URL template"},
		{name: "missing key", baseID: "api", opts: []GridOption{WithURLTemplate("https://x/{{.region}}"), dims}, want: "template execution failed"},
		{name: "option error", baseID: "api", opts: []GridOption{WithGridTimeout(-time.Second)}, want: "negative"},
		{name: "invalid widget", baseID: "api", opts: []GridOption{WithURLTemplate("ftp://x/{{.env}}"), dims}, want: "failed to create widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHealthGrid(tt.baseID, "API", tt.opts...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestNewHealthGrid_DuplicateSlugs(t *testing.T) {
	_, err := NewHealthGrid("api", "API",
		WithURLTemplate("https://example.com/{{.r}}"),
		WithDimensions(map[string][]string{"r": {"us east", "us-east"}}),
	)
	if err == nil || !strings.Contains(err.Error(), "duplicate widget id") {
		t.Errorf("error = %v, want duplicate widget id", err)
	}
}

func TestNewHealthGrid_BaseNameDefaultsToID(t *testing.T) {
	widgets, err := NewHealthGrid("api", "",
		WithURLTemplate("https://example.com/{{.r}}"),
		WithDimensions(map[string][]string{"r": {"eu"}}),
	)
	if err != nil {
		t.Fatalf("NewHealthGrid() error = %v", err)
	}
	if widgets[0].Name() != "api (eu)" {
		t.Errorf("Name() = %q, want %q", widgets[0].Name(), "api (eu)")
	}
}

func TestGridOptions_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  GridOption
	}{
		{name: "empty template", opt: WithURLTemplate("")},
		{name: "empty dimensions", opt: WithDimensions(map[string][]string{})},
		{name: "dimension without values", opt: WithDimensions(map[string][]string{"env": {}})},
		{name: "empty dimension value", opt: WithDimensions(map[string][]string{"env": {"prod", ""}})},
		{name: "odd headers", opt: WithGridHeaders("X-Only")},
		{name: "empty method", opt: WithGridMethod("")},
		{name: "interval too short", opt: WithGridInterval(500 * time.Millisecond)},
		{name: "negative interval", opt: WithGridInterval(-time.Second)},
		{name: "no status codes", opt: WithGridAcceptedStatusCodes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opt(&gridConfig{}); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
