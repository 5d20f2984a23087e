// Package config provides YAML configuration parsing for TileBoard.
//
// This package enables running TileBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Home Lab
//	port: 8080
//
//	cache:
//	  sweep_schedule: "@every 5m"
//	  max_entries: 256
//
//	widgets:
//	  - id: api
//	    type: health
//	    url: https://api.example.com/health
//	    headers:
//	      Authorization: Bearer ${API_TOKEN}
//	  - id: db
//	    type: tcp
//	    host: db.internal
//	    port: 5432
//	  - id: news
//	    type: rss
//	    url: https://go.dev/blog/feed.atom
//	    limit: 5
//	  - id: home
//	    type: weather
//	    location: Berlin
//	    units: metric
//
//	grids:
//	  - id: platform
//	    name: Platform
//	    url_template: "https://{{.env}}.example.com/health"
//	    dimensions:
//	      env: [prod, staging]
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort = 8080

	// minInterval prevents accidental hammering of upstreams.
	minInterval = 1 * time.Second

	minTimeout = 1 * time.Second
	maxTimeout = 20 * time.Second

	maxFeedLimit    = 50
	maxForecastDays = 16
)

// widget types accepted in the type field
const (
	TypeHealth  = "health"
	TypeTCP     = "tcp"
	TypeRSS     = "rss"
	TypeWeather = "weather"
)

// Config is the root configuration structure for TileBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "TileBoard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	Cache CacheConfig `yaml:"cache"`

	// Widgets defines individual widgets.
	Widgets []WidgetConfig `yaml:"widgets"`

	// Grids defines health widget grids that expand via cartesian product.
	Grids []GridConfig `yaml:"grids"`
}

// CacheConfig tunes the content caches.
type CacheConfig struct {
	// SweepSchedule is a cron spec for removing expired entries.
	// Defaults to "@every 5m".
	SweepSchedule string `yaml:"sweep_schedule"`

	// MaxEntries bounds each cache. Zero keeps the per-cache defaults.
	MaxEntries int `yaml:"max_entries"`
}

// WidgetConfig defines a single widget. Which fields apply depends on Type:
//
//   - health: url, method, headers, body, timeout, accepted_status_codes
//   - tcp: host, port, timeout
//   - rss: url, limit
//   - weather: location, or latitude and longitude; units, days
//
// url, host, location, body and header values support environment variable
// substitution: ${VAR} or ${VAR:-default}.
type WidgetConfig struct {
	// ID identifies the widget within its type. Required.
	ID string `yaml:"id"`

	// Name is the display name. Defaults to the id.
	Name string `yaml:"name"`

	// Type is one of health, tcp, rss, weather.
	Type string `yaml:"type"`

	// Interval is the polling interval. Defaults per type.
	Interval Duration `yaml:"interval"`

	URL                 string            `yaml:"url"`
	Method              string            `yaml:"method"`
	Headers             map[string]string `yaml:"headers"`
	Body                string            `yaml:"body"`
	Timeout             Duration          `yaml:"timeout"`
	AcceptedStatusCodes []int             `yaml:"accepted_status_codes"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	Limit int `yaml:"limit"`

	Location  string   `yaml:"location"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
	Units     string   `yaml:"units"`
	Days      int      `yaml:"days"`
}

// TaskID returns the widget's task id, "{type}-{id}".
func (w WidgetConfig) TaskID() string {
	return w.Type + "-" + w.ID
}

// GridConfig defines a health widget grid that expands via cartesian product.
//
// For example, with dimensions {env: [prod, staging], svc: [api, web]},
// the grid expands to 4 widgets: prod/api, prod/web, staging/api, staging/web.
type GridConfig struct {
	// ID is the prefix of generated widget ids. Required.
	ID string `yaml:"id"`

	// Name is the base name for generated widgets. Defaults to the id.
	Name string `yaml:"name"`

	// URLTemplate is a Go template for generating widget URLs.
	// Dimension keys are available as template variables: {{.env}}, {{.svc}}
	// Supports environment variable substitution in the template.
	URLTemplate string `yaml:"url_template"`

	// Dimensions maps dimension names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions"`

	Method              string            `yaml:"method"`
	Timeout             Duration          `yaml:"timeout"`
	Headers             map[string]string `yaml:"headers"`
	AcceptedStatusCodes []int             `yaml:"accepted_status_codes"`
	Interval            Duration          `yaml:"interval"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part, present when a default was specified
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in urls, hosts, locations, bodies,
// url templates and header values. Port defaults to 8080.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Cache.SweepSchedule != "" {
		if _, err := cron.ParseStandard(c.Cache.SweepSchedule); err != nil {
			return fmt.Errorf("cache.sweep_schedule: %w", err)
		}
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries cannot be negative, got %d", c.Cache.MaxEntries)
	}

	seen := make(map[string]int, len(c.Widgets))
	for i := range c.Widgets {
		w := &c.Widgets[i]
		if err := w.expandAndValidate(); err != nil {
			if w.ID == "" {
				return fmt.Errorf("widgets[%d]: %w", i, err)
			}
			return fmt.Errorf("widgets[%d] (%s): %w", i, w.ID, err)
		}
		if prev, dup := seen[w.TaskID()]; dup {
			return fmt.Errorf("widgets[%d] (%s): duplicate %s widget id, first defined at widgets[%d]", i, w.ID, w.Type, prev)
		}
		seen[w.TaskID()] = i
	}

	for i := range c.Grids {
		g := &c.Grids[i]
		if err := g.expandAndValidate(); err != nil {
			if g.ID == "" {
				return fmt.Errorf("grids[%d]: %w", i, err)
			}
			return fmt.Errorf("grids[%d] (%s): %w", i, g.ID, err)
		}
	}

	if len(c.Widgets) == 0 && len(c.Grids) == 0 {
		return errors.New("at least one widget or grid must be defined")
	}

	return nil
}

func (w *WidgetConfig) expandAndValidate() error {
	if w.ID == "" {
		return errors.New("id is required")
	}
	if strings.ContainsAny(w.ID, "/ ") {
		return fmt.Errorf("id %q must not contain spaces or slashes", w.ID)
	}
	if err := validateInterval(w.Interval); err != nil {
		return err
	}

	var err error
	switch w.Type {
	case TypeHealth:
		if w.URL, err = expandHTTPURL(w.URL, "url"); err != nil {
			return err
		}
		if w.Body, err = expandEnvVars(w.Body); err != nil {
			return fmt.Errorf("body: %w", err)
		}
		if err := expandHeaders(w.Headers); err != nil {
			return err
		}
		if err := validateMethod(w.Method, w.Body); err != nil {
			return err
		}
		if err := validateTimeout(w.Timeout); err != nil {
			return err
		}
		return validateStatusCodes(w.AcceptedStatusCodes)

	case TypeTCP:
		if w.Host == "" {
			return errors.New("host is required")
		}
		if w.Host, err = expandEnvVars(w.Host); err != nil {
			return fmt.Errorf("host: %w", err)
		}
		if w.Port < 1 || w.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", w.Port)
		}
		return validateTimeout(w.Timeout)

	case TypeRSS:
		if w.URL, err = expandHTTPURL(w.URL, "url"); err != nil {
			return err
		}
		if w.Limit < 0 || w.Limit > maxFeedLimit {
			return fmt.Errorf("limit must be between 1 and %d, got %d", maxFeedLimit, w.Limit)
		}
		return nil

	case TypeWeather:
		if w.Location, err = expandEnvVars(w.Location); err != nil {
			return fmt.Errorf("location: %w", err)
		}
		hasCoords := w.Latitude != nil || w.Longitude != nil
		switch {
		case w.Location != "" && hasCoords:
			return errors.New("location and latitude/longitude are mutually exclusive")
		case w.Location == "" && !hasCoords:
			return errors.New("location or latitude and longitude is required")
		case hasCoords && (w.Latitude == nil || w.Longitude == nil):
			return errors.New("latitude and longitude must be set together")
		case hasCoords && (*w.Latitude < -90 || *w.Latitude > 90):
			return fmt.Errorf("latitude must be between -90 and 90, got %g", *w.Latitude)
		case hasCoords && (*w.Longitude < -180 || *w.Longitude > 180):
			return fmt.Errorf("longitude must be between -180 and 180, got %g", *w.Longitude)
		}
		if w.Units != "" && w.Units != "metric" && w.Units != "imperial" {
			return fmt.Errorf("units must be metric or imperial, got %q", w.Units)
		}
		if w.Days < 0 || w.Days > maxForecastDays {
			return fmt.Errorf("days must be between 1 and %d, got %d", maxForecastDays, w.Days)
		}
		return nil

	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown type %q (expected health, tcp, rss or weather)", w.Type)
	}
}

func (g *GridConfig) expandAndValidate() error {
	if g.ID == "" {
		return errors.New("id is required")
	}

	if g.URLTemplate == "" {
		return errors.New("url_template is required")
	}
	expanded, err := expandEnvVars(g.URLTemplate)
	if err != nil {
		return fmt.Errorf("url_template: %w", err)
	}
	g.URLTemplate = expanded

	// fail fast before the SDK tries to use an invalid template
	if _, err := template.New("").Parse(g.URLTemplate); err != nil {
		return fmt.Errorf("invalid url_template: %w", err)
	}

	if len(g.Dimensions) == 0 {
		return errors.New("at least one dimension is required")
	}
	for dimName, dimValues := range g.Dimensions {
		if len(dimValues) == 0 {
			return fmt.Errorf("dimension %q has no values", dimName)
		}
		seen := make(map[string]struct{}, len(dimValues))
		for _, v := range dimValues {
			if _, exists := seen[v]; exists {
				return fmt.Errorf("dimension %q has duplicate value %q", dimName, v)
			}
			seen[v] = struct{}{}
		}
	}

	if err := expandHeaders(g.Headers); err != nil {
		return err
	}
	if err := validateMethod(g.Method, ""); err != nil {
		return err
	}
	if err := validateTimeout(g.Timeout); err != nil {
		return err
	}
	if err := validateInterval(g.Interval); err != nil {
		return err
	}
	return validateStatusCodes(g.AcceptedStatusCodes)
}

// expandHTTPURL expands env vars in raw and checks it is an absolute
// http(s) URL.
func expandHTTPURL(raw, field string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	expanded, err := expandEnvVars(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}

	parsedURL, err := url.Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", field, err)
	}
	if parsedURL.Scheme == "" {
		return "", fmt.Errorf("%s must have a scheme (http:// or https://)", field)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("%s scheme must be http or https, got %q", field, parsedURL.Scheme)
	}
	return expanded, nil
}

func expandHeaders(headers map[string]string) error {
	for k, v := range headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		headers[k] = expanded
	}
	return nil
}

func validateMethod(method, body string) error {
	switch strings.ToUpper(method) {
	case "", "GET", "HEAD":
		if body != "" {
			return errors.New("body is not allowed for GET or HEAD")
		}
	case "POST", "PUT", "PATCH", "DELETE", "OPTIONS":
	default:
		return fmt.Errorf("unsupported method %q", method)
	}
	return nil
}

func validateTimeout(d Duration) error {
	if d == 0 {
		return nil
	}
	if d.Duration() < minTimeout || d.Duration() > maxTimeout {
		return fmt.Errorf("timeout must be between %s and %s, got %s", minTimeout, maxTimeout, d.Duration())
	}
	return nil
}

func validateInterval(d Duration) error {
	if d != 0 && d.Duration() < minInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minInterval, d.Duration())
	}
	return nil
}

func validateStatusCodes(codes []int) error {
	for _, code := range codes {
		if code < 100 || code > 599 {
			return fmt.Errorf("accepted_status_codes: %d is not a valid HTTP status", code)
		}
	}
	return nil
}
