package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jpalmerr/tileboard/internal/cache"
)

const (
	ForecastTTL = 10 * time.Minute
	GeocodeTTL  = 60 * time.Minute

	DefaultDays = 3
	MaxDays     = 16

	DefaultGeocodeResults = 5
	MaxGeocodeResults     = 10

	// MinQueryLength is the shortest geocoding query accepted.
	MinQueryLength = 2

	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"

	defaultLanguage   = "en"
	defaultTimeout    = 10 * time.Second
	defaultMaxEntries = 512
	defaultRatePerSec = 5
	maxResponseSize   = 1 << 20 // 1MB
)

var (
	ErrQueryTooShort      = errors.New("geocoding query must be at least 2 characters")
	ErrLocationNotFound   = errors.New("location not found")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidUnits       = errors.New("units must be metric or imperial")
)

// Config configures a [Client]. Zero fields take defaults.
type Config struct {
	ForecastURL   string
	GeocodeURL    string
	HTTPClient    *http.Client
	ForecastCache *cache.Cache[string, *Forecast]
	GeocodeCache  *cache.Cache[string, []Location]
}

// Client fetches forecasts and geocoding results through caches.
type Client struct {
	forecastURL string
	geocodeURL  string
	httpClient  *http.Client
	forecasts   *cache.Cache[string, *Forecast]
	geocodes    *cache.Cache[string, []Location]
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a weather [Client].
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		forecastURL: cfg.ForecastURL,
		geocodeURL:  cfg.GeocodeURL,
		httpClient:  cfg.HTTPClient,
		forecasts:   cfg.ForecastCache,
		geocodes:    cfg.GeocodeCache,
		limiter:     rate.NewLimiter(rate.Limit(defaultRatePerSec), defaultRatePerSec),
		logger:      logger,
	}
	if c.forecastURL == "" {
		c.forecastURL = DefaultForecastURL
	}
	if c.geocodeURL == "" {
		c.geocodeURL = DefaultGeocodeURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.forecasts == nil {
		c.forecasts = NewForecastCache(0)
	}
	if c.geocodes == nil {
		c.geocodes = NewGeocodeCache(0)
	}
	return c
}

// NewForecastCache creates the forecast cache with [ForecastTTL].
func NewForecastCache(maxEntries int) *cache.Cache[string, *Forecast] {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return cache.New[string, *Forecast]("weather", ForecastTTL, maxEntries)
}

// NewGeocodeCache creates the geocoding cache with [GeocodeTTL].
func NewGeocodeCache(maxEntries int) *cache.Cache[string, []Location] {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return cache.New[string, []Location]("geocode", GeocodeTTL, maxEntries)
}

// Caches returns the client's caches for sweeping.
func (c *Client) Caches() []cache.Sweepable {
	return []cache.Sweepable{c.forecasts, c.geocodes}
}

// NormalizeOptions applies defaults and validates opts.
func NormalizeOptions(opts Options) (Options, error) {
	if opts.Units == "" {
		opts.Units = UnitsMetric
	}
	if !opts.Units.Valid() {
		return opts, fmt.Errorf("%w: %q", ErrInvalidUnits, opts.Units)
	}
	switch {
	case opts.Days <= 0:
		opts.Days = DefaultDays
	case opts.Days > MaxDays:
		opts.Days = MaxDays
	}
	return opts, nil
}

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %g out of range", ErrInvalidCoordinates, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %g out of range", ErrInvalidCoordinates, lon)
	}
	return nil
}

// ForecastKey is the canonical identity of a forecast request. Coordinates
// are rounded to two decimals, about 1km.
func ForecastKey(lat, lon float64, opts Options) string {
	return fmt.Sprintf("%.2f,%.2f|%s|%d", lat, lon, opts.Units, opts.Days)
}

// ByCoordinates returns the forecast for a point, from cache when fresh.
func (c *Client) ByCoordinates(ctx context.Context, lat, lon float64, opts Options) (*Forecast, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	opts, err := NormalizeOptions(opts)
	if err != nil {
		return nil, err
	}

	key := ForecastKey(lat, lon, opts)
	if f, ok := c.forecasts.Get(key); ok {
		return f, nil
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,weather_code,wind_speed_10m")
	params.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max")
	params.Set("timezone", "auto")
	params.Set("forecast_days", strconv.Itoa(opts.Days))
	if opts.Units == UnitsImperial {
		params.Set("temperature_unit", "fahrenheit")
		params.Set("wind_speed_unit", "mph")
	}

	var raw forecastResponse
	if err := c.getJSON(ctx, c.forecastURL, params, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	f := raw.toForecast(opts.Units)
	c.forecasts.SetDefault(key, f)
	return f, nil
}

// Geocode resolves a place name to candidate locations, from cache when
// fresh. An unmatched query returns an empty slice, not an error.
func (c *Client) Geocode(ctx context.Context, query string, opts GeocodeOptions) ([]Location, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	switch {
	case opts.Count <= 0:
		opts.Count = DefaultGeocodeResults
	case opts.Count > MaxGeocodeResults:
		opts.Count = MaxGeocodeResults
	}
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}

	key := fmt.Sprintf("%s|%d|%s", strings.ToLower(query), opts.Count, strings.ToLower(opts.Language))
	if locs, ok := c.geocodes.Get(key); ok {
		return locs, nil
	}

	params := url.Values{}
	params.Set("name", query)
	params.Set("count", strconv.Itoa(opts.Count))
	params.Set("language", opts.Language)
	params.Set("format", "json")

	var raw geocodeResponse
	if err := c.getJSON(ctx, c.geocodeURL, params, &raw); err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", query, err)
	}

	locs := make([]Location, 0, len(raw.Results))
	for _, r := range raw.Results {
		locs = append(locs, Location{
			Name:        r.Name,
			Country:     r.Country,
			CountryCode: r.CountryCode,
			Region:      r.Admin1,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Timezone:    r.Timezone,
		})
	}
	c.geocodes.SetDefault(key, locs)
	return locs, nil
}

// ByLocation geocodes query and returns the forecast for the best match.
func (c *Client) ByLocation(ctx context.Context, query string, opts Options) (*Forecast, error) {
	locs, err := c.Geocode(ctx, query, GeocodeOptions{Count: 1})
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, query)
	}

	loc := locs[0]
	f, err := c.ByCoordinates(ctx, loc.Latitude, loc.Longitude, opts)
	if err != nil {
		return nil, err
	}

	// the cached forecast is shared; attach the location to a copy
	out := *f
	out.Location = &loc
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Reason string `json:"reason"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&apiErr)
		if apiErr.Reason != "" {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, apiErr.Reason)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("open-meteo request completed",
		"endpoint", endpoint,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
