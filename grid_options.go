package tileboard

import (
	"errors"
	"fmt"
	"time"
)

// gridConfig holds configuration during health grid construction.
type gridConfig struct {
	urlTemplate         string
	dimensions          map[string][]string
	headers             map[string]string
	timeout             time.Duration
	method              string
	interval            time.Duration
	acceptedStatusCodes []int
}

// GridOption configures [NewHealthGrid].
type GridOption func(*gridConfig) error

// WithURLTemplate sets the URL template for widget generation.
// The template uses Go's text/template syntax with dimension keys as variables.
//
// Example:
//
//	WithURLTemplate("https://api.example.com/health?env={{.env}}&region={{.region}}")
//
// Returns an error if the template string is empty.
func WithURLTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if tmpl == "" {
			return errors.New("URL template required")
		}
		cfg.urlTemplate = tmpl
		return nil
	}
}

// WithDimensions sets the dimension values for cartesian product expansion.
// Each key becomes a template variable.
//
// Returns an error if the map is empty, any dimension has no values,
// or any value is an empty string.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
		}
		cfg.dimensions = dims
		return nil
	}
}

// WithGridHeaders adds request headers to every generated widget.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
func WithGridHeaders(keyValues ...string) GridOption {
	return func(cfg *gridConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithGridHeaders requires an even number of arguments (key-value pairs)")
		}
		if cfg.headers == nil {
			cfg.headers = make(map[string]string)
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithGridTimeout sets the probe timeout of every generated widget.
// Zero means the default.
func WithGridTimeout(d time.Duration) GridOption {
	return func(cfg *gridConfig) error {
		if d < 0 {
			return errors.New("timeout cannot be negative")
		}
		cfg.timeout = d
		return nil
	}
}

// WithGridMethod sets the HTTP method of every generated widget.
func WithGridMethod(method string) GridOption {
	return func(cfg *gridConfig) error {
		if method == "" {
			return errors.New("method cannot be empty")
		}
		cfg.method = method
		return nil
	}
}

// WithGridInterval sets the polling interval of every generated widget.
// Zero means the health default of 30 seconds.
func WithGridInterval(d time.Duration) GridOption {
	return func(cfg *gridConfig) error {
		if d < 0 {
			return errors.New("interval cannot be negative")
		}
		if d != 0 && d < time.Second {
			return errors.New("interval must be at least 1 second")
		}
		cfg.interval = d
		return nil
	}
}

// WithGridAcceptedStatusCodes sets the accepted response codes of every
// generated widget.
func WithGridAcceptedStatusCodes(codes ...int) GridOption {
	return func(cfg *gridConfig) error {
		if len(codes) == 0 {
			return errors.New("at least one status code required")
		}
		cfg.acceptedStatusCodes = append([]int(nil), codes...)
		return nil
	}
}
