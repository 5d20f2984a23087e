package health

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimeout = 5 * time.Second
	MinTimeout     = time.Second
	MaxTimeout     = 20 * time.Second
)

// DefaultAcceptedStatusCodes are the response codes an HTTP check treats as
// reachable when none are configured.
var DefaultAcceptedStatusCodes = []int{200, 201, 202, 204, 301, 302, 304}

var (
	// ErrBodyNotAllowed is returned by Validate for a GET or HEAD check with a body.
	ErrBodyNotAllowed = errors.New("request body is not allowed for GET or HEAD")

	// ErrInvalidCheck is returned by Validate for malformed checks.
	ErrInvalidCheck = errors.New("invalid check")
)

// Check is a probe definition: either an [HTTPCheck] or a [TCPCheck].
// The set of implementations is closed.
type Check interface {
	// Target identifies the probed resource (URL or host:port).
	Target() string

	// DedupeKey canonicalises the resource so checks against the same
	// endpoint share a key.
	DedupeKey() string

	// Validate reports configuration errors.
	Validate() error

	isCheck()
}

// HTTPCheck probes an HTTP endpoint.
type HTTPCheck struct {
	URL     string            `json:"url" yaml:"url"`
	Method  string            `json:"method,omitempty" yaml:"method"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers"`
	Body    string            `json:"body,omitempty" yaml:"body"`
	Timeout time.Duration     `json:"-" yaml:"-"`

	// AcceptedStatusCodes defaults to [DefaultAcceptedStatusCodes].
	AcceptedStatusCodes []int `json:"accepted_status_codes,omitempty" yaml:"accepted_status_codes"`
}

// TCPCheck probes a TCP port by opening a connection.
type TCPCheck struct {
	Host    string        `json:"host" yaml:"host"`
	Port    int           `json:"port" yaml:"port"`
	Timeout time.Duration `json:"-" yaml:"-"`
}

func (HTTPCheck) isCheck() {}
func (TCPCheck) isCheck()  {}

// Target returns the URL.
func (c HTTPCheck) Target() string {
	return c.URL
}

// DedupeKey returns "http:METHOD URL".
func (c HTTPCheck) DedupeKey() string {
	return "http:" + c.method() + " " + c.URL
}

// Validate checks the URL, method, timeout and body constraints.
func (c HTTPCheck) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidCheck)
	}
	parsed, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%w: invalid url: %v", ErrInvalidCheck, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: url scheme must be http or https, got %q", ErrInvalidCheck, parsed.Scheme)
	}
	switch c.method() {
	case http.MethodGet, http.MethodHead:
		if c.Body != "" {
			return ErrBodyNotAllowed
		}
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions:
	default:
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidCheck, c.Method)
	}
	if err := validateTimeout(c.Timeout); err != nil {
		return err
	}
	for _, code := range c.AcceptedStatusCodes {
		if code < 100 || code > 599 {
			return fmt.Errorf("%w: accepted status code %d out of range", ErrInvalidCheck, code)
		}
	}
	return nil
}

func (c HTTPCheck) method() string {
	if c.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(c.Method)
}

func (c HTTPCheck) accepts(code int) bool {
	accepted := c.AcceptedStatusCodes
	if len(accepted) == 0 {
		accepted = DefaultAcceptedStatusCodes
	}
	for _, a := range accepted {
		if a == code {
			return true
		}
	}
	return false
}

// Target returns host:port.
func (c TCPCheck) Target() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DedupeKey returns "tcp:host:port" with the host lowercased.
func (c TCPCheck) DedupeKey() string {
	return "tcp:" + net.JoinHostPort(strings.ToLower(c.Host), strconv.Itoa(c.Port))
}

// Validate checks host, port and timeout.
func (c TCPCheck) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidCheck)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalidCheck, c.Port)
	}
	return validateTimeout(c.Timeout)
}

// validateTimeout allows zero (meaning [DefaultTimeout]) or 1s to 20s.
func validateTimeout(d time.Duration) error {
	if d == 0 {
		return nil
	}
	if d < MinTimeout || d > MaxTimeout {
		return fmt.Errorf("%w: timeout must be between %s and %s, got %s", ErrInvalidCheck, MinTimeout, MaxTimeout, d)
	}
	return nil
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
