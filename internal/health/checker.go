package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// dialFunc matches net.Dialer.DialContext.
type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Checker performs single HTTP and TCP probes.
type Checker struct {
	client *Client
	dial   dialFunc
	logger *slog.Logger
	now    func() time.Time
}

// NewChecker creates a [Checker] with its own pooled HTTP client.
func NewChecker(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	var dialer net.Dialer
	return &Checker{
		client: NewClient(),
		dial:   dialer.DialContext,
		logger: logger,
		now:    time.Now,
	}
}

// Perform runs check once and classifies the outcome. It never returns an
// error: failures are reported as [StatusUnhealthy] with Result.Error set.
func (c *Checker) Perform(ctx context.Context, check Check) Result {
	switch ch := check.(type) {
	case HTTPCheck:
		return c.performHTTP(ctx, ch)
	case *HTTPCheck:
		return c.performHTTP(ctx, *ch)
	case TCPCheck:
		return c.performTCP(ctx, ch)
	case *TCPCheck:
		return c.performTCP(ctx, *ch)
	default:
		return Result{
			Status:    StatusUnknown,
			Error:     fmt.Sprintf("unsupported check type %T", check),
			CheckedAt: c.now(),
		}
	}
}

func (c *Checker) performHTTP(ctx context.Context, check HTTPCheck) Result {
	resp := c.client.Fetch(ctx, Request{
		Method:  check.method(),
		URL:     check.URL,
		Headers: check.Headers,
		Body:    check.Body,
		Timeout: timeoutOrDefault(check.Timeout),
	})

	result := Result{
		Status:     classifyHTTP(check, resp),
		Latency:    resp.Latency,
		StatusCode: resp.StatusCode,
		CheckedAt:  c.now(),
	}
	if resp.Error != nil {
		result.Error = resp.Error.Error()
		result.Latency = 0
	} else if !check.accepts(resp.StatusCode) {
		result.Error = fmt.Sprintf("unexpected status code %d", resp.StatusCode)
	}

	c.logger.Debug("http check completed",
		"url", check.URL,
		"status", result.Status,
		"status_code", result.StatusCode,
		"latency_ms", result.Latency.Milliseconds(),
	)
	return result
}

func (c *Checker) performTCP(ctx context.Context, check TCPCheck) Result {
	timeout := timeoutOrDefault(check.Timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	conn, err := c.dial(ctx, "tcp", check.Target())
	latency := time.Since(start)

	if err != nil {
		msg := fmt.Sprintf("connection failed: %v", err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
			msg = fmt.Sprintf("connection timed out after %dms", timeout.Milliseconds())
		}
		c.logger.Debug("tcp check failed", "target", check.Target(), "error", msg)
		return Result{
			Status:    StatusUnhealthy,
			Error:     msg,
			CheckedAt: c.now(),
		}
	}
	_ = conn.Close()

	return Result{
		Status:    classifyTCP(latency),
		Latency:   latency,
		CheckedAt: c.now(),
	}
}

// Close releases pooled HTTP connections.
func (c *Checker) Close() {
	c.client.Close()
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
