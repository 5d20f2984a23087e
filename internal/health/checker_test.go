package health

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_PerformHTTP(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantStatus Status
		wantErr    string
	}{
		{"ok", http.StatusOK, StatusHealthy, ""},
		{"no content", http.StatusNoContent, StatusHealthy, ""},
		{"service unavailable", http.StatusServiceUnavailable, StatusUnhealthy, "unexpected status code 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer server.Close()

			checker := NewChecker(testLogger())
			defer checker.Close()

			result := checker.Perform(context.Background(), HTTPCheck{URL: server.URL, Timeout: 5 * time.Second})
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", result.Status, tt.wantStatus)
			}
			if result.StatusCode != tt.code {
				t.Errorf("StatusCode = %d, want %d", result.StatusCode, tt.code)
			}
			if result.Error != tt.wantErr {
				t.Errorf("Error = %q, want %q", result.Error, tt.wantErr)
			}
			if result.Latency <= 0 {
				t.Errorf("Latency = %v, want > 0", result.Latency)
			}
			if result.CheckedAt.IsZero() {
				t.Error("CheckedAt not set")
			}
		})
	}
}

func TestChecker_PerformHTTP_PointerCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	result := NewChecker(testLogger()).Perform(context.Background(), &HTTPCheck{URL: server.URL})
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", result.Status)
	}
}

func TestChecker_PerformHTTP_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	result := NewChecker(testLogger()).Perform(context.Background(), HTTPCheck{URL: "http://" + addr, Timeout: 2 * time.Second})
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
	if result.Error == "" {
		t.Error("Error is empty for refused connection")
	}
	if result.Latency != 0 {
		t.Errorf("Latency = %v, want 0 for failed probe", result.Latency)
	}
}

func TestChecker_PerformTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	tcpAddr := ln.Addr().(*net.TCPAddr)
	result := NewChecker(testLogger()).Perform(context.Background(), TCPCheck{Host: "127.0.0.1", Port: tcpAddr.Port})
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy (error %q)", result.Status, result.Error)
	}
	if result.Error != "" {
		t.Errorf("Error = %q, want empty", result.Error)
	}
}

func TestChecker_PerformTCP_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	result := NewChecker(testLogger()).Perform(context.Background(), TCPCheck{Host: "127.0.0.1", Port: port, Timeout: time.Second})
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
	if !strings.HasPrefix(result.Error, "connection failed") {
		t.Errorf("Error = %q, want connection failed prefix", result.Error)
	}
}

func TestChecker_PerformTCP_Timeout(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	result := checker.Perform(context.Background(), TCPCheck{Host: "10.255.255.1", Port: 81, Timeout: time.Second})
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
	if result.Error != "connection timed out after 1000ms" {
		t.Errorf("Error = %q, want timeout message", result.Error)
	}
}

func TestChecker_PerformNilCheck(t *testing.T) {
	result := NewChecker(testLogger()).Perform(context.Background(), nil)
	if result.Status != StatusUnknown {
		t.Errorf("Status = %v, want unknown", result.Status)
	}
}
