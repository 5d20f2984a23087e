package health

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestClassifyHTTP(t *testing.T) {
	tests := []struct {
		name  string
		check HTTPCheck
		resp  Response
		want  Status
	}{
		{"200 fast", HTTPCheck{}, Response{StatusCode: 200, Latency: 450 * time.Millisecond}, StatusHealthy},
		{"200 slow", HTTPCheck{}, Response{StatusCode: 200, Latency: 1500 * time.Millisecond}, StatusDegraded},
		{"200 at degraded bound", HTTPCheck{}, Response{StatusCode: 200, Latency: 500 * time.Millisecond}, StatusDegraded},
		{"200 very slow", HTTPCheck{}, Response{StatusCode: 200, Latency: 2 * time.Second}, StatusUnhealthy},
		{"503 fast", HTTPCheck{}, Response{StatusCode: 503, Latency: 50 * time.Millisecond}, StatusUnhealthy},
		{"301 accepted by default", HTTPCheck{}, Response{StatusCode: 301, Latency: 10 * time.Millisecond}, StatusHealthy},
		{"404 not accepted", HTTPCheck{}, Response{StatusCode: 404, Latency: 10 * time.Millisecond}, StatusUnhealthy},
		{"custom accepted", HTTPCheck{AcceptedStatusCodes: []int{418}}, Response{StatusCode: 418, Latency: 10 * time.Millisecond}, StatusHealthy},
		{"custom excludes 200", HTTPCheck{AcceptedStatusCodes: []int{418}}, Response{StatusCode: 200, Latency: 10 * time.Millisecond}, StatusUnhealthy},
		{"execution error", HTTPCheck{}, Response{Error: errors.New("refused"), Latency: time.Millisecond}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyHTTP(tt.check, tt.resp); got != tt.want {
				t.Errorf("classifyHTTP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyTCP(t *testing.T) {
	tests := []struct {
		latency time.Duration
		want    Status
	}{
		{5 * time.Millisecond, StatusHealthy},
		{99 * time.Millisecond, StatusHealthy},
		{100 * time.Millisecond, StatusDegraded},
		{499 * time.Millisecond, StatusDegraded},
		{500 * time.Millisecond, StatusUnhealthy},
	}

	for _, tt := range tests {
		if got := classifyTCP(tt.latency); got != tt.want {
			t.Errorf("classifyTCP(%v) = %v, want %v", tt.latency, got, tt.want)
		}
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	checked := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	data, err := json.Marshal(Result{Status: StatusHealthy, Latency: 120 * time.Millisecond, StatusCode: 200, CheckedAt: checked})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"latency_ms":120`) || !strings.Contains(string(data), `"status_code":200`) {
		t.Errorf("Marshal() = %s", data)
	}

	data, _ = json.Marshal(Result{Status: StatusUnhealthy, Error: "refused", CheckedAt: checked})
	if !strings.Contains(string(data), `"latency_ms":null`) {
		t.Errorf("unknown latency should be null: %s", data)
	}
}
