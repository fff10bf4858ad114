package vision

import (
	"fmt"
	"testing"
	"time"
)

func TestParseRetryDelay(t *testing.T) {
	cases := []struct {
		body string
		want time.Duration
	}{
		{`{"error":{"details":[{"retryDelay":"8s"}]}}`, 8 * time.Second},
		{`retryDelay":"8s"`, 8 * time.Second},
		{`"retryDelay": "2.5s"`, 2500 * time.Millisecond},
		{`{"error":{"message":"quota exceeded"}}`, 0},
		{``, 0},
	}
	for _, tc := range cases {
		if got := parseRetryDelay(tc.body); got != tc.want {
			t.Errorf("parseRetryDelay(%q) = %v, want %v", tc.body, got, tc.want)
		}
	}
}

func TestAPIError_IsRateLimited(t *testing.T) {
	cases := []struct {
		status  int
		message string
		want    bool
	}{
		{429, "too many requests", true},
		{403, "Quota exceeded for requests per minute", true},
		{400, "RESOURCE_EXHAUSTED", true},
		{500, "internal error", false},
		{400, "bad request", false},
	}
	for _, tc := range cases {
		e := &APIError{StatusCode: tc.status, Message: tc.message}
		if got := e.IsRateLimited(); got != tc.want {
			t.Errorf("status=%d message=%q: got %v, want %v", tc.status, tc.message, got, tc.want)
		}
	}
}

func TestRateLimitInfo(t *testing.T) {
	apiErr := &APIError{StatusCode: 429, RetryDelay: 8 * time.Second}
	delay, ok := RateLimitInfo(fmt.Errorf("request failed: %w", apiErr))
	if !ok || delay != 8*time.Second {
		t.Errorf("got (%v, %v), want (8s, true)", delay, ok)
	}

	if _, ok := RateLimitInfo(fmt.Errorf("connection refused")); ok {
		t.Error("plain error should not be rate limited")
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&APIError{StatusCode: 429}, false},
		{ErrResponseFormat, false},
		{&APIError{StatusCode: 503}, true},
		{&APIError{StatusCode: 400, Message: "bad request"}, false},
		{fmt.Errorf("dial tcp: connection refused"), true},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
