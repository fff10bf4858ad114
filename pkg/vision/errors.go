package vision

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("vision: API key required")

	// ErrResponseFormat is returned when the model reply holds no
	// parseable JSON array. Previous detection state stays valid.
	ErrResponseFormat = errors.New("vision: response is not a detection array")

	// ErrEmptyResponse is returned when the service reply carried no
	// candidate text at all.
	ErrEmptyResponse = errors.New("vision: empty model response")
)

// quotaKeywords mark rate limiting in error text even when the HTTP
// status is not 429.
var quotaKeywords = []string{"quota", "resource_exhausted", "rate limit"}

// APIError is an error response from the vision service.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the service.
	Message string

	// RetryDelay is the service-suggested wait extracted from the error
	// body, or 0 when none was present.
	RetryDelay time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("vision: API error %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether this error should drive the backoff
// controller: HTTP 429 or a quota keyword in the message.
func (e *APIError) IsRateLimited() bool {
	if e.StatusCode == 429 {
		return true
	}
	msg := strings.ToLower(e.Message)
	for _, kw := range quotaKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// IsServerError reports a server-side failure (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// RateLimitInfo extracts rate-limit handling data from any error.
// Returns (suggested retry delay, true) when err is a rate-limit error.
func RateLimitInfo(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsRateLimited() {
		return apiErr.RetryDelay, true
	}
	return 0, false
}

// retryDelayPattern matches the service's retryDelay":"8s" / "retryDelay": "8.5s"
// error-body convention.
var retryDelayPattern = regexp.MustCompile(`retryDelay"?\s*:\s*"?(\d+(?:\.\d+)?)s`)

// parseRetryDelay pulls a suggested delay out of an error body.
// Returns 0 when none is present.
func parseRetryDelay(body string) time.Duration {
	m := retryDelayPattern.FindStringSubmatch(body)
	if m == nil {
		return 0
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
