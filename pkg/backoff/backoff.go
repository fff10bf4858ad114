// Package backoff throttles vision requests after rate-limit errors.
//
// The controller is explicitly owned by the session and passed to the
// pipeline; there is no process-global state. Two mechanisms layer on
// top of the nominal polling cadence: a bounded exponential backoff
// window after each rate-limit error, and a dynamic inter-request
// buffer that grows with every rate-limit event and persists for the
// rest of the session even after backoff ends.
package backoff

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrMaxRetries is returned when rate-limit errors keep coming past the
// configured retry budget. The session surfaces it to the operator and
// stops issuing vision requests; Exhausted stays true from then on.
var ErrMaxRetries = errors.New("backoff: rate limit retries exhausted")

// State of the controller.
type State string

const (
	StateIdle    State = "idle"
	StateBackoff State = "backoff"
)

// Config holds the backoff tunables.
type Config struct {
	BaseDelay       time.Duration // First exponential step
	MaxDelay        time.Duration // Cap for a single backoff window
	BufferIncrement time.Duration // Added to the dynamic buffer per event
	MaxBuffer       time.Duration // Cap for the dynamic buffer
	MaxRetries      int           // Consecutive rate-limit errors before giving up
}

// DefaultConfig returns the recommended backoff configuration.
func DefaultConfig() Config {
	return Config{
		BaseDelay:       1 * time.Second,
		MaxDelay:        10 * time.Second,
		BufferIncrement: 2 * time.Second,
		MaxBuffer:       15 * time.Second,
		MaxRetries:      5,
	}
}

// Snapshot is the externally visible rate-limit state.
type Snapshot struct {
	State             State         `json:"state"`
	Retries           int           `json:"retries"`
	ConsecutiveErrors int           `json:"consecutive_errors"`
	DynamicBuffer     time.Duration `json:"dynamic_buffer"`
	BackoffUntil      time.Time     `json:"backoff_until,omitempty"`
}

// Controller implements the Idle -> Backoff -> Idle state machine.
// Safe for concurrent use.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	mu           sync.Mutex
	retries      int
	consecutive  int
	buffer       time.Duration
	backoffUntil time.Time

	now func() time.Time
}

// New creates a controller with the given configuration.
func New(cfg Config) *Controller {
	return &Controller{
		cfg:    cfg,
		logger: slog.Default().With("component", "backoff"),
		now:    time.Now,
	}
}

// OnRateLimited records a rate-limit error and enters the backoff state.
// The window is the larger of the service-suggested delay (0 when the
// error carried none) and the exponential default, capped at MaxDelay.
// The dynamic buffer grows by one increment, capped at MaxBuffer; it is
// never rolled back. Returns ErrMaxRetries once the retry budget is
// spent.
func (c *Controller) OnRateLimited(suggested time.Duration) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.retries++
	c.consecutive++

	delay := c.cfg.BaseDelay << (c.retries - 1)
	if c.retries > 16 || delay > c.cfg.MaxDelay || delay <= 0 {
		delay = c.cfg.MaxDelay
	}
	if suggested > delay {
		delay = suggested
	}
	if delay > c.cfg.MaxDelay && suggested <= c.cfg.MaxDelay {
		delay = c.cfg.MaxDelay
	}

	c.backoffUntil = c.now().Add(delay)

	if c.buffer < c.cfg.MaxBuffer {
		c.buffer += c.cfg.BufferIncrement
		if c.buffer > c.cfg.MaxBuffer {
			c.buffer = c.cfg.MaxBuffer
		}
	}

	c.logger.Warn("rate limited",
		"retries", c.retries,
		"delay", delay,
		"buffer", c.buffer,
	)

	if c.retries > c.cfg.MaxRetries {
		return delay, ErrMaxRetries
	}
	return delay, nil
}

// OnTransientError records a non-rate-limit request failure. It feeds
// the consecutive error count but does not trigger backoff.
func (c *Controller) OnTransientError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutive++
}

// OnSuccess resets the retry and consecutive error counters. The dynamic
// buffer keeps its value: a session that hit quota once stays slowed.
func (c *Controller) OnSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries = 0
	c.consecutive = 0
}

// InBackoff reports whether requests are currently suspended.
func (c *Controller) InBackoff() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.backoffUntil)
}

// Buffer returns the dynamic inter-request buffer to add to the polling
// cadence.
func (c *Controller) Buffer() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

// Exhausted reports whether the retry budget is spent.
func (c *Controller) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retries > c.cfg.MaxRetries
}

// Snapshot returns the current state for dashboards and the journal.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := StateIdle
	if c.now().Before(c.backoffUntil) {
		state = StateBackoff
	}
	return Snapshot{
		State:             state,
		Retries:           c.retries,
		ConsecutiveErrors: c.consecutive,
		DynamicBuffer:     c.buffer,
		BackoffUntil:      c.backoffUntil,
	}
}
