package pipeline

import (
	"time"

	"github.com/pathsight/go-pathsight/pkg/track"
	"github.com/pathsight/go-pathsight/pkg/vision"
)

// NavMode is the user-selected verbosity and audio-richness tier.
type NavMode string

const (
	// NavBasic speaks advisories only.
	NavBasic NavMode = "basic"

	// NavDetailed adds spatial audio cues and scene-context hints on
	// vision requests.
	NavDetailed NavMode = "detailed"

	// NavAdvanced is NavDetailed plus ambient descriptions of
	// peripheral objects.
	NavAdvanced NavMode = "advanced"
)

// ParseNavMode validates a mode string, falling back to NavBasic.
func ParseNavMode(s string) NavMode {
	switch NavMode(s) {
	case NavBasic, NavDetailed, NavAdvanced:
		return NavMode(s)
	}
	return NavBasic
}

// SpatialAudio reports whether the mode plays positional tones.
func (m NavMode) SpatialAudio() bool { return m != NavBasic }

// SceneContext reports whether vision requests carry the frame-history
// hint.
func (m NavMode) SceneContext() bool { return m != NavBasic }

const (
	// MinInterval and MaxInterval bound the nominal polling cadence.
	MinInterval = 1 * time.Second
	MaxInterval = 30 * time.Second
)

// Config holds the session tunables. Zero values take the defaults
// below.
type Config struct {
	// Interval is the nominal time between vision requests, before the
	// dynamic rate-limit buffer is added.
	Interval time.Duration

	// Tick is the scheduler granularity. The loop wakes at this rate
	// and checks whether a request is due.
	Tick time.Duration

	// RequestTimeout bounds one vision round trip.
	RequestTimeout time.Duration

	// StallTimeout clears the in-flight guard when a request neither
	// returns nor times out, so one wedged call cannot stop the loop.
	StallTimeout time.Duration

	// NavMode is the initial verbosity tier.
	NavMode NavMode

	// DetectionMode selects the vision query style.
	DetectionMode vision.Mode

	// FallbackBoxes synthesizes placeholder boxes when a response
	// parses but every record is malformed.
	FallbackBoxes bool

	// Tracking selects the tracker preset: "sticky" holds identities
	// longer for slow cadences, "strict" mints new ids more readily for
	// fast ones. Anything else uses the default.
	Tracking string

	// HistorySize is the frame-history ring size for context hints.
	HistorySize int
}

// trackerConfig maps the preset name to a tracker configuration.
func trackerConfig(preset string) track.Config {
	switch preset {
	case "sticky":
		return track.StickyConfig()
	case "strict":
		return track.StrictConfig()
	}
	return track.DefaultConfig()
}

// DefaultConfig returns the standard session settings.
func DefaultConfig() Config {
	return Config{
		Interval:       3 * time.Second,
		Tick:           1 * time.Second,
		RequestTimeout: 25 * time.Second,
		StallTimeout:   45 * time.Second,
		NavMode:        NavBasic,
		DetectionMode:  vision.Mode2D,
		FallbackBoxes:  true,
		HistorySize:    3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	c.Interval = clampInterval(c.Interval)
	if c.Tick <= 0 {
		c.Tick = d.Tick
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.StallTimeout <= 0 {
		c.StallTimeout = d.StallTimeout
	}
	if c.NavMode == "" {
		c.NavMode = d.NavMode
	}
	if c.DetectionMode == "" {
		c.DetectionMode = d.DetectionMode
	}
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	return c
}

func clampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d
}
