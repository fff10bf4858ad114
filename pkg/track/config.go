package track

import "time"

// Config holds all tunable parameters for cross-frame tracking.
// The thresholds are empirical; they were carried over from field
// testing and are deliberately configuration, not constants.
type Config struct {
	// Matching
	MatchThreshold float64       // Minimum score to reuse an id
	CenterWeight   float64       // Weight of center-distance similarity
	SizeWeight     float64       // Weight of area-ratio similarity
	MatchWindow    time.Duration // Only match against objects seen this recently

	// Movement classification
	MovementDelta float64 // Relative area change that counts as motion (0.05 = 5%)

	// Lifecycle
	StaleTimeout time.Duration // Forget ids not seen for this long
	FadingWindow time.Duration // Carry over unmatched objects seen this recently

	// History
	HistorySize int // Frame history ring size (clamped to 1-5)
}

// DefaultConfig returns the recommended tracking configuration.
func DefaultConfig() Config {
	return Config{
		MatchThreshold: 0.6,
		CenterWeight:   0.7,
		SizeWeight:     0.3,
		MatchWindow:    10 * time.Second,
		MovementDelta:  0.05,
		StaleTimeout:   30 * time.Second,
		FadingWindow:   3 * time.Second,
		HistorySize:    3,
	}
}

// StickyConfig returns a configuration that holds identities longer,
// for slow polling cadences where frames are far apart.
func StickyConfig() Config {
	cfg := DefaultConfig()
	cfg.MatchThreshold = 0.5
	cfg.MatchWindow = 15 * time.Second
	cfg.FadingWindow = 5 * time.Second
	return cfg
}

// StrictConfig returns a configuration that mints new ids more readily,
// for fast cadences where spurious id reuse is worse than churn.
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.MatchThreshold = 0.7
	cfg.MatchWindow = 6 * time.Second
	cfg.FadingWindow = 2 * time.Second
	return cfg
}

// clampedHistorySize bounds the ring size to the supported 1-5 range.
func (c Config) clampedHistorySize() int {
	switch {
	case c.HistorySize < 1:
		return 1
	case c.HistorySize > 5:
		return 5
	}
	return c.HistorySize
}
