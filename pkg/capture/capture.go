// Package capture acquires still frames from a live video source.
package capture

import (
	"encoding/base64"
	"errors"
)

// Sentinel errors.
var (
	// ErrNotReady means the source has no frame yet; callers retry on
	// the next cycle without treating it as a failure.
	ErrNotReady = errors.New("capture: video source not ready")

	// ErrUnavailable means the source reported ready but produced a
	// zero-dimension frame. The source drops its ready flag so callers
	// stop issuing requests until it re-verifies.
	ErrUnavailable = errors.New("capture: video source unavailable")

	// ErrClosed means the source has been closed.
	ErrClosed = errors.New("capture: source closed")
)

// Source produces compressed still frames.
type Source interface {
	// CaptureJPEG returns the current frame as JPEG bytes.
	// Returns ErrNotReady while the source warms up and ErrUnavailable
	// when a supposedly ready source yields an empty frame.
	CaptureJPEG() ([]byte, error)

	// Ready reports whether the source is currently delivering frames.
	Ready() bool

	// Close releases the device.
	Close() error
}

// DataURL wraps JPEG bytes as the base64 data payload the vision
// request format uses.
func DataURL(jpeg []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}
