// Package track maintains object identity across vision frames.
//
// Detections arrive a few seconds apart from the model with no ids of
// their own, so continuity is a heuristic: new boxes are matched against
// the previous frame by center distance and size similarity, matched
// objects keep their id, and briefly missing objects are carried over
// one cycle as "fading" so speech and display do not flicker on a single
// missed detection.
package track

import (
	"strings"
	"time"

	"github.com/pathsight/go-pathsight/pkg/detect"
)

// Movement classifies how a tracked object is moving relative to the
// camera.
type Movement string

const (
	MovementApproaching Movement = "approaching"
	MovementReceding    Movement = "receding"
	MovementStationary  Movement = "stationary"
	MovementLeft        Movement = "left"
	MovementRight       Movement = "right"
)

// TrackedObject is a detection with a persistent identity.
type TrackedObject struct {
	detect.Box2D

	// ID is stable across frames while the object keeps matching.
	ID string `json:"id"`

	// Movement is the current movement classification.
	Movement Movement `json:"movement"`

	// FirstSeen and LastSeen bound the object's observed lifetime.
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`

	// PrevArea is the box area at the previous observation, used for
	// the approach/recede comparison.
	PrevArea float64 `json:"prev_area"`

	// Fading marks a carry-over: the object was not detected this frame
	// but was seen very recently. Fading objects are display/advisory
	// continuity only and are not re-processed.
	Fading bool `json:"fading,omitempty"`
}

// movementFromHint maps the model's free-text movement field onto a
// classification. Returns "" when the text holds no recognized keyword.
func movementFromHint(hint string) Movement {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "approach"):
		return MovementApproaching
	case strings.Contains(h, "reced"), strings.Contains(h, "away"), strings.Contains(h, "further"):
		return MovementReceding
	case strings.Contains(h, "left"):
		return MovementLeft
	case strings.Contains(h, "right"):
		return MovementRight
	}
	return ""
}
