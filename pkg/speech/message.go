// Package speech turns detection state into prioritized spoken
// advisories.
//
// Messages are generated by rule, not by the model: hazard warnings
// first, then path guidance for a few obstacles, then ambient
// descriptions, with periodic environment summaries layered on top.
// Each message carries a class that selects the synthesizer's rate,
// pitch, and volume, and decides whether it may interrupt ongoing
// speech.
package speech

import (
	"fmt"

	"github.com/pathsight/go-pathsight/pkg/detect"
)

// Class ranks a message and selects its voice parameters.
type Class string

const (
	// ClassUrgent is an immediate hazard warning. Interrupts speech.
	ClassUrgent Class = "urgent"

	// ClassSummary is the periodic environment summary. Interrupts.
	ClassSummary Class = "summary"

	// ClassPath is path guidance ("Path clear ahead"). Interrupts.
	ClassPath Class = "path"

	// ClassGuidance describes prioritized obstacles. Respects cooldown.
	ClassGuidance Class = "guidance"

	// ClassAmbient describes peripheral objects. Respects cooldown.
	ClassAmbient Class = "ambient"
)

// Message is one advisory ready for synthesis.
type Message struct {
	Text  string `json:"text"`
	Class Class  `json:"class"`
}

// Interrupts reports whether the class may cut off ongoing speech and
// ignore the inter-announcement cooldown.
func (c Class) Interrupts() bool {
	switch c {
	case ClassUrgent, ClassSummary, ClassPath:
		return true
	}
	return false
}

// Params are the synthesis settings for a message class.
type Params struct {
	Rate   float64 // 1.0 = normal speaking rate
	Pitch  float64 // 1.0 = normal pitch
	Volume float64 // 0.0-1.0
}

// ParamsFor returns the voice tuning for a class. Urgent messages are
// faster and higher pitched so they read as warnings.
func ParamsFor(c Class) Params {
	switch c {
	case ClassUrgent:
		return Params{Rate: 1.3, Pitch: 1.2, Volume: 1.0}
	case ClassSummary:
		return Params{Rate: 1.0, Pitch: 1.0, Volume: 0.9}
	case ClassAmbient:
		return Params{Rate: 1.0, Pitch: 0.95, Volume: 0.8}
	default:
		return Params{Rate: 1.1, Pitch: 1.0, Volume: 1.0}
	}
}

// PositionOf renders a box center as qualitative position: horizontal
// third crossed with the vertical band (objects lower in the frame are
// closer to the walker).
func PositionOf(b detect.Box2D) string {
	var horiz string
	switch cx := b.CenterX(); {
	case cx < 1.0/3.0:
		horiz = "on your left"
	case cx > 2.0/3.0:
		horiz = "on your right"
	default:
		horiz = "ahead"
	}
	if b.CenterY() > 0.55 {
		return horiz + ", near"
	}
	return horiz + ", far"
}

// DistanceOf renders a distance phrase: the model's own estimate when it
// gave one, else a tier from the box area.
func DistanceOf(b detect.Box2D) string {
	if b.Distance != "" {
		return b.Distance
	}
	return distanceTier(b.Area())
}

// distanceTier maps unit-square area to a spoken distance band.
func distanceTier(area float64) string {
	switch {
	case area > 0.25:
		return "within arm's reach"
	case area > 0.15:
		return "very close"
	case area > 0.08:
		return "close"
	case area > 0.04:
		return "approaching"
	case area > 0.01:
		return "in the distance"
	}
	return "far away"
}

// DepthTier maps a 3D z-coordinate (meters from the camera) to the same
// spoken bands as the 2D area tiers.
func DepthTier(z float64) string {
	switch {
	case z < 0.6:
		return "within arm's reach"
	case z < 1.2:
		return "very close"
	case z < 2.0:
		return "close"
	case z < 3.5:
		return "approaching"
	case z < 6.0:
		return "in the distance"
	}
	return "far away"
}

// hazardText formats the urgent warning.
func hazardText(b detect.Box2D) string {
	return fmt.Sprintf("Caution! %s %s, %s", b.Label, PositionOf(b), DistanceOf(b))
}
