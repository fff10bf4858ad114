package speech

import (
	"strings"
	"testing"

	"github.com/pathsight/go-pathsight/pkg/detect"
)

func TestPositionOf(t *testing.T) {
	tests := []struct {
		name string
		box  detect.Box2D
		want string
	}{
		{"left far", detect.Box2D{X: 0.05, Y: 0.1, Width: 0.1, Height: 0.1}, "on your left, far"},
		{"right far", detect.Box2D{X: 0.8, Y: 0.1, Width: 0.1, Height: 0.1}, "on your right, far"},
		{"center far", detect.Box2D{X: 0.45, Y: 0.1, Width: 0.1, Height: 0.1}, "ahead, far"},
		{"center near", detect.Box2D{X: 0.45, Y: 0.6, Width: 0.1, Height: 0.2}, "ahead, near"},
		{"left near", detect.Box2D{X: 0.05, Y: 0.7, Width: 0.1, Height: 0.2}, "on your left, near"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PositionOf(tt.box); got != tt.want {
				t.Errorf("PositionOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDistanceOf(t *testing.T) {
	// Model-provided distance wins over the area tier.
	b := detect.Box2D{Width: 0.6, Height: 0.6, Distance: "about two meters"}
	if got := DistanceOf(b); got != "about two meters" {
		t.Errorf("DistanceOf() = %q, want model estimate", got)
	}

	tiers := []struct {
		side string // square box side
		want string
	}{
		{"0.6", "within arm's reach"}, // area 0.36
		{"0.45", "very close"},        // area 0.2025
		{"0.35", "close"},             // area 0.1225
		{"0.25", "approaching"},       // area 0.0625
		{"0.15", "in the distance"},   // area 0.0225
		{"0.05", "far away"},          // area 0.0025
	}
	sides := []float64{0.6, 0.45, 0.35, 0.25, 0.15, 0.05}
	for i, tt := range tiers {
		s := sides[i]
		got := DistanceOf(detect.Box2D{Width: s, Height: s})
		if got != tt.want {
			t.Errorf("DistanceOf(side=%s) = %q, want %q", tt.side, got, tt.want)
		}
	}
}

func TestDepthTier(t *testing.T) {
	tests := []struct {
		z    float64
		want string
	}{
		{0.4, "within arm's reach"},
		{1.0, "very close"},
		{1.8, "close"},
		{3.0, "approaching"},
		{5.0, "in the distance"},
		{9.0, "far away"},
	}
	for _, tt := range tests {
		if got := DepthTier(tt.z); got != tt.want {
			t.Errorf("DepthTier(%v) = %q, want %q", tt.z, got, tt.want)
		}
	}
}

func TestHazardText(t *testing.T) {
	b := detect.Box2D{X: 0.3, Y: 0.5, Width: 0.4, Height: 0.4, Label: "car"}
	got := hazardText(b)
	if !strings.HasPrefix(got, "Caution! car") {
		t.Errorf("hazardText() = %q, want Caution! prefix", got)
	}
	if !strings.Contains(got, "ahead, near") {
		t.Errorf("hazardText() = %q, want position", got)
	}
}

func TestClassInterrupts(t *testing.T) {
	for _, c := range []Class{ClassUrgent, ClassSummary, ClassPath} {
		if !c.Interrupts() {
			t.Errorf("%s should interrupt", c)
		}
	}
	for _, c := range []Class{ClassGuidance, ClassAmbient} {
		if c.Interrupts() {
			t.Errorf("%s should not interrupt", c)
		}
	}
}
