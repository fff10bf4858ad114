package track

import (
	"testing"
	"time"

	"github.com/pathsight/go-pathsight/pkg/detect"
)

// fakeClock drives the tracker's notion of time in tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time              { return c.t }
func (c *fakeClock) Advance(d time.Duration)     { c.t = c.t.Add(d) }
func newTestTracker(cfg Config) (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tr := New(cfg)
	tr.now = clock.Now
	return tr, clock
}

func box(x, y, w, h float64, label string) detect.Box2D {
	return detect.Box2D{X: x, Y: y, Width: w, Height: h, Label: label}
}

func TestTracker_StableIDAcrossFrames(t *testing.T) {
	tr, clock := newTestTracker(DefaultConfig())

	first := tr.Update([]detect.Box2D{box(0.4, 0.4, 0.2, 0.2, "chair")})
	if len(first) != 1 {
		t.Fatalf("frame 1: got %d objects", len(first))
	}

	clock.Advance(3 * time.Second)
	second := tr.Update([]detect.Box2D{box(0.42, 0.41, 0.2, 0.2, "chair")})
	if len(second) != 1 {
		t.Fatalf("frame 2: got %d objects", len(second))
	}
	if second[0].ID != first[0].ID {
		t.Errorf("id changed: %q vs %q", second[0].ID, first[0].ID)
	}
	if second[0].FirstSeen != first[0].FirstSeen {
		t.Error("FirstSeen should be preserved on match")
	}
}

func TestTracker_DistantBoxMintsNewID(t *testing.T) {
	tr, clock := newTestTracker(DefaultConfig())

	first := tr.Update([]detect.Box2D{box(0.0, 0.0, 0.1, 0.1, "chair")})
	clock.Advance(3 * time.Second)
	second := tr.Update([]detect.Box2D{box(0.85, 0.85, 0.1, 0.1, "chair")})

	if second[0].ID == first[0].ID {
		t.Error("opposite-corner box should not reuse the id")
	}
}

func TestTracker_MovementClassification(t *testing.T) {
	cases := []struct {
		name  string
		scale float64 // linear scale of the second box
		want  Movement
	}{
		{"growing", 1.10, MovementApproaching},  // area +21%
		{"shrinking", 0.90, MovementReceding},   // area -19%
		{"steady", 1.01, MovementStationary},    // area +2%
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, clock := newTestTracker(DefaultConfig())
			tr.Update([]detect.Box2D{box(0.4, 0.4, 0.2, 0.2, "chair")})
			clock.Advance(3 * time.Second)

			w := 0.2 * tc.scale
			out := tr.Update([]detect.Box2D{box(0.5-w/2, 0.5-w/2, w, w, "chair")})
			if len(out) != 1 {
				t.Fatalf("got %d objects", len(out))
			}
			if out[0].Movement != tc.want {
				t.Errorf("movement: got %s, want %s", out[0].Movement, tc.want)
			}
		})
	}
}

func TestTracker_MovementHintOverrides(t *testing.T) {
	tr, clock := newTestTracker(DefaultConfig())
	tr.Update([]detect.Box2D{box(0.4, 0.4, 0.2, 0.2, "person")})
	clock.Advance(3 * time.Second)

	// Same size (computed: stationary) but the model says it's coming.
	b := box(0.4, 0.4, 0.2, 0.2, "person")
	b.MovementHint = "approaching quickly"
	out := tr.Update([]detect.Box2D{b})
	if out[0].Movement != MovementApproaching {
		t.Errorf("hint should override: got %s", out[0].Movement)
	}

	clock.Advance(3 * time.Second)
	b.MovementHint = "moving away"
	out = tr.Update([]detect.Box2D{b})
	if out[0].Movement != MovementReceding {
		t.Errorf("'away' hint: got %s", out[0].Movement)
	}
}

func TestTracker_FadingCarryOverOnce(t *testing.T) {
	tr, clock := newTestTracker(DefaultConfig())

	first := tr.Update([]detect.Box2D{box(0.4, 0.4, 0.2, 0.2, "chair")})
	id := first[0].ID

	// Next frame: object missing but seen 2s ago -> carried once, fading.
	clock.Advance(2 * time.Second)
	out := tr.Update(nil)
	if len(out) != 1 {
		t.Fatalf("expected one fading carry-over, got %d", len(out))
	}
	if !out[0].Fading || out[0].ID != id {
		t.Errorf("carry-over: %+v", out[0])
	}

	// Still absent next frame: the fading copy is not carried again.
	clock.Advance(2 * time.Second)
	out = tr.Update(nil)
	if len(out) != 0 {
		t.Errorf("fading object should disappear after one extra cycle, got %d", len(out))
	}
}

func TestTracker_NoFadingBeyondWindow(t *testing.T) {
	tr, clock := newTestTracker(DefaultConfig())
	tr.Update([]detect.Box2D{box(0.4, 0.4, 0.2, 0.2, "chair")})

	// Absent and last seen beyond the fading window: gone immediately.
	clock.Advance(5 * time.Second)
	if out := tr.Update(nil); len(out) != 0 {
		t.Errorf("expected no carry-over after window, got %d", len(out))
	}
}

func TestTracker_LongAbsenceForgetsID(t *testing.T) {
	tr, clock := newTestTracker(DefaultConfig())
	first := tr.Update([]detect.Box2D{box(0.4, 0.4, 0.2, 0.2, "chair")})
	id := first[0].ID

	clock.Advance(40 * time.Second)
	tr.Update(nil) // prunes bookkeeping, nothing to emit

	if _, ok := tr.seen[id]; ok {
		t.Error("id bookkeeping should be pruned after the stale timeout")
	}

	// Reappearing after >30s gets a new identity.
	out := tr.Update([]detect.Box2D{box(0.4, 0.4, 0.2, 0.2, "chair")})
	if len(out) != 1 {
		t.Fatalf("got %d objects", len(out))
	}
	if out[0].ID == id {
		t.Error("stale object must not regain its old id")
	}
	if out[0].Fading {
		t.Error("reappeared object must not be fading")
	}
}

func TestTracker_GreedyConsumesCandidate(t *testing.T) {
	tr, clock := newTestTracker(DefaultConfig())
	first := tr.Update([]detect.Box2D{box(0.4, 0.4, 0.2, 0.2, "chair")})
	clock.Advance(2 * time.Second)

	// Two near-identical boxes compete for one previous object: only one may
	// take the id, the other mints a fresh one.
	out := tr.Update([]detect.Box2D{
		box(0.41, 0.4, 0.2, 0.2, "chair"),
		box(0.4, 0.41, 0.2, 0.2, "chair"),
	})
	if len(out) != 2 {
		t.Fatalf("got %d objects", len(out))
	}
	reused := 0
	for _, o := range out {
		if o.ID == first[0].ID {
			reused++
		}
	}
	if reused != 1 {
		t.Errorf("previous id reused %d times, want exactly 1", reused)
	}
}

func TestMatchScore_PerfectOverlap(t *testing.T) {
	tr, _ := newTestTracker(DefaultConfig())
	b := box(0.4, 0.4, 0.2, 0.2, "chair")
	prev := TrackedObject{Box2D: b}
	score := tr.matchScore(b, prev)
	if score < 0.999 {
		t.Errorf("identical boxes should score ~1.0, got %v", score)
	}
}
