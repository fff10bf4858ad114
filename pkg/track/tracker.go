package track

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pathsight/go-pathsight/pkg/detect"
)

// maxCenterDistance is the largest possible center distance in the unit
// square, used to normalize the distance term of the match score.
var maxCenterDistance = math.Sqrt2

// seenEntry is the persistent per-id bookkeeping that outlives a single
// frame's output.
type seenEntry struct {
	label     string
	firstSeen time.Time
	lastSeen  time.Time
}

// Tracker assigns persistent ids to per-frame detections.
// It is not safe for concurrent use; the pipeline calls it from a single
// goroutine.
type Tracker struct {
	cfg    Config
	logger *slog.Logger

	prev    []TrackedObject
	seen    map[string]seenEntry
	history *History

	// now is swappable for tests.
	now func() time.Time
}

// New creates a tracker with the given configuration.
func New(cfg Config) *Tracker {
	return &Tracker{
		cfg:     cfg,
		logger:  slog.Default().With("component", "track"),
		seen:    make(map[string]seenEntry),
		history: NewHistory(cfg.clampedHistorySize()),
		now:     time.Now,
	}
}

// History returns the tracker's frame history ring.
func (t *Tracker) History() *History {
	return t.history
}

// Current returns the most recent frame's tracked objects.
func (t *Tracker) Current() []TrackedObject {
	out := make([]TrackedObject, len(t.prev))
	copy(out, t.prev)
	return out
}

// Update matches this frame's detections against the previous frame and
// returns the frame's tracked objects: matched objects keep their id and
// get a movement classification, unmatched detections mint fresh ids,
// and very recently seen objects with no match are carried over once,
// marked fading.
func (t *Tracker) Update(boxes []detect.Box2D) []TrackedObject {
	now := t.now()
	out := make([]TrackedObject, 0, len(boxes))
	consumed := make(map[string]bool, len(t.prev))

	for _, box := range boxes {
		match, ok := t.bestMatch(box, now, consumed)
		if ok {
			consumed[match.ID] = true
			out = append(out, t.updateMatched(match, box, now))
			continue
		}
		out = append(out, t.mintObject(box, now))
	}

	t.pruneSeen(now)
	out = append(out, t.carryOver(now, consumed, out)...)

	t.prev = out
	return out
}

// bestMatch finds the highest-scoring previous object for a new box.
// Greedy: earlier boxes in this frame consume candidates first; there is
// no global optimal assignment.
func (t *Tracker) bestMatch(box detect.Box2D, now time.Time, consumed map[string]bool) (TrackedObject, bool) {
	var best TrackedObject
	bestScore := t.cfg.MatchThreshold
	found := false

	for _, prev := range t.prev {
		if consumed[prev.ID] {
			continue
		}
		if now.Sub(prev.LastSeen) > t.cfg.MatchWindow {
			continue
		}
		score := t.matchScore(box, prev)
		if score > bestScore {
			bestScore = score
			best = prev
			found = true
		}
	}
	return best, found
}

// matchScore combines center proximity and size similarity:
// CenterWeight*(1 - normalized center distance) + SizeWeight*(area ratio).
func (t *Tracker) matchScore(box detect.Box2D, prev TrackedObject) float64 {
	dx := box.CenterX() - prev.CenterX()
	dy := box.CenterY() - prev.CenterY()
	dist := math.Sqrt(dx*dx+dy*dy) / maxCenterDistance

	area, prevArea := box.Area(), prev.Area()
	ratio := 0.0
	if area > 0 && prevArea > 0 {
		ratio = math.Min(area, prevArea) / math.Max(area, prevArea)
	}

	return t.cfg.CenterWeight*(1-dist) + t.cfg.SizeWeight*ratio
}

// updateMatched carries an id forward and classifies movement by area
// change, letting a model-provided movement hint win over the computed
// value.
func (t *Tracker) updateMatched(prev TrackedObject, box detect.Box2D, now time.Time) TrackedObject {
	obj := TrackedObject{
		Box2D:     box,
		ID:        prev.ID,
		FirstSeen: prev.FirstSeen,
		LastSeen:  now,
		PrevArea:  prev.Area(),
		Movement:  t.classifyMovement(box, prev.Area()),
	}
	if hint := movementFromHint(box.MovementHint); hint != "" {
		obj.Movement = hint
	}
	t.seen[obj.ID] = seenEntry{label: obj.Label, firstSeen: obj.FirstSeen, lastSeen: now}
	return obj
}

// classifyMovement compares current area to the previous observation:
// growth beyond MovementDelta is approaching, shrinkage is receding.
func (t *Tracker) classifyMovement(box detect.Box2D, prevArea float64) Movement {
	if prevArea <= 0 {
		return MovementStationary
	}
	change := (box.Area() - prevArea) / prevArea
	switch {
	case change > t.cfg.MovementDelta:
		return MovementApproaching
	case change < -t.cfg.MovementDelta:
		return MovementReceding
	}
	return MovementStationary
}

// mintObject creates a fresh identity for an unmatched detection.
func (t *Tracker) mintObject(box detect.Box2D, now time.Time) TrackedObject {
	id := fmt.Sprintf("obj-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
	obj := TrackedObject{
		Box2D:     box,
		ID:        id,
		FirstSeen: now,
		LastSeen:  now,
		Movement:  MovementStationary,
	}
	if hint := movementFromHint(box.MovementHint); hint != "" {
		obj.Movement = hint
	}
	t.seen[id] = seenEntry{label: box.Label, firstSeen: now, lastSeen: now}
	return obj
}

// pruneSeen drops id bookkeeping not refreshed within StaleTimeout.
func (t *Tracker) pruneSeen(now time.Time) {
	for id, entry := range t.seen {
		if now.Sub(entry.lastSeen) > t.cfg.StaleTimeout {
			delete(t.seen, id)
		}
	}
}

// carryOver re-emits previous objects that were seen within FadingWindow
// but got no match this frame, marked fading. An object already fading
// is not carried again, so a miss buys exactly one extra cycle.
func (t *Tracker) carryOver(now time.Time, consumed map[string]bool, current []TrackedObject) []TrackedObject {
	var faded []TrackedObject
	for _, prev := range t.prev {
		if consumed[prev.ID] || prev.Fading {
			continue
		}
		if now.Sub(prev.LastSeen) > t.cfg.FadingWindow {
			continue
		}
		obj := prev
		obj.Fading = true
		faded = append(faded, obj)
	}
	if len(faded) > 0 {
		t.logger.Debug("carrying over fading objects", "count", len(faded), "live", len(current))
	}
	return faded
}
