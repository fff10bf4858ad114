package track

import (
	"fmt"
	"strings"
	"time"
)

// FrameHistoryEntry is one analyzed frame's summary, kept for building
// the scene-context hint sent with the next vision request.
type FrameHistoryEntry struct {
	Timestamp         time.Time       `json:"timestamp"`
	Detections        []TrackedObject `json:"detections"`
	MovementDirection string          `json:"movement_direction"`
}

// History is a bounded ring of recent frame summaries.
type History struct {
	entries []FrameHistoryEntry
	size    int
}

// NewHistory creates a history ring. Size is clamped to 1-5.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	if size > 5 {
		size = 5
	}
	return &History{size: size}
}

// Push appends a frame summary, evicting the oldest entry when full.
func (h *History) Push(entry FrameHistoryEntry) {
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.size {
		h.entries = h.entries[len(h.entries)-h.size:]
	}
}

// Entries returns the buffered entries, oldest first.
func (h *History) Entries() []FrameHistoryEntry {
	out := make([]FrameHistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of buffered entries.
func (h *History) Len() int { return len(h.entries) }

// ContextHint builds the textual context for the next vision request
// from the most recent entry:
//
//	"3 seconds ago I saw: chair, door. I am currently stationary."
//
// Returns "" when there is no history yet.
func (h *History) ContextHint(now time.Time) string {
	if len(h.entries) == 0 {
		return ""
	}
	last := h.entries[len(h.entries)-1]
	secs := int(now.Sub(last.Timestamp).Seconds() + 0.5)
	if secs < 1 {
		secs = 1
	}

	labels := make([]string, 0, len(last.Detections))
	seen := make(map[string]bool, len(last.Detections))
	for _, d := range last.Detections {
		if seen[d.Label] {
			continue
		}
		seen[d.Label] = true
		labels = append(labels, d.Label)
	}

	movement := last.MovementDirection
	if movement == "" {
		movement = "stationary"
	}

	if len(labels) == 0 {
		return fmt.Sprintf("%d seconds ago I saw nothing notable. I am currently %s.", secs, movement)
	}
	return fmt.Sprintf("%d seconds ago I saw: %s. I am currently %s.",
		secs, strings.Join(labels, ", "), movement)
}
