package speech

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pathsight/go-pathsight/pkg/track"
)

// Config tunes the advisory policy. Zero values are replaced by the
// defaults below.
type Config struct {
	// Cooldown is the minimum gap between non-interrupting
	// announcements.
	Cooldown time.Duration

	// SummaryInterval is how often the environment summary fires.
	SummaryInterval time.Duration

	// HazardArea is the box area above which any object is a hazard.
	HazardArea float64

	// CenterHazardArea is the lower area threshold for objects that are
	// both horizontally centered and in the lower part of the frame.
	CenterHazardArea float64

	// MaxObstacles caps the guidance list.
	MaxObstacles int

	// MaxPeripheral caps the ambient list.
	MaxPeripheral int

	// HistoryTimeout prunes label memory after this much silence.
	HistoryTimeout time.Duration
}

// DefaultConfig returns the standard advisory policy.
func DefaultConfig() Config {
	return Config{
		Cooldown:         3 * time.Second,
		SummaryInterval:  20 * time.Second,
		HazardArea:       0.15,
		CenterHazardArea: 0.08,
		MaxObstacles:     3,
		MaxPeripheral:    2,
		HistoryTimeout:   30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Cooldown <= 0 {
		c.Cooldown = d.Cooldown
	}
	if c.SummaryInterval <= 0 {
		c.SummaryInterval = d.SummaryInterval
	}
	if c.HazardArea <= 0 {
		c.HazardArea = d.HazardArea
	}
	if c.CenterHazardArea <= 0 {
		c.CenterHazardArea = d.CenterHazardArea
	}
	if c.MaxObstacles <= 0 {
		c.MaxObstacles = d.MaxObstacles
	}
	if c.MaxPeripheral <= 0 {
		c.MaxPeripheral = d.MaxPeripheral
	}
	if c.HistoryTimeout <= 0 {
		c.HistoryTimeout = d.HistoryTimeout
	}
	return c
}

type labelMemory struct {
	count    int
	lastSeen time.Time
}

// Advisor converts tracked objects into the messages worth speaking for
// one frame. It remembers what it said recently so repeated frames of
// the same scene stay quiet.
type Advisor struct {
	cfg    Config
	logger *slog.Logger

	lastSpoken   time.Time
	lastSummary  time.Time
	lastTexts    map[string]time.Time
	labelHistory map[string]labelMemory

	now func() time.Time
}

// NewAdvisor builds an advisor with the given policy.
func NewAdvisor(cfg Config, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{
		cfg:          cfg.withDefaults(),
		logger:       logger,
		lastTexts:    make(map[string]time.Time),
		labelHistory: make(map[string]labelMemory),
		now:          time.Now,
	}
}

// Advise returns the messages to speak for the current frame, highest
// priority first. The slice may be empty when the cooldown suppresses
// everything.
func (a *Advisor) Advise(objects []track.TrackedObject) []Message {
	now := a.now()
	a.pruneHistory(now)
	for _, o := range objects {
		m := a.labelHistory[o.Label]
		m.count++
		m.lastSeen = now
		a.labelHistory[o.Label] = m
	}

	var out []Message

	// Nothing seen recently means nothing worth summarizing.
	if len(a.labelHistory) > 0 && now.Sub(a.lastSummary) >= a.cfg.SummaryInterval {
		out = append(out, Message{Text: a.summaryText(), Class: ClassSummary})
		a.lastSummary = now
	}

	hazards, obstacles, peripheral := a.partition(objects)

	for _, h := range hazards {
		out = append(out, Message{Text: hazardText(h.Box2D), Class: ClassUrgent})
	}

	// Only when there is nothing to describe at all; a scene with
	// peripheral objects gets their descriptions instead.
	if len(hazards) == 0 && len(obstacles) == 0 && len(peripheral) == 0 {
		out = append(out, Message{Text: "Path clear ahead", Class: ClassPath})
	}

	for i, o := range obstacles {
		if i >= a.cfg.MaxObstacles {
			break
		}
		out = append(out, Message{Text: guidanceText(o), Class: ClassGuidance})
	}
	for i, o := range peripheral {
		if i >= a.cfg.MaxPeripheral {
			break
		}
		out = append(out, Message{Text: ambientText(o), Class: ClassAmbient})
	}

	return a.filter(out, now)
}

// partition splits objects into hazards, path obstacles, and peripheral
// sightings. Fading carry-overs never count as hazards.
func (a *Advisor) partition(objects []track.TrackedObject) (hazards, obstacles, peripheral []track.TrackedObject) {
	for _, o := range objects {
		if !o.Fading && a.isHazard(o) {
			hazards = append(hazards, o)
			continue
		}
		if inPath(o) {
			obstacles = append(obstacles, o)
		} else {
			peripheral = append(peripheral, o)
		}
	}
	byArea := func(s []track.TrackedObject) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Area() > s[j].Area() })
	}
	byArea(hazards)
	byArea(obstacles)
	byArea(peripheral)
	return hazards, obstacles, peripheral
}

// isHazard reports whether an object demands an urgent warning: very
// large anywhere, or moderately large while centered and low in the
// frame.
func (a *Advisor) isHazard(o track.TrackedObject) bool {
	area := o.Area()
	if area > a.cfg.HazardArea {
		return true
	}
	cx, cy := o.CenterX(), o.CenterY()
	return area > a.cfg.CenterHazardArea && cx > 1.0/3.0 && cx < 2.0/3.0 && cy > 0.6
}

// inPath reports whether the object sits in the center third.
func inPath(o track.TrackedObject) bool {
	cx := o.CenterX()
	return cx > 1.0/3.0 && cx < 2.0/3.0
}

func guidanceText(o track.TrackedObject) string {
	text := fmt.Sprintf("%s %s, %s", o.Label, PositionOf(o.Box2D), DistanceOf(o.Box2D))
	switch o.Movement {
	case track.MovementApproaching:
		text += ", getting closer"
	case track.MovementReceding:
		text += ", moving away"
	}
	return text
}

func ambientText(o track.TrackedObject) string {
	return fmt.Sprintf("%s %s", o.Label, PositionOf(o.Box2D))
}

// summaryText lists the most frequently seen labels since the last
// prune, most common first.
func (a *Advisor) summaryText() string {
	type lc struct {
		label string
		count int
	}
	var ls []lc
	for label, m := range a.labelHistory {
		ls = append(ls, lc{label, m.count})
	}
	sort.Slice(ls, func(i, j int) bool {
		if ls[i].count != ls[j].count {
			return ls[i].count > ls[j].count
		}
		return ls[i].label < ls[j].label
	})
	if len(ls) > 5 {
		ls = ls[:5]
	}
	labels := make([]string, len(ls))
	for i, l := range ls {
		labels[i] = l.label
	}
	return "Around you: " + strings.Join(labels, ", ")
}

// filter applies the cooldown and duplicate suppression. Interrupting
// classes always pass; everything else waits out the cooldown and is
// dropped if the exact text was spoken within the history timeout.
// Summaries always pass duplicate suppression since repetition is their
// point.
func (a *Advisor) filter(msgs []Message, now time.Time) []Message {
	// Cooldown is judged against speech from previous frames, not
	// against earlier messages in this batch.
	prevSpoken := a.lastSpoken
	var out []Message
	for _, m := range msgs {
		if !m.Class.Interrupts() && !prevSpoken.IsZero() && now.Sub(prevSpoken) < a.cfg.Cooldown {
			continue
		}
		if m.Class != ClassSummary {
			// A hazard that persists must warn again once the cooldown
			// passes; lower classes stay quiet much longer.
			window := a.cfg.HistoryTimeout
			if m.Class == ClassUrgent {
				window = a.cfg.Cooldown
			}
			if last, ok := a.lastTexts[m.Text]; ok && now.Sub(last) < window {
				continue
			}
		}
		a.lastTexts[m.Text] = now
		a.lastSpoken = now
		out = append(out, m)
	}
	if len(out) > 0 {
		a.logger.Debug("advisories generated", "count", len(out), "first", out[0].Text)
	}
	return out
}

func (a *Advisor) pruneHistory(now time.Time) {
	for label, m := range a.labelHistory {
		if now.Sub(m.lastSeen) > a.cfg.HistoryTimeout {
			delete(a.labelHistory, label)
		}
	}
	for text, t := range a.lastTexts {
		if now.Sub(t) > a.cfg.HistoryTimeout {
			delete(a.lastTexts, text)
		}
	}
}
