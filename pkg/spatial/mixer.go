package spatial

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pathsight/go-pathsight/pkg/track"
)

// Config tunes the mixer. Zero values take the defaults below.
type Config struct {
	// SampleRate for rendered chunks.
	SampleRate int

	// ChunkDuration is the length of each rendered tone burst.
	ChunkDuration time.Duration

	// MaxVoices caps how many objects sound at once.
	MaxVoices int

	// VoiceExpiry drops a voice after this long without a matching
	// detection.
	VoiceExpiry time.Duration

	// MinVolume and MaxVolume clamp the size-derived gain.
	MinVolume float64
	MaxVolume float64
}

// DefaultConfig returns the standard mixer settings.
func DefaultConfig() Config {
	return Config{
		SampleRate:    22050,
		ChunkDuration: 300 * time.Millisecond,
		MaxVoices:     3,
		VoiceExpiry:   2 * time.Second,
		MinVolume:     0.15,
		MaxVolume:     1.0,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.ChunkDuration <= 0 {
		c.ChunkDuration = d.ChunkDuration
	}
	if c.MaxVoices <= 0 {
		c.MaxVoices = d.MaxVoices
	}
	if c.VoiceExpiry <= 0 {
		c.VoiceExpiry = d.VoiceExpiry
	}
	if c.MinVolume <= 0 {
		c.MinVolume = d.MinVolume
	}
	if c.MaxVolume <= 0 {
		c.MaxVolume = d.MaxVolume
	}
	return c
}

type voice struct {
	tone     Tone
	lastSeen time.Time
}

// Mixer keeps one tone per prioritized obstacle and renders the mix to
// a sink on each update.
type Mixer struct {
	cfg    Config
	sink   Sink
	logger *slog.Logger

	mu     sync.Mutex
	voices map[string]voice

	now func() time.Time
}

// NewMixer builds a mixer writing to the given sink. The sink may be
// nil; Update then only maintains the tone set, which is useful for
// display.
func NewMixer(cfg Config, sink Sink, logger *slog.Logger) *Mixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mixer{
		cfg:    cfg.withDefaults(),
		sink:   sink,
		logger: logger,
		voices: make(map[string]voice),
		now:    time.Now,
	}
}

// Update refreshes the voice set from the current frame and renders one
// chunk. Objects are prioritized by how centered they are, then by
// size; at most MaxVoices sound at once. Voices for objects missing
// from the frame keep sounding until VoiceExpiry so a single missed
// detection does not produce silence.
func (m *Mixer) Update(ctx context.Context, objects []track.TrackedObject) error {
	now := m.now()

	selected := m.prioritize(objects)

	m.mu.Lock()
	for _, o := range selected {
		m.voices[o.ID] = voice{tone: m.toneFor(o), lastSeen: now}
	}
	for id, v := range m.voices {
		if now.Sub(v.lastSeen) > m.cfg.VoiceExpiry {
			delete(m.voices, id)
		}
	}
	tones := make([]Tone, 0, len(m.voices))
	for _, v := range m.voices {
		tones = append(tones, v.tone)
	}
	m.mu.Unlock()

	sort.Slice(tones, func(i, j int) bool { return tones[i].ID < tones[j].ID })

	if m.sink == nil {
		return nil
	}
	chunk := renderChunk(tones, m.cfg.ChunkDuration, m.cfg.SampleRate)
	return m.sink.Write(ctx, chunk)
}

// Tones returns the currently sounding tone set, ordered by id.
func (m *Mixer) Tones() []Tone {
	m.mu.Lock()
	tones := make([]Tone, 0, len(m.voices))
	for _, v := range m.voices {
		tones = append(tones, v.tone)
	}
	m.mu.Unlock()
	sort.Slice(tones, func(i, j int) bool { return tones[i].ID < tones[j].ID })
	return tones
}

// Silence clears all voices and flushes the sink queue.
func (m *Mixer) Silence() error {
	m.mu.Lock()
	m.voices = make(map[string]voice)
	m.mu.Unlock()
	if m.sink == nil {
		return nil
	}
	return m.sink.Clear()
}

// prioritize picks the objects worth sounding: centered objects first,
// larger ones breaking ties. Fading carry-overs are excluded since the
// voice expiry already bridges detection gaps.
func (m *Mixer) prioritize(objects []track.TrackedObject) []track.TrackedObject {
	live := make([]track.TrackedObject, 0, len(objects))
	for _, o := range objects {
		if !o.Fading {
			live = append(live, o)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		return priorityScore(live[i]) > priorityScore(live[j])
	})
	if len(live) > m.cfg.MaxVoices {
		live = live[:m.cfg.MaxVoices]
	}
	return live
}

func priorityScore(o track.TrackedObject) float64 {
	centrality := 1 - abs(o.CenterX()-0.5)*2
	size := o.Area() / 0.25
	if size > 1 {
		size = 1
	}
	return 0.6*centrality + 0.4*size
}

// toneFor maps an object onto its audible signature. Pan follows the
// horizontal center, pitch takes the category base nudged up for
// objects higher in the frame, volume scales with area.
func (m *Mixer) toneFor(o track.TrackedObject) Tone {
	pan := (o.CenterX() - 0.5) * 2
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}

	freq := baseFrequency(o.Label) * (1 + 0.2*(0.5-o.CenterY()))

	vol := o.Area() * 4
	if vol < m.cfg.MinVolume {
		vol = m.cfg.MinVolume
	} else if vol > m.cfg.MaxVolume {
		vol = m.cfg.MaxVolume
	}

	return Tone{ID: o.ID, Frequency: freq, Pan: pan, Volume: vol}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
