package spatial

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pathsight/go-pathsight/pkg/detect"
	"github.com/pathsight/go-pathsight/pkg/track"
)

func newTestMixer(sink Sink) (*Mixer, *time.Time) {
	m := NewMixer(DefaultConfig(), sink, nil)
	cur := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return cur }
	return m, &cur
}

func trackedObj(id, label string, x, y, w, h float64) track.TrackedObject {
	return track.TrackedObject{
		Box2D: detect.Box2D{X: x, Y: y, Width: w, Height: h, Label: label},
		ID:    id,
	}
}

func TestToneForPan(t *testing.T) {
	m, _ := newTestMixer(nil)

	tests := []struct {
		name string
		cx   float64
		want float64
	}{
		{"center", 0.5, 0},
		{"left edge", 0.15, -0.7},
		{"right edge", 0.85, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := trackedObj("a", "chair", tt.cx-0.05, 0.45, 0.1, 0.1)
			tone := m.toneFor(o)
			if math.Abs(tone.Pan-tt.want) > 1e-9 {
				t.Errorf("Pan = %v, want %v", tone.Pan, tt.want)
			}
		})
	}
}

func TestToneForVolumeClamped(t *testing.T) {
	m, _ := newTestMixer(nil)

	tiny := m.toneFor(trackedObj("a", "chair", 0.5, 0.5, 0.01, 0.01))
	if tiny.Volume != m.cfg.MinVolume {
		t.Errorf("tiny volume = %v, want clamped to %v", tiny.Volume, m.cfg.MinVolume)
	}
	huge := m.toneFor(trackedObj("b", "wall", 0.1, 0.1, 0.8, 0.8))
	if huge.Volume != m.cfg.MaxVolume {
		t.Errorf("huge volume = %v, want clamped to %v", huge.Volume, m.cfg.MaxVolume)
	}
}

func TestToneForPitchByHeight(t *testing.T) {
	m, _ := newTestMixer(nil)

	high := m.toneFor(trackedObj("a", "chair", 0.45, 0.1, 0.1, 0.1))
	low := m.toneFor(trackedObj("b", "chair", 0.45, 0.8, 0.1, 0.1))
	if high.Frequency <= low.Frequency {
		t.Errorf("higher object pitch %v should exceed lower object pitch %v",
			high.Frequency, low.Frequency)
	}
}

func TestMixerVoiceCap(t *testing.T) {
	m, _ := newTestMixer(nil)

	objects := []track.TrackedObject{
		trackedObj("a", "chair", 0.45, 0.4, 0.1, 0.1),
		trackedObj("b", "table", 0.40, 0.4, 0.15, 0.15),
		trackedObj("c", "box", 0.50, 0.4, 0.1, 0.1),
		trackedObj("d", "sign", 0.05, 0.1, 0.05, 0.05),
	}
	if err := m.Update(context.Background(), objects); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	tones := m.Tones()
	if len(tones) != 3 {
		t.Fatalf("tones = %d, want capped at 3", len(tones))
	}
	for _, tone := range tones {
		if tone.ID == "d" {
			t.Error("peripheral low-priority object should not get a voice")
		}
	}
}

func TestMixerFadingExcluded(t *testing.T) {
	m, _ := newTestMixer(nil)

	o := trackedObj("a", "chair", 0.45, 0.4, 0.1, 0.1)
	o.Fading = true
	if err := m.Update(context.Background(), []track.TrackedObject{o}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(m.Tones()) != 0 {
		t.Error("fading carry-over should not start a voice")
	}
}

func TestMixerVoiceExpiry(t *testing.T) {
	m, cur := newTestMixer(nil)
	ctx := context.Background()

	o := trackedObj("a", "chair", 0.45, 0.4, 0.1, 0.1)
	if err := m.Update(ctx, []track.TrackedObject{o}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// Gone from the frame but within the expiry window: keeps sounding.
	*cur = cur.Add(1 * time.Second)
	if err := m.Update(ctx, nil); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(m.Tones()) != 1 {
		t.Fatalf("tones = %d, want voice held through gap", len(m.Tones()))
	}

	// Past the expiry the voice is dropped.
	*cur = cur.Add(2 * time.Second)
	if err := m.Update(ctx, nil); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(m.Tones()) != 0 {
		t.Errorf("tones = %d, want expired", len(m.Tones()))
	}
}

func TestMixerWritesToSink(t *testing.T) {
	sink := NewMockSink()
	m, _ := newTestMixer(sink)

	o := trackedObj("a", "chair", 0.45, 0.4, 0.1, 0.1)
	if err := m.Update(context.Background(), []track.TrackedObject{o}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	chunks := sink.Chunks()
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	if chunks[0].SampleRate != m.cfg.SampleRate {
		t.Errorf("sample rate = %d, want %d", chunks[0].SampleRate, m.cfg.SampleRate)
	}
}

func TestMixerSilence(t *testing.T) {
	sink := NewMockSink()
	m, _ := newTestMixer(sink)

	o := trackedObj("a", "chair", 0.45, 0.4, 0.1, 0.1)
	if err := m.Update(context.Background(), []track.TrackedObject{o}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := m.Silence(); err != nil {
		t.Fatalf("Silence() error = %v", err)
	}
	if len(m.Tones()) != 0 {
		t.Error("voices remain after Silence")
	}
	if sink.Cleared() != 1 {
		t.Errorf("Cleared() = %d, want 1", sink.Cleared())
	}
}
