package spatial

import (
	"testing"
	"time"
)

func TestBaseFrequency(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"person", freqPerson},
		{"Person walking", freqPerson},
		{"pedestrian", freqPerson},
		{"car", freqVehicle},
		{"parked truck", freqVehicle},
		{"bicycle", freqVehicle},
		{"door", freqDoorway},
		{"open doorway", freqDoorway},
		{"chair", freqDefault},
		{"Unknown", freqDefault},
	}
	for _, tt := range tests {
		if got := baseFrequency(tt.label); got != tt.want {
			t.Errorf("baseFrequency(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestRenderChunkLength(t *testing.T) {
	chunk := renderChunk([]Tone{{ID: "a", Frequency: 440, Volume: 0.5}}, 300*time.Millisecond, 22050)
	wantFrames := 6615 // 22050 * 0.3
	if chunk.Frames() != wantFrames {
		t.Errorf("Frames() = %d, want %d", chunk.Frames(), wantFrames)
	}
	if len(chunk.Samples) != wantFrames*2 {
		t.Errorf("len(Samples) = %d, want %d", len(chunk.Samples), wantFrames*2)
	}
}

func TestRenderChunkPanning(t *testing.T) {
	// Full left: the right channel stays silent.
	chunk := renderChunk([]Tone{{ID: "a", Frequency: 440, Pan: -1, Volume: 1}}, 100*time.Millisecond, 22050)

	var maxLeft, maxRight int16
	for i := 0; i < len(chunk.Samples); i += 2 {
		if l := absInt16(chunk.Samples[i]); l > maxLeft {
			maxLeft = l
		}
		if r := absInt16(chunk.Samples[i+1]); r > maxRight {
			maxRight = r
		}
	}
	if maxLeft == 0 {
		t.Error("left channel silent for full-left pan")
	}
	if maxRight > 10 {
		t.Errorf("right channel audible (%d) for full-left pan", maxRight)
	}
}

func TestRenderChunkEnvelope(t *testing.T) {
	chunk := renderChunk([]Tone{{ID: "a", Frequency: 440, Volume: 1}}, 200*time.Millisecond, 22050)

	// Attack: the very first sample is silent.
	if chunk.Samples[0] != 0 {
		t.Errorf("first sample = %d, want 0", chunk.Samples[0])
	}
	// Release: the final frame is near silent.
	last := absInt16(chunk.Samples[len(chunk.Samples)-2])
	if last > 50 {
		t.Errorf("final sample = %d, want faded out", last)
	}
}

func TestRenderChunkSilence(t *testing.T) {
	chunk := renderChunk(nil, 100*time.Millisecond, 22050)
	for i, s := range chunk.Samples {
		if s != 0 {
			t.Fatalf("sample %d = %d, want silence", i, s)
		}
	}
}

func absInt16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}
