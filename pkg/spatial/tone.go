package spatial

import (
	"math"
	"strings"
	"time"
)

// Tone is the audible signature of one tracked object.
type Tone struct {
	// ID ties the tone back to the tracked object it represents.
	ID string

	// Frequency in Hz. Encodes the object category, nudged up for
	// objects higher in the frame.
	Frequency float64

	// Pan is the stereo position, -1 full left to +1 full right.
	Pan float64

	// Volume is the linear gain, 0 to 1.
	Volume float64
}

// Base frequencies per object category. Distinct enough to tell apart
// by ear.
const (
	freqPerson  = 880.0
	freqVehicle = 660.0
	freqDoorway = 440.0
	freqDefault = 520.0
)

// baseFrequency picks the category pitch from the detection label.
func baseFrequency(label string) float64 {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "person"), strings.Contains(l, "people"), strings.Contains(l, "pedestrian"):
		return freqPerson
	case strings.Contains(l, "car"), strings.Contains(l, "truck"), strings.Contains(l, "bus"),
		strings.Contains(l, "bicycle"), strings.Contains(l, "vehicle"), strings.Contains(l, "motorcycle"):
		return freqVehicle
	case strings.Contains(l, "door"), strings.Contains(l, "entrance"), strings.Contains(l, "gate"):
		return freqDoorway
	}
	return freqDefault
}

const (
	attackDuration  = 10 * time.Millisecond
	releaseDuration = 100 * time.Millisecond
)

// renderChunk mixes the given tones into one interleaved stereo PCM16
// chunk. Equal-power panning, with a short attack and release envelope
// so chunk boundaries do not click.
func renderChunk(tones []Tone, dur time.Duration, sampleRate int) Chunk {
	frames := int(float64(sampleRate) * dur.Seconds())
	samples := make([]int16, frames*2)
	if len(tones) == 0 || frames == 0 {
		return Chunk{Samples: samples, SampleRate: sampleRate}
	}

	attack := int(float64(sampleRate) * attackDuration.Seconds())
	release := int(float64(sampleRate) * releaseDuration.Seconds())
	if release > frames {
		release = frames
	}

	// Headroom so simultaneous tones cannot clip.
	gain := 1.0 / float64(len(tones))

	for i := 0; i < frames; i++ {
		env := 1.0
		if attack > 0 && i < attack {
			env = float64(i) / float64(attack)
		}
		if tail := frames - i; tail < release {
			env *= float64(tail) / float64(release)
		}

		var left, right float64
		for _, t := range tones {
			s := math.Sin(2 * math.Pi * t.Frequency * float64(i) / float64(sampleRate))
			s *= t.Volume * gain * env

			// Equal-power pan law.
			angle := (t.Pan + 1) / 2 * math.Pi / 2
			left += s * math.Cos(angle)
			right += s * math.Sin(angle)
		}

		samples[i*2] = pcm16(left)
		samples[i*2+1] = pcm16(right)
	}
	return Chunk{Samples: samples, SampleRate: sampleRate}
}

func pcm16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * math.MaxInt16)
}
