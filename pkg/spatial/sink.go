// Package spatial renders tracked objects as positional audio cues.
//
// Each prioritized obstacle gets a tone whose stereo pan follows its
// horizontal position, whose pitch encodes what kind of object it is,
// and whose loudness grows as it fills more of the frame. Tones are
// mixed into short PCM chunks and pushed to a playback sink, so a
// listener hears where obstacles are without waiting for speech.
package spatial

import (
	"context"
	"io"
)

// Chunk is a block of interleaved stereo PCM16 samples.
type Chunk struct {
	// Samples is interleaved left/right PCM16 audio.
	Samples []int16

	// SampleRate is the playback rate in Hz.
	SampleRate int
}

// Frames returns the number of stereo frames in the chunk.
func (c Chunk) Frames() int { return len(c.Samples) / 2 }

// Sink plays rendered audio chunks.
type Sink interface {
	// Start prepares the output device for playback.
	Start(ctx context.Context) error

	// Write queues a chunk for playback. May block when the device
	// buffer is full.
	Write(ctx context.Context, chunk Chunk) error

	// Clear discards queued audio immediately.
	Clear() error

	io.Closer
}
