package spatial

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// AplaySink plays chunks through an external ALSA player process,
// feeding raw little-endian stereo PCM16 over stdin.
type AplaySink struct {
	command    string
	sampleRate int

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewAplaySink builds a sink for the given sample rate. Pass "" to use
// aplay.
func NewAplaySink(command string, sampleRate int) (*AplaySink, error) {
	if command == "" {
		command = "aplay"
	}
	if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("player not found: %w", err)
	}
	return &AplaySink{command: command, sampleRate: sampleRate}, nil
}

// Start launches the player process.
func (s *AplaySink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return nil
	}
	cmd := exec.CommandContext(ctx, s.command,
		"-q", "-f", "S16_LE", "-c", "2", "-r", fmt.Sprintf("%d", s.sampleRate), "-t", "raw")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("player stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	s.cmd = cmd
	s.stdin = stdin
	return nil
}

// Write streams one chunk to the player.
func (s *AplaySink) Write(ctx context.Context, chunk Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdin == nil {
		return fmt.Errorf("sink not started")
	}
	buf := make([]byte, len(chunk.Samples)*2)
	for i, sample := range chunk.Samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	if _, err := s.stdin.Write(buf); err != nil {
		return fmt.Errorf("write pcm: %w", err)
	}
	return nil
}

// Clear stops the player process, dropping whatever it had buffered.
// Call Start again to resume playback.
func (s *AplaySink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Close stops the player.
func (s *AplaySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *AplaySink) stopLocked() error {
	if s.cmd == nil {
		return nil
	}
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.cmd = nil
	s.stdin = nil
	return nil
}
