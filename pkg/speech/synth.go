package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
)

// Synthesizer speaks messages. Implementations decide how interruption
// works; Speak blocks until the utterance is queued, not finished.
type Synthesizer interface {
	Speak(ctx context.Context, msg Message) error
	Close() error
}

// SystemSynth speaks through a local TTS command (espeak-ng by default).
// One utterance plays at a time; an interrupting message kills whatever
// is in progress first.
type SystemSynth struct {
	command string

	mu      sync.Mutex
	current *exec.Cmd
}

// NewSystemSynth locates a usable TTS binary. Pass "" to try the common
// ones in order.
func NewSystemSynth(command string) (*SystemSynth, error) {
	candidates := []string{command}
	if command == "" {
		candidates = []string{"espeak-ng", "espeak", "say"}
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := exec.LookPath(c); err == nil {
			return &SystemSynth{command: c}, nil
		}
	}
	return nil, fmt.Errorf("no tts command found (tried %v)", candidates)
}

// Speak runs the TTS command with rate and pitch from the message class.
func (s *SystemSynth) Speak(ctx context.Context, msg Message) error {
	params := ParamsFor(msg.Class)

	s.mu.Lock()
	if msg.Class.Interrupts() && s.current != nil && s.current.Process != nil {
		_ = s.current.Process.Kill()
	}
	cmd := exec.CommandContext(ctx, s.command, s.args(params, msg.Text)...)
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("start tts: %w", err)
	}
	s.current = cmd
	s.mu.Unlock()

	go func() { _ = cmd.Wait() }()
	return nil
}

func (s *SystemSynth) args(p Params, text string) []string {
	switch s.command {
	case "say":
		// macOS say: rate in words per minute.
		return []string{"-r", strconv.Itoa(int(175 * p.Rate)), text}
	default:
		// espeak family: -s words per minute, -p pitch 0-99, -a amplitude
		// 0-200.
		return []string{
			"-s", strconv.Itoa(int(160 * p.Rate)),
			"-p", strconv.Itoa(int(50 * p.Pitch)),
			"-a", strconv.Itoa(int(180 * p.Volume)),
			text,
		}
	}
}

// Close kills any in-flight utterance.
func (s *SystemSynth) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Process != nil {
		_ = s.current.Process.Kill()
	}
	s.current = nil
	return nil
}
