package speech

import (
	"context"
	"sync"
)

// MockSynth records everything it is asked to speak. Safe for
// concurrent use.
type MockSynth struct {
	// SpeakFunc overrides the default no-op behavior when set.
	SpeakFunc func(ctx context.Context, msg Message) error

	mu     sync.Mutex
	spoken []Message
	closed bool
}

// NewMockSynth returns a mock that accepts every message.
func NewMockSynth() *MockSynth {
	return &MockSynth{}
}

func (m *MockSynth) Speak(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, msg)
	m.mu.Unlock()
	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, msg)
	}
	return nil
}

func (m *MockSynth) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Spoken returns a copy of every message spoken so far.
func (m *MockSynth) Spoken() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.spoken))
	copy(out, m.spoken)
	return out
}

// Closed reports whether Close was called.
func (m *MockSynth) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
