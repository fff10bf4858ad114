package spatial

import (
	"context"
	"sync"
)

// MockSink records written chunks for tests.
type MockSink struct {
	// WriteFunc overrides the default record-and-accept behavior.
	WriteFunc func(ctx context.Context, chunk Chunk) error

	mu      sync.Mutex
	started bool
	closed  bool
	cleared int
	chunks  []Chunk
}

// NewMockSink returns an empty recording sink.
func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

func (m *MockSink) Write(ctx context.Context, chunk Chunk) error {
	m.mu.Lock()
	m.chunks = append(m.chunks, chunk)
	m.mu.Unlock()
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, chunk)
	}
	return nil
}

func (m *MockSink) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
	return nil
}

func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Chunks returns a copy of every chunk written so far.
func (m *MockSink) Chunks() []Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Chunk, len(m.chunks))
	copy(out, m.chunks)
	return out
}

// Cleared returns how many times Clear was called.
func (m *MockSink) Cleared() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}
