package capture

import "sync"

// Mock implements Source for testing.
type Mock struct {
	// Frame is returned by CaptureJPEG when Err is nil.
	Frame []byte

	// Err is returned by CaptureJPEG when set.
	Err error

	// NotReady makes Ready report false.
	NotReady bool

	mu       sync.Mutex
	captures int
}

// NewMock returns a mock source producing a tiny fixed frame.
func NewMock() *Mock {
	// Minimal JPEG header stand-in; the bytes are opaque to consumers.
	return &Mock{Frame: []byte{0xff, 0xd8, 0xff, 0xd9}}
}

// CaptureJPEG returns the configured frame or error.
func (m *Mock) CaptureJPEG() ([]byte, error) {
	m.mu.Lock()
	m.captures++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Frame, nil
}

// Ready reports the configured readiness.
func (m *Mock) Ready() bool { return !m.NotReady }

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Captures returns how many frames were requested.
func (m *Mock) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

// Verify Mock implements Source at compile time.
var _ Source = (*Mock)(nil)
