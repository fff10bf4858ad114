package vision

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	DetectFunc func(ctx context.Context, req *Request) (*Response, error)

	// HealthFunc is called when Health is invoked.
	HealthFunc func(ctx context.Context) error

	mu       sync.Mutex
	requests []*Request
}

// NewMock creates a mock that returns an empty detection array.
func NewMock() *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, req *Request) (*Response, error) {
			return &Response{Text: "[]", Items: []any{}}, nil
		},
	}
}

// WithError returns a mock whose Detect always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, req *Request) (*Response, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error { return err },
	}
}

// WithText returns a mock that replies with the given model text,
// running it through the real extraction path.
func WithText(text string) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, req *Request) (*Response, error) {
			items, err := ExtractJSONArray(text)
			if err != nil {
				return nil, err
			}
			return &Response{Text: text, Items: items}, nil
		},
	}
}

// Detect calls DetectFunc and records the request.
func (m *Mock) Detect(ctx context.Context, req *Request) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, req)
	}
	return &Response{Text: "[]", Items: []any{}}, nil
}

// Health calls HealthFunc.
func (m *Mock) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Requests returns all recorded Detect requests.
func (m *Mock) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
