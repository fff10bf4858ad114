package capture

import (
	"strings"
	"testing"
)

func TestDataURL(t *testing.T) {
	got := DataURL([]byte{0xff, 0xd8})
	if !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Errorf("missing data URL prefix: %q", got)
	}
	if !strings.HasSuffix(got, "/9g=") {
		t.Errorf("unexpected payload encoding: %q", got)
	}
}

func TestMock_Lifecycle(t *testing.T) {
	m := NewMock()
	if !m.Ready() {
		t.Error("new mock should be ready")
	}

	frame, err := m.CaptureJPEG()
	if err != nil {
		t.Fatalf("CaptureJPEG: %v", err)
	}
	if len(frame) == 0 {
		t.Error("expected frame bytes")
	}
	if m.Captures() != 1 {
		t.Errorf("captures: got %d, want 1", m.Captures())
	}

	m.Err = ErrUnavailable
	if _, err := m.CaptureJPEG(); err != ErrUnavailable {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}
