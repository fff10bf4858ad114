package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pathsight/go-pathsight/pkg/capture"
	"github.com/pathsight/go-pathsight/pkg/pipeline"
	"github.com/pathsight/go-pathsight/pkg/vision"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	session, err := pipeline.NewSession(pipeline.Config{}, pipeline.Deps{
		Source:   capture.NewMock(),
		Provider: vision.NewMock(),
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return NewServer(":0", session, nil, nil)
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp, data
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, "GET", "/api/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var st pipeline.Status
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("bad status json: %v", err)
	}
	if st.NavMode != pipeline.NavBasic {
		t.Errorf("nav mode = %q, want basic", st.NavMode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, "GET", "/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var health struct {
		Status           string `json:"status"`
		DetectionClients int    `json:"detection_clients"`
		StatusClients    int    `json:"status_clients"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("bad health json: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q, want ok", health.Status)
	}
	if health.DetectionClients != 0 || health.StatusClients != 0 {
		t.Errorf("client counts = %d/%d, want 0/0",
			health.DetectionClients, health.StatusClients)
	}
}

func TestFrameEndpoint(t *testing.T) {
	session, err := pipeline.NewSession(pipeline.Config{}, pipeline.Deps{
		Source:   capture.NewMock(),
		Provider: vision.NewMock(),
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	s := NewServer(":0", session, nil, nil)

	resp, _ := doJSON(t, s, "GET", "/api/frame", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("before capture status = %d, want 404", resp.StatusCode)
	}

	session.Step(context.Background())

	resp, body := doJSON(t, s, "GET", "/api/frame", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var frame struct {
		Frame string `json:"frame"`
	}
	if err := json.Unmarshal(body, &frame); err != nil {
		t.Fatalf("bad frame json: %v", err)
	}
	if !strings.HasPrefix(frame.Frame, "data:image/jpeg;base64,") {
		t.Errorf("frame = %q, want jpeg data URL", frame.Frame)
	}
}

func TestDetectionsEndpointEmpty(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, "GET", "/api/detections", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Errorf("body = %s, want empty array", got)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, "POST", "/api/config",
		`{"nav_mode": "detailed", "interval_seconds": 5, "movement": "walking forward"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}

	var cfg ConfigView
	if err := json.Unmarshal(body, &cfg); err != nil {
		t.Fatalf("bad config json: %v", err)
	}
	if cfg.NavMode != "detailed" {
		t.Errorf("nav mode = %q, want detailed", cfg.NavMode)
	}
	if cfg.IntervalSeconds != 5 {
		t.Errorf("interval = %v, want 5", cfg.IntervalSeconds)
	}
	if cfg.Movement != "walking forward" {
		t.Errorf("movement = %q, want walking forward", cfg.Movement)
	}
}

func TestConfigRejectsUnknownDetectionMode(t *testing.T) {
	s := newTestServer(t)

	resp, _ := doJSON(t, s, "POST", "/api/config", `{"detection_mode": "4d"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAdvisoriesWithoutJournal(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, "GET", "/api/advisories", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Errorf("body = %s, want empty array", got)
	}
}
