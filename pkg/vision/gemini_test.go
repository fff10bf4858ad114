package vision

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeGemini spins up a test server that replies with the given handler
// and a client pointed at it.
func fakeGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGemini(
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL),
		WithTimeout(2*time.Second),
	)
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	return g
}

func candidateReply(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}]}`
}

func jsonString(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		case '\n':
			out += `\n`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

func TestGemini_DetectParsesFencedArray(t *testing.T) {
	g := fakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateReply("```json\n[{\"box_2d\":[100,100,400,400],\"label\":\"chair\"}]\n```")))
	})
	defer g.Close()

	resp, err := g.Detect(context.Background(), &Request{ImageJPEG: []byte{0xff}, Mode: Mode2D})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("got %d items, want 1", len(resp.Items))
	}
}

func TestGemini_DetectResponseFormatError(t *testing.T) {
	g := fakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateReply("I can see a chair and a table in this room.")))
	})
	defer g.Close()

	_, err := g.Detect(context.Background(), &Request{ImageJPEG: []byte{0xff}})
	if !errors.Is(err, ErrResponseFormat) {
		t.Errorf("got %v, want ErrResponseFormat", err)
	}
}

func TestGemini_RateLimitWithRetryDelay(t *testing.T) {
	g := fakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED","details":[{"retryDelay":"8s"}]}}`))
	})
	defer g.Close()

	_, err := g.Detect(context.Background(), &Request{ImageJPEG: []byte{0xff}})
	delay, rateLimited := RateLimitInfo(err)
	if !rateLimited {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
	if delay != 8*time.Second {
		t.Errorf("suggested delay: got %v, want 8s", delay)
	}
}

func TestGemini_EmptyResponse(t *testing.T) {
	g := fakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})
	defer g.Close()

	_, err := g.Detect(context.Background(), &Request{ImageJPEG: []byte{0xff}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("got %v, want ErrEmptyResponse", err)
	}
}

func TestNewGemini_RequiresKey(t *testing.T) {
	if _, err := NewGemini(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("got %v, want ErrNoAPIKey", err)
	}
}

func TestPromptFor_AppendsContext(t *testing.T) {
	p := PromptFor(Mode2D, "2 seconds ago I saw: chair. I am currently stationary.")
	if len(p) <= len(PromptFor(Mode2D, "")) {
		t.Error("context was not appended")
	}
}
