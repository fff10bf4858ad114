package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pathsight/go-pathsight/internal/httpc"
)

// Gemini is the production vision provider, backed by the Gemini
// generateContent API with API-key auth.
type Gemini struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini vision client.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	return &Gemini{
		config: cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "vision.gemini"),
	}, nil
}

// Detect sends one frame and returns the extracted detection array.
func (g *Gemini) Detect(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	text, err := g.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	items, err := ExtractJSONArray(text)
	if err != nil {
		g.logger.Warn("unparseable model reply",
			"mode", req.Mode,
			"text_len", len(text),
		)
		return nil, err
	}

	return &Response{
		Text:      text,
		Items:     items,
		Model:     g.config.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// generate performs the generateContent call and returns the candidate
// text.
func (g *Gemini) generate(ctx context.Context, req *Request) (string, error) {
	payload := map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"text": PromptFor(req.Mode, req.Context)},
				{"inline_data": map[string]string{
					"mime_type": "image/jpeg",
					"data":      base64.StdEncoding.EncodeToString(req.ImageJPEG),
				}},
			},
		}},
		"generationConfig": map[string]any{
			"temperature":     g.config.Temperature,
			"maxOutputTokens": g.config.MaxOutputTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("vision: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.config.BaseURL, g.config.Model, g.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vision: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("vision: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", g.apiError(resp.StatusCode, respBody)
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	if result.Error.Message != "" {
		return "", g.apiError(result.Error.Code, respBody)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// apiError builds an APIError, extracting the service-suggested retry
// delay when the body carries one.
func (g *Gemini) apiError(status int, body []byte) error {
	message := string(body)
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		if errResp.Error.Status != "" {
			message += " (" + errResp.Error.Status + ")"
		}
	}
	return &APIError{
		StatusCode: status,
		Message:    message,
		RetryDelay: parseRetryDelay(string(body)),
	}
}

// Health verifies connectivity and the API key with a minimal request.
func (g *Gemini) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/models/%s?key=%s", g.config.BaseURL, g.config.Model, g.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("vision: health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return g.apiError(resp.StatusCode, body)
	}
	return nil
}

// Close releases resources.
func (g *Gemini) Close() error {
	g.http.CloseIdleConnections()
	return nil
}

// IsTransient reports whether an error is a transport-level failure
// rather than a rate limit or a format problem. Transient errors keep
// cached detections and do not touch the backoff buffer.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if _, rateLimited := RateLimitInfo(err); rateLimited {
		return false
	}
	if errors.Is(err, ErrResponseFormat) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsServerError()
	}
	return true
}

// geminiResponse is the response structure from the Gemini API.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Verify Gemini implements Provider at compile time.
var _ Provider = (*Gemini)(nil)
