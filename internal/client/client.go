// Package client is the front end's HTTP client for the backend API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"pronounce/internal/models"
)

const (
	probeTimeout    = 5 * time.Second
	generateTimeout = 30 * time.Second
	// Analysis carries an audio payload and the model is slower on it
	analyzeTimeout = 45 * time.Second
)

var (
	// ErrEmptyAudio is returned before any network call when there is
	// nothing to analyze
	ErrEmptyAudio = errors.New("no audio recorded, please try recording again")

	// ErrTimeout distinguishes a timed-out call from other network
	// failures
	ErrTimeout = errors.New("request timeout - server took too long to respond")
)

// Client calls the backend API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Probe reports whether the backend is reachable. Any failure within
// the probe timeout counts as unreachable; no error detail is kept.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// GenerateSession requests a new practice session
func (c *Client) GenerateSession(ctx context.Context, topic string, difficulty models.Difficulty) (*models.PracticeSession, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"topic":      topic,
		"difficulty": difficulty,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate-session", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var session models.PracticeSession
	if err := c.do(req, "Failed to generate session from backend", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// AnalyzePronunciation uploads the recording with its target sentence
// and returns the backend's feedback. Empty audio is rejected before
// any network I/O.
func (c *Client) AnalyzePronunciation(ctx context.Context, audio []byte, targetText string) (*models.PronunciationFeedback, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.WriteField("targetText", targetText); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze-pronunciation", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var feedback models.PronunciationFeedback
	if err := c.do(req, "Failed to analyze pronunciation from backend", &feedback); err != nil {
		return nil, err
	}
	return &feedback, nil
}

// do executes the request and decodes a JSON response into out. A non-2xx
// status surfaces the backend's {"error"} message when one is present.
func (c *Client) do(req *http.Request, fallbackMsg string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("backend not reachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return errors.New(errResp.Error)
		}
		return errors.New(fallbackMsg)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
