package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	elevenBaseURL = "https://api.elevenlabs.io"
	elevenModel   = "eleven_multilingual_v2"
	// "Daniel": a measured, formal delivery fitting an interview board.
	elevenVoice  = "onwK4e9ZLuTAKqWW03F9"
	elevenFormat = "mp3_44100_128"
)

// ElevenLabs speaks interviewer questions aloud. It talks straight HTTP; the
// vendor ships no Go SDK.
type ElevenLabs struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	model      string
	voice      string
}

type ElevenLabsConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Voice      string
	HTTPClient *http.Client
}

func NewElevenLabs(cfg ElevenLabsConfig) *ElevenLabs {
	e := &ElevenLabs{
		apiKey:     cfg.APIKey,
		baseURL:    elevenBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		model:      elevenModel,
		voice:      elevenVoice,
	}
	if cfg.BaseURL != "" {
		e.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Model != "" {
		e.model = cfg.Model
	}
	if cfg.Voice != "" {
		e.voice = cfg.Voice
	}
	if cfg.HTTPClient != nil {
		e.httpClient = cfg.HTTPClient
	}
	return e
}

// Voice reports the configured voice id, used in cache keys.
func (e *ElevenLabs) Voice() string { return e.voice }

func (e *ElevenLabs) Close() error { return nil }

type synthesizeRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

type elevenErrorResponse struct {
	Detail struct {
		Message string `json:"message"`
	} `json:"detail"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	reqBody, err := json.Marshal(synthesizeRequest{Text: text, ModelID: e.model})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", e.baseURL, e.voice, elevenFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp elevenErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Detail.Message != "" {
			return nil, fmt.Errorf("elevenlabs: %s", errResp.Detail.Message)
		}
		return nil, fmt.Errorf("elevenlabs: unexpected status %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}
