package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"visionary/internal/infra"
)

// SpeechClient synthesizes MP3 audio with the OpenAI speech endpoint.
type SpeechClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	voice      string
	speed      float64
}

func NewSpeechClient(apiKey, model, voice string) *SpeechClient {
	return NewSpeechClientWithURL(apiKey, model, voice, DefaultBaseURL, nil)
}

func NewSpeechClientWithURL(apiKey, model, voice, baseURL string, httpClient *http.Client) *SpeechClient {
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "alloy"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SpeechClient{
		apiKey:     apiKey,
		httpClient: httpClient,
		baseURL:    baseURL,
		model:      model,
		voice:      voice,
		speed:      1.0,
	}
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

func (c *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	bodyBytes, err := json.Marshal(speechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: "mp3",
		Speed:          c.speed,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var audio []byte
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(bodyBytes))
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("speech API error %d: %s (retryable)", resp.StatusCode, string(respBody))
			}
			return infra.Permanent(fmt.Errorf("speech API error %d: %s", resp.StatusCode, string(respBody)))
		}

		audio = respBody
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return audio, nil
}
